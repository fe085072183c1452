package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// DefaultConfFile は設定ファイルの既定パスです
const DefaultConfFile = "metisara.conf"

// ErrMissingToken はライブ実行でAPIトークンが無いときに返されます
var ErrMissingToken = errors.New("JIRA_API_TOKEN が設定されていません")

// Config はアプリケーション全体の設定を保持します
type Config struct {
	// JIRA API設定
	JiraURL        string
	JiraUsername   string
	JiraAPIToken   string
	JiraAuthMethod string // "bearer" または "basic"
	FieldsFile     string

	// ファイルパス
	CSVInput   string
	CSVOutput  string
	ConfigJSON string

	// プロジェクト設定
	DefaultProject string

	// Google Sheets (oauth戦略用)
	GoogleOAuthToken string

	// JIRAフィールドIDの対応表
	Fields FieldIDs
}

var defaults = map[string]string{
	"files.csv_file_input":    "workspace/input/Metisara Template - Import.csv",
	"files.csv_file_output":   "workspace/output/project-tickets-processed.csv",
	"files.config_json":       "workspace/config/csv_replacements.json",
	"jira.url":                "https://your-jira-instance.com/",
	"jira.username":           "",
	"jira.auth_method":        "bearer",
	"jira.fields_file":        "",
	"project.default_project": "PROJ",
}

// LoadConfig は .env・metisara.conf・環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfFile)
}

// LoadConfigFrom は指定したINIファイルから設定を読み込みます。
// ファイルが無い場合は既定値と環境変数のみを使います。
func LoadConfigFrom(confFile string) (*Config, error) {
	// .envファイルを読み込む
	_ = godotenv.Load()

	v, err := newViper(confFile)
	if err != nil {
		return nil, err
	}

	fields, err := LoadFieldIDs(v.GetString("jira.fields_file"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		JiraURL:          strings.TrimRight(v.GetString("jira.url"), "/"),
		JiraUsername:     v.GetString("jira.username"),
		JiraAPIToken:     os.Getenv("JIRA_API_TOKEN"),
		JiraAuthMethod:   strings.ToLower(v.GetString("jira.auth_method")),
		FieldsFile:       v.GetString("jira.fields_file"),
		CSVInput:         v.GetString("files.csv_file_input"),
		CSVOutput:        v.GetString("files.csv_file_output"),
		ConfigJSON:       v.GetString("files.config_json"),
		DefaultProject:   v.GetString("project.default_project"),
		GoogleOAuthToken: os.Getenv("GOOGLE_OAUTH_TOKEN"),
		Fields:           fields,
	}

	return config, nil
}

// newViper は既定値・INIファイル・METISARA_ 環境変数を重ねたviperを返します
func newViper(confFile string) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if confFile != "" {
		if _, err := os.Stat(confFile); err == nil {
			settings, err := readINI(confFile)
			if err != nil {
				return nil, err
			}
			if err := v.MergeConfigMap(settings); err != nil {
				return nil, fmt.Errorf("設定ファイルのマージエラー: %w", err)
			}
		}
	}

	v.SetEnvPrefix("METISARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v, nil
}

// readINI はINIファイルをセクション→キー→値のマップに変換します
func readINI(path string) (map[string]any, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイル読み込みエラー (%s): %w", path, err)
	}

	settings := make(map[string]any)
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		values := make(map[string]any)
		for _, key := range section.Keys() {
			values[key.Name()] = key.String()
		}
		settings[section.Name()] = values
	}
	return settings, nil
}

// Validate は実行モードに必要な設定が揃っているかを検証します
func (c *Config) Validate(dryRun bool) error {
	if c.CSVOutput == "" {
		return fmt.Errorf("files.csv_file_output が空です")
	}
	if dryRun {
		return nil
	}
	if c.JiraURL == "" {
		return fmt.Errorf("jira.url が空です")
	}
	if c.JiraAPIToken == "" {
		return ErrMissingToken
	}
	if c.JiraAuthMethod == "basic" && c.JiraUsername == "" {
		return fmt.Errorf("basic認証には jira.username が必要です")
	}
	return nil
}

// InputCandidates は入力CSVを探す候補パスを順に返します
func InputCandidates(input string) []string {
	return []string{
		input,
		filepath.Join("workspace", "input", input),
		filepath.Join("workspace", "input", filepath.Base(input)),
	}
}

// LocateInput は候補パスの中から最初に存在する入力CSVを返します
func LocateInput(input string) (string, error) {
	candidates := InputCandidates(input)
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("CSVファイル %s が見つかりません (検索先: %s)", input, strings.Join(candidates, ", "))
}
