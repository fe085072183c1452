package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"metisara/models"
	"metisara/utils"
)

// ErrConfigNotFound は設定JSONが存在しないときに返されます
var ErrConfigNotFound = errors.New("設定ファイルが見つかりません")

// SaveConfiguration は設定をJSONとして保存します。既存ファイルは置き換えます。
// 注意書きが未設定の場合は now 時点の注意書きを付与します。
func SaveConfiguration(cfg *models.Configuration, path string, now time.Time) error {
	if cfg == nil {
		return fmt.Errorf("保存する設定がありません")
	}

	out := *cfg
	if out.Disclaimer == "" {
		out.Disclaimer = utils.Disclaimer(now)
	}
	if out.Replacements == nil {
		out.Replacements = map[string]string{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("JSONエンコードエラー: %w", err)
	}

	if utils.FileExists(path) {
		utils.LogInfo("既存の %s を置き換えます", path)
	}
	if err := utils.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}

	utils.LogInfo("設定を %s に保存しました", path)
	return nil
}

// LoadConfiguration は保存済みの設定JSONを読み込みます
func LoadConfiguration(path string) (*models.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("設定ファイル読み込みエラー: %w", err)
	}

	var cfg models.Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのJSONが不正です (%s): %w", path, err)
	}
	if cfg.Replacements == nil {
		cfg.Replacements = map[string]string{}
	}
	return &cfg, nil
}
