package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"metisara/api"
	"metisara/config"
	"metisara/services"
	"metisara/utils"
)

var (
	dryRun     bool
	inputCSV   string
	configJSON string
	confFile   string
)

var rootCmd = &cobra.Command{
	Use:   "issue_import [JIRA_API_TOKEN]",
	Short: "処理済みCSVからJIRAイシューを作成するツール",
	Long: `処理済みCSVのチケット行を Project → Epic → その他 の順にJIRAへ作成します。

APIトークンは .env / 環境変数 JIRA_API_TOKEN / 第1引数 のいずれかで指定します。
--dry-run では疑似キー (DRY-0001 ...) を払い出し、JIRAには何も作成しません。`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "JIRAに作成せず、作成内容のみを表示する")
	rootCmd.Flags().BoolVar(&dryRun, "pretend", false, "--dry-run と同じ")
	rootCmd.Flags().StringVar(&inputCSV, "input", "", "処理済みCSVファイルのパス（指定しない場合は設定ファイルから取得）")
	rootCmd.Flags().StringVar(&configJSON, "config", "", "設定JSONのパス（指定しない場合は設定ファイルから取得）")
	rootCmd.Flags().StringVar(&confFile, "conf", config.DefaultConfFile, "設定ファイル (INI)")
}

func run(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	utils.LogInfo("JIRA イシュー作成ツール")

	cfg, err := config.LoadConfigFrom(confFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	if len(args) == 1 {
		cfg.JiraAPIToken = args[0]
	}
	if inputCSV != "" {
		cfg.CSVOutput = inputCSV
		utils.LogInfo("入力ファイルを指定: %s", cfg.CSVOutput)
	}
	if configJSON != "" {
		cfg.ConfigJSON = configJSON
		utils.LogInfo("設定JSONを指定: %s", cfg.ConfigJSON)
	}
	if err := cfg.Validate(dryRun); err != nil {
		return err
	}

	creator, err := newCreator(cmd.Context(), cfg, dryRun)
	if err != nil {
		return err
	}

	migrationService := services.NewMigrationService(cfg, creator, services.NewCSVProcessor(cfg), dryRun)
	summary, err := migrationService.CreateIssues(cmd.Context(), cfg.CSVOutput)
	if err != nil {
		return err
	}

	fmt.Print(utils.RenderSummary(summary))
	utils.LogInfo("処理時間: %s", time.Since(startTime))
	return nil
}

// newCreator は実行モードに応じたイシュー作成クライアントを返します
func newCreator(ctx context.Context, cfg *config.Config, dryRun bool) (services.IssueCreator, error) {
	if dryRun {
		return api.NewDryRunClient(), nil
	}

	jiraClient, err := api.NewJiraClient(cfg)
	if err != nil {
		return nil, err
	}

	utils.LogInfo("JIRA認証情報を確認しています...")
	user, err := jiraClient.CheckAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("JIRA認証エラー: %w", err)
	}
	utils.LogInfo("JIRA認証成功: %s", user)
	return jiraClient, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		utils.LogError("%v", err)
		os.Exit(1)
	}
}
