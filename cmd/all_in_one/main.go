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
	dryRun       bool
	skipAutoMove bool
	sheetsURL    string
	sheetGID     string
	sheetsAuth   string
	force        bool
	confFile     string
)

var rootCmd = &cobra.Command{
	Use:   "all_in_one [JIRA_API_TOKEN]",
	Short: "テンプレートCSVからJIRAイシュー作成までを一括で実行するツール",
	Long: `次の処理を順に実行します。

  1. テンプレートCSVの取得（ダウンロードフォルダからの移動 / Google Sheets）
  2. テンプレートから設定JSONを作成
  3. プレースホルダーを置換して処理済みCSVを作成
  4. JIRAイシューを Project → Epic → その他 の順に作成`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "JIRAに作成せず、作成内容のみを表示する")
	rootCmd.Flags().BoolVar(&dryRun, "pretend", false, "--dry-run と同じ")
	rootCmd.Flags().BoolVar(&skipAutoMove, "skip-auto-move", false, "ダウンロードフォルダからの自動移動を行わない")
	rootCmd.Flags().StringVar(&sheetsURL, "google-sheets", "", "Google SheetsのURLからテンプレートをダウンロードする")
	rootCmd.Flags().StringVar(&sheetGID, "gid", "0", "ダウンロードするシートのgid")
	rootCmd.Flags().StringVar(&sheetsAuth, "sheets-auth", string(api.SheetsAnonymous), "Google Sheetsの取得方式 (anonymous|oauth)")
	rootCmd.Flags().BoolVar(&force, "force", false, "既存のテンプレートCSVを上書きする")
	rootCmd.Flags().StringVar(&confFile, "conf", config.DefaultConfFile, "設定ファイル (INI)")
}

func run(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	ctx := cmd.Context()

	utils.LogInfo("Metisara 一括処理ツール")

	cfg, err := config.LoadConfigFrom(confFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	if len(args) == 1 {
		cfg.JiraAPIToken = args[0]
	}
	if err := cfg.Validate(dryRun); err != nil {
		return err
	}

	input, err := services.RetrieveTemplate(ctx, cfg, services.RetrieveOptions{
		SheetsURL:    sheetsURL,
		GID:          sheetGID,
		SheetsAuth:   api.SheetsAuth(sheetsAuth),
		SkipAutoMove: skipAutoMove,
		Force:        force,
	})
	if err != nil {
		return err
	}

	var creator services.IssueCreator
	if dryRun {
		creator = api.NewDryRunClient()
	} else {
		jiraClient, err := api.NewJiraClient(cfg)
		if err != nil {
			return err
		}
		user, err := jiraClient.CheckAuth(ctx)
		if err != nil {
			return fmt.Errorf("JIRA認証エラー: %w", err)
		}
		utils.LogInfo("JIRA認証成功: %s", user)
		creator = jiraClient
	}

	migrationService := services.NewMigrationService(cfg, creator, services.NewCSVProcessor(cfg), dryRun)
	summary, err := migrationService.RunAll(ctx, input)
	if err != nil {
		return err
	}

	fmt.Print(utils.RenderSummary(summary))
	utils.LogInfo("合計実行時間: %s", time.Since(startTime))
	return nil
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
