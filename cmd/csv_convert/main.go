package main

import (
	"context"
	"encoding/json"
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
	generateConfig bool
	skipAutoMove   bool
	sheetsURL      string
	sheetGID       string
	sheetsAuth     string
	force          bool
	confFile       string
)

var rootCmd = &cobra.Command{
	Use:   "csv_convert",
	Short: "テンプレートCSVのプレースホルダーを置換するツール",
	Long: `テンプレートCSVから設定を抽出する、または保存済みの設定で
プレースホルダーを置換してJIRA投入用のCSVを作成します。

  --generate-config を指定すると設定JSONを作成します。
  指定しない場合は設定JSONを読み込んで処理済みCSVを書き出します。`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&generateConfig, "generate-config", false, "テンプレートから設定JSONを作成する")
	rootCmd.Flags().BoolVar(&skipAutoMove, "skip-auto-move", false, "ダウンロードフォルダからの自動移動を行わない")
	rootCmd.Flags().StringVar(&sheetsURL, "google-sheets", "", "Google SheetsのURLからテンプレートをダウンロードする")
	rootCmd.Flags().StringVar(&sheetGID, "gid", "0", "ダウンロードするシートのgid")
	rootCmd.Flags().StringVar(&sheetsAuth, "sheets-auth", string(api.SheetsAnonymous), "Google Sheetsの取得方式 (anonymous|oauth)")
	rootCmd.Flags().BoolVar(&force, "force", false, "既存のテンプレートCSVを上書きする")
	rootCmd.Flags().StringVar(&confFile, "conf", config.DefaultConfFile, "設定ファイル (INI)")
}

func run(cmd *cobra.Command, _ []string) error {
	startTime := time.Now()

	utils.LogInfo("Metisara CSV置換ツール")

	cfg, err := config.LoadConfigFrom(confFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}

	input, err := services.RetrieveTemplate(cmd.Context(), cfg, services.RetrieveOptions{
		SheetsURL:    sheetsURL,
		GID:          sheetGID,
		SheetsAuth:   api.SheetsAuth(sheetsAuth),
		SkipAutoMove: skipAutoMove,
		Force:        force,
	})
	if err != nil {
		return err
	}

	migrationService := services.NewMigrationService(cfg, nil, services.NewCSVProcessor(cfg), false)

	if generateConfig {
		extracted, err := migrationService.GenerateConfig(input)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(extracted, "", "  ")
		if err != nil {
			return fmt.Errorf("JSONエンコードエラー: %w", err)
		}
		fmt.Println(string(out))
		utils.LogInfo("設定JSONを確認・編集してから、--generate-config なしで再実行してください")
	} else {
		stats, err := migrationService.ProcessCSV(input)
		if err != nil {
			return err
		}
		utils.LogInfo("処理済みCSVを作成しました: %s (%d 行)", cfg.CSVOutput, stats.RowsWritten)
	}

	utils.LogInfo("処理時間: %s", time.Since(startTime))
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
