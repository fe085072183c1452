package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"metisara/api"
	"metisara/config"
	"metisara/services"
	"metisara/utils"
)

var (
	sheetsURL  string
	sheetGID   string
	sheetsAuth string
	output     string
	force      bool
	confFile   string
)

var rootCmd = &cobra.Command{
	Use:   "csv_fetch",
	Short: "テンプレートCSVを作業フォルダへ取得するツール",
	Long: `テンプレートCSVを files.csv_file_input へ配置します。

  --google-sheets を指定した場合はGoogle SheetsからCSVとしてダウンロードします。
  指定しない場合はダウンロードフォルダにある同名のファイルを移動します。

保存先が既に存在する場合は --force を指定しない限りエラーになります。`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&sheetsURL, "google-sheets", "", "Google SheetsのURL")
	rootCmd.Flags().StringVar(&sheetGID, "gid", "0", "ダウンロードするシートのgid")
	rootCmd.Flags().StringVar(&sheetsAuth, "sheets-auth", string(api.SheetsAnonymous), "Google Sheetsの取得方式 (anonymous|oauth)")
	rootCmd.Flags().StringVar(&output, "output", "", "保存先（指定しない場合は設定ファイルから取得）")
	rootCmd.Flags().BoolVar(&force, "force", false, "既存のファイルを上書きする")
	rootCmd.Flags().StringVar(&confFile, "conf", config.DefaultConfFile, "設定ファイル (INI)")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfigFrom(confFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	dest := cfg.CSVInput
	if output != "" {
		dest = output
	}

	if sheetsURL != "" {
		client, err := api.NewSheetsClient(cmd.Context(), api.SheetsAuth(sheetsAuth), cfg.GoogleOAuthToken)
		if err != nil {
			return err
		}
		data, err := client.Fetch(cmd.Context(), sheetsURL, sheetGID)
		if err != nil {
			return err
		}
		return services.SaveDownload(data, dest, force)
	}

	downloads, err := services.DownloadsDir()
	if err != nil {
		return err
	}
	if err := services.MoveFromDownloads(downloads, dest, force); err != nil {
		return err
	}
	utils.LogInfo("置換処理の準備ができました。csv_convert を実行してください")
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
