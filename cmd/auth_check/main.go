package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"metisara/api"
	"metisara/config"
	"metisara/utils"
)

var (
	showFields bool
	confFile   string
)

var rootCmd = &cobra.Command{
	Use:   "auth_check [JIRA_API_TOKEN]",
	Short: "JIRA認証確認ツール",
	Long: `JIRA APIの認証情報が正しく設定されているかを確認します。
--fields を指定すると、エピック・ストーリーポイント・親・開始日の
フィールドIDの候補を表示します。`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().BoolVar(&showFields, "fields", false, "カスタムフィールドIDの候補を表示する")
	rootCmd.Flags().StringVar(&confFile, "conf", config.DefaultConfFile, "設定ファイル (INI)")
}

func run(cmd *cobra.Command, args []string) error {
	utils.LogInfo("JIRA認証確認ツール")

	cfg, err := config.LoadConfigFrom(confFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	if len(args) == 1 {
		cfg.JiraAPIToken = args[0]
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}

	jiraClient, err := api.NewJiraClient(cfg)
	if err != nil {
		return err
	}

	utils.LogInfo("JIRA APIの認証を確認しています...")
	user, err := jiraClient.CheckAuth(cmd.Context())
	if err != nil {
		utils.LogError("認証情報を確認してください。")
		return fmt.Errorf("JIRA認証エラー: %w", err)
	}
	utils.LogInfo("JIRA認証成功！ 接続先: %s (%s)", cfg.JiraURL, user)

	if !showFields {
		return nil
	}

	report, err := jiraClient.FindFields(cmd.Context())
	if err != nil {
		return err
	}
	printFieldReport(report, cfg.Fields)
	return nil
}

func printFieldReport(report *api.FieldReport, current config.FieldIDs) {
	sections := []struct {
		title      string
		candidates []api.FieldCandidate
	}{
		{"Epic-related fields", report.Epic},
		{"Story Points-related fields", report.StoryPoints},
		{"Parent-related fields", report.Parent},
		{"Target Start-related fields", report.TargetStart},
	}
	for _, s := range sections {
		fmt.Printf("%s:\n", s.title)
		for _, c := range s.candidates {
			fmt.Printf("   %s\n", c)
		}
		fmt.Println()
	}

	if report.Empty() {
		fmt.Println("Epic / Story Points / Parent / Target Start のフィールドが見つかりません")
		fmt.Println("参考: カスタムフィールド一覧")
		for i, c := range report.Custom {
			if i == 20 {
				fmt.Printf("   ... and %d more custom fields\n", len(report.Custom)-20)
				break
			}
			fmt.Printf("   %s\n", c)
		}
		fmt.Println()
	}

	fmt.Println("現在のフィールドID設定:")
	fmt.Printf("   Epic Name: %s\n", current.EpicName)
	fmt.Printf("   Epic Link: %s\n", current.EpicLink)
	fmt.Printf("   Parent Link: %s\n", current.ParentLink)
	fmt.Printf("   Story Points: %s\n", current.StoryPoints)
	fmt.Printf("   Target Start: %s\n", current.TargetStart)
	fmt.Printf("   Due Date: %s\n", current.DueDate)
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
