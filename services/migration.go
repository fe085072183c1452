package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"metisara/config"
	"metisara/models"
	"metisara/utils"
)

// MigrationService はテンプレートCSVからJIRAイシュー作成までの各ステージを実行します
type MigrationService struct {
	config  *config.Config
	creator IssueCreator
	csvProc *CSVProcessor
	dryRun  bool
	now     func() time.Time
}

// NewMigrationService は新しい移行サービスを作成します。
// creator はイシュー作成を行わないステージのみ使う場合 nil でも構いません。
func NewMigrationService(cfg *config.Config, creator IssueCreator, csvProc *CSVProcessor, dryRun bool) *MigrationService {
	return &MigrationService{
		config:  cfg,
		creator: creator,
		csvProc: csvProc,
		dryRun:  dryRun,
		now:     time.Now,
	}
}

// GenerateConfig はテンプレートCSVから設定を抽出し、設定JSONとして保存します
func (m *MigrationService) GenerateConfig(inputPath string) (*models.Configuration, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "設定抽出")

	cfg, err := ExtractConfigurationFile(inputPath, m.config.DefaultProject)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("置換キー %d 件、リソース割り当て %d 名、コンセプション %d 名を抽出しました",
		len(cfg.Replacements), len(cfg.ResourceAllocationTeams), len(cfg.ConceptionTeams))

	if err := SaveConfiguration(cfg, m.config.ConfigJSON, m.now()); err != nil {
		return nil, fmt.Errorf("設定保存エラー: %w", err)
	}
	return cfg, nil
}

// ProcessCSV は保存済みの設定でテンプレートを置換し、処理済みCSVを書き出します
func (m *MigrationService) ProcessCSV(inputPath string) (ProcessStats, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "CSV置換")

	cfg, err := LoadConfiguration(m.config.ConfigJSON)
	if err != nil {
		return ProcessStats{}, err
	}

	records, err := m.csvProc.ReadRecords(inputPath)
	if err != nil {
		return ProcessStats{}, err
	}
	if len(records) == 0 {
		return ProcessStats{}, fmt.Errorf("CSVデータが不足しています: %s", inputPath)
	}

	processed, stats := m.csvProc.ProcessTemplate(records, cfg)
	if err := m.csvProc.WriteProcessedCSV(m.config.CSVOutput, processed, utils.Disclaimer(m.now())); err != nil {
		return stats, fmt.Errorf("処理済みCSV書き込みエラー: %w", err)
	}

	if stats.TemplateRowsDropped > 0 {
		utils.LogInfo("入力テンプレート行を %d 行除外しました", stats.TemplateRowsDropped)
	}
	return stats, nil
}

// CreateIssues は処理済みCSVのチケット行をフェーズ順にJIRAへ投入します。
// 設定JSONが無い場合は既定の投入先プロジェクトを使います。
func (m *MigrationService) CreateIssues(ctx context.Context, processedPath string) (*models.SubmissionSummary, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "イシュー作成")

	if m.creator == nil {
		return nil, fmt.Errorf("イシュー作成クライアントが設定されていません")
	}

	cfg, err := LoadConfiguration(m.config.ConfigJSON)
	switch {
	case errors.Is(err, ErrConfigNotFound):
		utils.LogWarn("設定JSONが見つからないため投入先プロジェクトに %s を使用します", DefaultTargetProject)
		cfg = nil
	case err != nil:
		return nil, err
	}

	rows, err := m.csvProc.ReadTicketRows(processedPath)
	if err != nil {
		return nil, err
	}

	if m.dryRun {
		utils.LogInfo("DRY RUN モード: JIRAにはイシューを作成しません")
	}
	utils.LogInfo("イシューの作成を開始します: %d 件", len(rows))

	summary, _ := NewSubmitter(m.creator, cfg, m.dryRun).Submit(ctx, rows)
	utils.LogInfo("%s", summary.String())
	return summary, nil
}

// RunAll は設定抽出・CSV置換・イシュー作成を順に実行します
func (m *MigrationService) RunAll(ctx context.Context, inputPath string) (*models.SubmissionSummary, error) {
	startTime := time.Now()
	defer utils.TrackTime(startTime, "全体処理")

	utils.LogInfo("Step 1: テンプレートから設定を抽出します")
	if _, err := m.GenerateConfig(inputPath); err != nil {
		return nil, err
	}

	utils.LogInfo("Step 2: プレースホルダーを置換します")
	if _, err := m.ProcessCSV(inputPath); err != nil {
		return nil, err
	}

	utils.LogInfo("Step 3: JIRAイシューを作成します")
	return m.CreateIssues(ctx, m.config.CSVOutput)
}
