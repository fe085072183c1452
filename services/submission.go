package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"metisara/models"
	"metisara/utils"
)

// DefaultTargetProject は設定が無い場合の投入先プロジェクトです
const DefaultTargetProject = "GUARD"

// DefaultPriority はPriority列が空の場合の優先度です
const DefaultPriority = "Normal"

// IssueCreator はイシューを作成するトラッカー側の窓口です。
// ライブ実行ではJIRA、ドライランではローカルの疑似採番が実装します。
type IssueCreator interface {
	CreateIssue(ctx context.Context, req *models.IssueRequest) (*models.CreatedIssue, error)
}

// EpicRule はエピック表示名のキーワードとシンボリックトークンの対応です
type EpicRule struct {
	Keywords []string
	Token    string
}

// EpicRules は上から順に評価し、最初に一致した規則を採用します
var EpicRules = []EpicRule{
	{Keywords: []string{"resource allocation", "m00"}, Token: models.TokenResourceAllocationEpic},
	{Keywords: []string{"conception", "m01"}, Token: models.TokenConceptionEpic},
	{Keywords: []string{"initiation", "m02"}, Token: models.TokenInitiationEpic},
	{Keywords: []string{"enablement", "m03"}, Token: models.TokenEnablementEpic},
	{Keywords: []string{"uat", "closure", "m04"}, Token: models.TokenUATClosureEpic},
}

// ClassifyEpic はエピック表示名に対応するシンボリックトークンを返します
func ClassifyEpic(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, rule := range EpicRules {
		if lo.SomeBy(rule.Keywords, func(k string) bool { return strings.Contains(lower, k) }) {
			return rule.Token, true
		}
	}
	return "", false
}

// ResolutionTable は1回の投入で作成済みのイシューを記録し、前方参照を解決します。
// 実行ごとに新しく作られ、保存されることはありません。
type ResolutionTable struct {
	EpicKeysByName   map[string]string
	Symbolic         map[string]string
	ParentProjectKey string
}

// NewResolutionTable は空の解決表を作成します
func NewResolutionTable() *ResolutionTable {
	return &ResolutionTable{
		EpicKeysByName: make(map[string]string),
		Symbolic:       make(map[string]string),
	}
}

// RecordProject は最初に作成されたProjectのキーを親として記録します
func (t *ResolutionTable) RecordProject(key string) bool {
	if t.ParentProjectKey != "" {
		return false
	}
	t.ParentProjectKey = key
	return true
}

// RecordEpic は作成されたエピックを記録し、一致したシンボリックトークンを返します
func (t *ResolutionTable) RecordEpic(name, key string) (string, bool) {
	if name == "" {
		return "", false
	}
	t.EpicKeysByName[name] = key
	token, ok := ClassifyEpic(name)
	if ok {
		t.Symbolic[token] = key
	}
	return token, ok
}

// ResolveEpicLink はEpic Linkの値を実際のイシューキーへ解決します。
// 解決できないプレースホルダーは空文字と警告を返し、リンクは付与されません。
func (t *ResolutionTable) ResolveEpicLink(value string) (string, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if models.IsPlaceholder(value) {
		if key, ok := t.Symbolic[value]; ok {
			return key, ""
		}
		return "", fmt.Sprintf("エピックのプレースホルダー %s は未解決のためEpic Linkを省略します", value)
	}
	if key, ok := t.EpicKeysByName[value]; ok {
		return key, ""
	}
	return value, ""
}

// ResolveParentLink はParent Linkの値を実際のイシューキーへ解決します
func (t *ResolutionTable) ResolveParentLink(value string) (string, string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if value == models.TokenParentLink {
		if t.ParentProjectKey != "" {
			return t.ParentProjectKey, ""
		}
		return "", "親プロジェクトが未作成のためParent Linkを省略します"
	}
	if models.IsPlaceholder(value) {
		if key, ok := t.Symbolic[value]; ok {
			return key, ""
		}
		return "", fmt.Sprintf("プレースホルダー %s は未解決のためParent Linkを省略します", value)
	}
	return value, ""
}

// Submitter は行をProject → Epic → その他の順に投入します
type Submitter struct {
	creator       IssueCreator
	targetProject string
	dryRun        bool
}

// NewSubmitter は新しい投入ドライバーを作成します
func NewSubmitter(creator IssueCreator, cfg *models.Configuration, dryRun bool) *Submitter {
	target := DefaultTargetProject
	if cfg != nil && cfg.JiraSettings.TargetProject != "" {
		target = cfg.JiraSettings.TargetProject
	}
	return &Submitter{
		creator:       creator,
		targetProject: target,
		dryRun:        dryRun,
	}
}

type phasePlan struct {
	phase models.Phase
	label string
	rows  []models.TicketRow
}

// partition は行を投入フェーズごとに分けます。各フェーズ内の順序は元の順序を保ちます。
func partition(rows []models.TicketRow) []phasePlan {
	tickets := lo.Filter(rows, func(r models.TicketRow, _ int) bool { return r.IsTicket() })
	return []phasePlan{
		{
			phase: models.PhaseProject,
			label: "Project",
			rows:  lo.Filter(tickets, func(r models.TicketRow, _ int) bool { return r.Category() == "project" }),
		},
		{
			phase: models.PhaseEpic,
			label: "Epic",
			rows:  lo.Filter(tickets, func(r models.TicketRow, _ int) bool { return r.Category() == "epic" }),
		},
		{
			phase: models.PhaseRemainder,
			label: "Story/Tracker/Other",
			rows: lo.Filter(tickets, func(r models.TicketRow, _ int) bool {
				c := r.Category()
				return c != "project" && c != "epic"
			}),
		},
	}
}

// Submit はすべての行を投入し、集計と解決表を返します。
// 1行の失敗は記録されるだけで、残りの行の投入は継続します。
func (s *Submitter) Submit(ctx context.Context, rows []models.TicketRow) (*models.SubmissionSummary, *ResolutionTable) {
	table := NewResolutionTable()
	summary := &models.SubmissionSummary{DryRun: s.dryRun}

	for i, plan := range partition(rows) {
		if len(plan.rows) == 0 {
			continue
		}
		utils.LogInfo("Phase %d: %s イシュー %d 件を処理します", i+1, plan.label, len(plan.rows))

		for _, row := range plan.rows {
			var result models.RowResult
			result, table = s.submitRow(ctx, table, plan.phase, row)
			summary.Results = append(summary.Results, result)
			summary.Warnings += len(result.Warnings)
			if result.Succeeded() {
				summary.Created++
			} else {
				summary.Failed++
			}
		}
	}

	summary.ParentProjectKey = table.ParentProjectKey
	return summary, table
}

// submitRow は1行を投入し、更新した解決表を返します
func (s *Submitter) submitRow(ctx context.Context, table *ResolutionTable, phase models.Phase, row models.TicketRow) (models.RowResult, *ResolutionTable) {
	result := models.RowResult{
		Line:      row.Line,
		Phase:     phase,
		Summary:   row.Summary,
		IssueType: row.IssueType,
	}

	req, warnings := s.buildRequest(row, table)
	for _, w := range warnings {
		utils.LogWarn("行 %d: %s", row.Line, w)
	}
	result.Warnings = warnings

	created, err := s.creator.CreateIssue(ctx, req)
	if err != nil {
		utils.LogError("行 %d '%s' の作成に失敗: %v", row.Line, row.Summary, err)
		result.Err = err
		return result, table
	}
	if created == nil || created.Key == "" {
		result.Err = fmt.Errorf("イシューキーが返されませんでした")
		utils.LogError("行 %d '%s' の作成に失敗: %v", row.Line, row.Summary, result.Err)
		return result, table
	}
	result.Key = created.Key

	switch phase {
	case models.PhaseProject:
		if table.RecordProject(created.Key) {
			utils.LogInfo("%s を <parent_link> の親プロジェクトとして使用します", created.Key)
		}
	case models.PhaseEpic:
		if token, ok := table.RecordEpic(row.EpicName, created.Key); ok {
			utils.LogInfo("%s -> %s を登録しました", token, created.Key)
		}
	}

	return result, table
}

// buildRequest は行から作成リクエストを組み立てます。解決できなかった値は警告として返します。
func (s *Submitter) buildRequest(row models.TicketRow, table *ResolutionTable) (*models.IssueRequest, []string) {
	var warnings []string

	req := &models.IssueRequest{
		ProjectKey:  s.targetProject,
		Summary:     row.Summary,
		IssueType:   row.IssueType,
		Priority:    row.Priority,
		Description: row.Description,
		Assignee:    row.Assignee,
		Reporter:    row.Reporter,
		Component:   row.Component,
	}
	if req.Priority == "" {
		req.Priority = DefaultPriority
	}

	for _, d := range []struct {
		raw string
		dst *string
	}{
		{row.DueDate, &req.DueDate},
		{row.TargetStart, &req.TargetStart},
	} {
		res := NormalizeDate(d.raw)
		if res.OK {
			*d.dst = res.Value
		} else if res.Diagnostic != "" {
			warnings = append(warnings, res.Diagnostic)
		}
	}

	if sp := row.StoryPoints; sp != "" && isDigits(sp) {
		if v, err := strconv.ParseFloat(sp, 64); err == nil {
			req.StoryPoints = &v
		}
	}

	if row.Category() == "epic" && row.EpicName != "" {
		req.EpicName = row.EpicName
	}

	epicLink, warning := table.ResolveEpicLink(row.EpicLink)
	req.EpicLink = epicLink
	if warning != "" {
		warnings = append(warnings, warning)
	}

	parentLink, warning := table.ResolveParentLink(row.ParentLink)
	req.ParentLink = parentLink
	if warning != "" {
		warnings = append(warnings, warning)
	}

	return req, warnings
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
