package services

import (
	"fmt"
	"strings"

	"metisara/models"
)

// 生成チケットの挿入位置を示すマーカー文言
const (
	uatClosureMarker     = "UAT / Project Closure"
	projectCharterMarker = "Fill in project charter"
)

// GenerateResourceAllocationRows はリソース割り当てチームの各メンバーについてTrackerチケットを生成します
func GenerateResourceAllocationRows(cfg *models.Configuration) []models.TicketRow {
	if cfg == nil || len(cfg.ResourceAllocationTeams) == 0 {
		return nil
	}

	projectKey := cfg.Replacement(models.TokenProjectKey, "PROJECT")
	programManager := cfg.Replacement(models.TokenProgramManager, "")
	targetStart := cfg.Replacement(models.TokenProjectTargetStart, "")
	dueDate := cfg.Replacement(models.TokenProjectDueDate, "")

	rows := make([]models.TicketRow, 0, len(cfg.ResourceAllocationTeams))
	for _, member := range cfg.ResourceAllocationTeams {
		rows = append(rows, models.TicketRow{
			Milestone:   "Resource Allocation",
			IssueType:   "Tracker",
			Summary:     fmt.Sprintf("%sM00: RA - %s - %s", projectKey, member.Role, member.Name),
			Priority:    "Normal",
			EpicLink:    models.TokenResourceAllocationEpic,
			Reporter:    programManager,
			Assignee:    member.Email,
			ParentLink:  models.TokenParentLink,
			TargetStart: targetStart,
			DueDate:     dueDate,
			Component:   "Resource Allocation",
		})
	}
	return rows
}

// GenerateConceptionReviewRows はコンセプションチームの各メンバーについてプロジェクト憲章レビューのStoryを生成します
func GenerateConceptionReviewRows(cfg *models.Configuration) []models.TicketRow {
	if cfg == nil || len(cfg.ConceptionTeams) == 0 {
		return nil
	}

	programManager := cfg.Replacement(models.TokenProgramManager, "")
	charter := cfg.Replacement(models.TokenProjectCharter, "")
	reviewDueDate := cfg.Replacement(models.TokenReviewDueDate, "")

	description := fmt.Sprintf("Please review the [Project Charter|%s] and provide your sign-off by resolving this ticket. "+
		"If you have any questions, concerns, or suggestions, please add inline comments to the charter document.", charter)

	rows := make([]models.TicketRow, 0, len(cfg.ConceptionTeams))
	for _, member := range cfg.ConceptionTeams {
		rows = append(rows, models.TicketRow{
			Milestone:   "Conception",
			IssueType:   "Story",
			Summary:     fmt.Sprintf("Team, Review Project Charter - %s - %s", member.Role, member.Name),
			Description: description,
			Priority:    "Normal",
			EpicLink:    models.TokenConceptionEpic,
			Reporter:    programManager,
			Assignee:    member.Email,
			ParentLink:  models.TokenParentLink,
			DueDate:     reviewDueDate,
			Component:   "Review",
			StoryPoints: "1",
		})
	}
	return rows
}

// insertionPoint は生成チケットをどの行の直後に挿入するかの規則です
type insertionPoint struct {
	name     string
	matches  func(record []string) bool
	generate func(cfg *models.Configuration) []models.TicketRow
}

// insertionPoints は挿入規則の一覧です。各規則は1回の実行で最大1回だけ発火します。
var insertionPoints = []insertionPoint{
	{
		name: "resource allocation",
		matches: func(record []string) bool {
			return cellAt(record, models.ColIssueType, "Epic") &&
				cellAt(record, models.ColSummary, uatClosureMarker)
		},
		generate: GenerateResourceAllocationRows,
	},
	{
		name: "conception review",
		matches: func(record []string) bool {
			return cellAt(record, models.ColMilestone, "Conception") &&
				cellAt(record, models.ColIssueType, "Story") &&
				cellAt(record, models.ColSummary, projectCharterMarker)
		},
		generate: GenerateConceptionReviewRows,
	},
}

// cellAt はi列目のセルが部分文字列substrを含むかを返します
func cellAt(record []string, i int, substr string) bool {
	return i < len(record) && strings.Contains(record[i], substr)
}
