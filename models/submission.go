package models

import "fmt"

// IssueRequest はイシュー作成リクエストです。
// JIRAのフィールドIDへの変換はゲートウェイ側でのみ行います。
type IssueRequest struct {
	ProjectKey  string
	Summary     string
	IssueType   string
	Priority    string
	Description string
	Assignee    string
	Reporter    string
	DueDate     string // YYYY-MM-DD
	TargetStart string // YYYY-MM-DD
	StoryPoints *float64
	Component   string
	EpicName    string
	EpicLink    string
	ParentLink  string
}

// CreatedIssue は作成されたイシューの識別子です
type CreatedIssue struct {
	Key string
	ID  string
}

// Phase は投入フェーズです
type Phase string

const (
	PhaseProject   Phase = "project"
	PhaseEpic      Phase = "epic"
	PhaseRemainder Phase = "remainder"
)

// RowResult は1行分の投入結果です
type RowResult struct {
	Line      int
	Phase     Phase
	Summary   string
	IssueType string
	Key       string
	Err       error
	Warnings  []string
}

// Succeeded は作成に成功したかどうかを返します
func (r RowResult) Succeeded() bool {
	return r.Err == nil && r.Key != ""
}

// SubmissionSummary は1回の実行の集計です
type SubmissionSummary struct {
	DryRun           bool
	Created          int
	Failed           int
	Warnings         int
	ParentProjectKey string
	Results          []RowResult
}

// Lines はサマリー出力の各行を返します
func (s *SubmissionSummary) Lines() []string {
	var lines []string
	if s.DryRun {
		lines = append(lines,
			fmt.Sprintf("Would create: %d issues", s.Created),
			fmt.Sprintf("Would fail: %d issues", s.Failed))
	} else {
		lines = append(lines,
			fmt.Sprintf("Created: %d issues", s.Created),
			fmt.Sprintf("Failed: %d issues", s.Failed))
	}
	if s.Warnings > 0 {
		lines = append(lines, fmt.Sprintf("Warnings: %d", s.Warnings))
	}
	if s.ParentProjectKey != "" {
		lines = append(lines, fmt.Sprintf("Parent project issue: %s", s.ParentProjectKey))
	}
	return lines
}

// String は一行形式のサマリーです
func (s *SubmissionSummary) String() string {
	if s.DryRun {
		return fmt.Sprintf("Would create: %d issues, Would fail: %d issues", s.Created, s.Failed)
	}
	return fmt.Sprintf("Created: %d issues, Failed: %d issues", s.Created, s.Failed)
}
