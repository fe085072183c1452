package models

import (
	"regexp"
	"sort"
	"strings"
)

// テンプレートCSVの列インデックス
const (
	ColMilestone = iota
	ColIssueType
	ColSummary
	ColDescription
	ColPriority
	ColEpicLink
	ColEpicName
	ColReporter
	ColAssignee
	ColParentLink
	ColTargetStart
	ColDueDate
	ColComponent
	ColStoryPoints
	ColumnCount
)

// TemplateHeaders はテンプレートCSVのヘッダー（列順）です
var TemplateHeaders = []string{
	"Milestone", "Issue Type", "Summary", "Description", "Priority",
	"Epic Link", "Epic Name", "Reporter", "Assignee", "Parent Link",
	"Target Start", "Due Date", "Component", "Story Points",
}

// セクションマーカー
const (
	SectionGeneral            = "General Configuration"
	SectionResourceAllocation = "Resource Allocation Tickets"
	SectionConception         = "Conception Tickets"
)

// SectionMarkers は設定セクションの開始を示す文字列です
var SectionMarkers = []string{SectionGeneral, SectionResourceAllocation, SectionConception}

// IsSectionMarker はセルが設定セクションマーカーかどうかを返します
func IsSectionMarker(cell string) bool {
	for _, m := range SectionMarkers {
		if cell == m {
			return true
		}
	}
	return false
}

// シンボリックプレースホルダー（投入時に解決される）
const (
	TokenParentLink             = "<parent_link>"
	TokenResourceAllocationEpic = "<resource_alocation_epic>"
	TokenConceptionEpic         = "<conception_epic>"
	TokenInitiationEpic         = "<initiation_epic>"
	TokenEnablementEpic         = "<enablement_epic>"
	TokenUATClosureEpic         = "<uat_closure_epic>"
)

// SymbolicTokens は設定抽出時に自分自身へマッピングされるトークンです
var SymbolicTokens = []string{
	TokenParentLink,
	TokenResourceAllocationEpic,
	TokenConceptionEpic,
	TokenInitiationEpic,
	TokenEnablementEpic,
	TokenUATClosureEpic,
}

// 値プレースホルダー（General Configurationで値が与えられる）
const (
	TokenTargetProject      = "<target_project>"
	TokenProjectKey         = "<project_key>"
	TokenProjectName        = "<project_name>"
	TokenProjectCharter     = "<project_charter>"
	TokenProgramManager     = "<program_manager>"
	TokenProjectTargetStart = "<project_target_start>"
	TokenProjectDueDate     = "<project_due_date>"
	TokenReviewDueDate      = "<review_due_date>"
)

var placeholderPattern = regexp.MustCompile(`^<[^<>]+>$`)

// IsPlaceholder は値が <identifier> 形式のトークンかどうかを返します
func IsPlaceholder(value string) bool {
	return placeholderPattern.MatchString(value)
}

// IsSymbolicToken は値がシンボリックトークンかどうかを返します
func IsSymbolicToken(value string) bool {
	for _, t := range SymbolicTokens {
		if value == t {
			return true
		}
	}
	return false
}

// TeamMember はチーム名簿の1行を表します
type TeamMember struct {
	Team  string `json:"team"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// JiraSettings はJIRA投入先の設定です
type JiraSettings struct {
	TargetProject string `json:"target_project"`
}

// Configuration はテンプレートから抽出した設定モデルです。
// JSONとして保存され、置換・投入ステージへ引き渡されます。
type Configuration struct {
	Disclaimer              string            `json:"_ai_disclaimer,omitempty"`
	Replacements            map[string]string `json:"replacements"`
	JiraSettings            JiraSettings      `json:"jira_settings"`
	ResourceAllocationTeams []TeamMember      `json:"resource_allocation_teams,omitempty"`
	ConceptionTeams         []TeamMember      `json:"conception_teams,omitempty"`
}

// NewConfiguration は空の設定を作成します
func NewConfiguration(targetProject string) *Configuration {
	return &Configuration{
		Replacements: make(map[string]string),
		JiraSettings: JiraSettings{TargetProject: targetProject},
	}
}

// SortedKeys は置換キーをソート順で返します
func (c *Configuration) SortedKeys() []string {
	keys := make([]string, 0, len(c.Replacements))
	for k := range c.Replacements {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Replacement はトークンの置換値を返します。未定義ならfallbackを返します
func (c *Configuration) Replacement(token, fallback string) string {
	if c == nil {
		return fallback
	}
	if v, ok := c.Replacements[token]; ok {
		return v
	}
	return fallback
}

// TicketRow はテンプレートCSVのチケット1行を表します
type TicketRow struct {
	Line        int // 元CSVの行番号（ログ用）
	Milestone   string
	IssueType   string
	Summary     string
	Description string
	Priority    string
	EpicLink    string
	EpicName    string
	Reporter    string
	Assignee    string
	ParentLink  string
	TargetStart string
	DueDate     string
	Component   string
	StoryPoints string
}

// TicketRowFromRecord は位置ベースのレコードからTicketRowを作成します
func TicketRowFromRecord(record []string) TicketRow {
	cell := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	return TicketRow{
		Milestone:   cell(ColMilestone),
		IssueType:   cell(ColIssueType),
		Summary:     cell(ColSummary),
		Description: cell(ColDescription),
		Priority:    cell(ColPriority),
		EpicLink:    cell(ColEpicLink),
		EpicName:    cell(ColEpicName),
		Reporter:    cell(ColReporter),
		Assignee:    cell(ColAssignee),
		ParentLink:  cell(ColParentLink),
		TargetStart: cell(ColTargetStart),
		DueDate:     cell(ColDueDate),
		Component:   cell(ColComponent),
		StoryPoints: cell(ColStoryPoints),
	}
}

// TicketRowFromMap はヘッダー名→値のマップからTicketRowを作成します
func TicketRowFromMap(rec CSVRecord) TicketRow {
	record := make([]string, ColumnCount)
	for i, h := range TemplateHeaders {
		record[i] = rec[h]
	}
	return TicketRowFromRecord(record)
}

// ToRecord はTicketRowを列順のレコードに変換します
func (r TicketRow) ToRecord() []string {
	return []string{
		r.Milestone, r.IssueType, r.Summary, r.Description, r.Priority,
		r.EpicLink, r.EpicName, r.Reporter, r.Assignee, r.ParentLink,
		r.TargetStart, r.DueDate, r.Component, r.StoryPoints,
	}
}

// IsTicket はSummaryとIssue Typeが両方あるときにtrueを返します
func (r TicketRow) IsTicket() bool {
	return strings.TrimSpace(r.Summary) != "" && strings.TrimSpace(r.IssueType) != ""
}

// Category は投入フェーズ判定用の小文字Issue Typeです
func (r TicketRow) Category() string {
	return strings.ToLower(strings.TrimSpace(r.IssueType))
}

// CSVRecord はCSVの1行を表します (ヘッダー名→値のマップ)
type CSVRecord map[string]string
