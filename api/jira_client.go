package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/samber/lo"

	"metisara/config"
	"metisara/models"
	"metisara/utils"
)

// JiraClient はJIRA APIとのやり取りを処理します
type JiraClient struct {
	config *config.Config
	// client はイシュー作成用です。作成は冪等でないため再試行しません
	client *jira.Client
	// reader は読み取り専用の呼び出し用で、一時的な失敗を再試行します
	reader *jira.Client
}

// NewJiraClient は新しいJIRAクライアントを作成します
func NewJiraClient(cfg *config.Config) (*JiraClient, error) {
	client, err := jira.NewClient(authClient(cfg, http.DefaultTransport), cfg.JiraURL)
	if err != nil {
		return nil, fmt.Errorf("JIRAクライアント作成エラー: %w", err)
	}

	retrying := retryablehttp.NewClient()
	retrying.RetryMax = 3
	retrying.Logger = nil
	reader, err := jira.NewClient(authClient(cfg, retrying.StandardClient().Transport), cfg.JiraURL)
	if err != nil {
		return nil, fmt.Errorf("JIRAクライアント作成エラー: %w", err)
	}

	return &JiraClient{
		config: cfg,
		client: client,
		reader: reader,
	}, nil
}

// authClient は認証方式に応じたHTTPクライアントを返します
func authClient(cfg *config.Config, base http.RoundTripper) *http.Client {
	if cfg.JiraAuthMethod == "basic" {
		tp := jira.BasicAuthTransport{
			Username:  cfg.JiraUsername,
			Password:  cfg.JiraAPIToken,
			Transport: base,
		}
		return tp.Client()
	}
	tp := jira.BearerAuthTransport{
		Token:     cfg.JiraAPIToken,
		Transport: base,
	}
	return tp.Client()
}

// CheckAuth はJIRA認証をチェックし、認証されたユーザーの表示名を返します
func (j *JiraClient) CheckAuth(ctx context.Context) (string, error) {
	user, _, err := j.reader.User.GetSelfWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("認証失敗: %w", err)
	}

	name := user.DisplayName
	if name == "" {
		name = user.Name
	}
	if user.EmailAddress != "" {
		name = fmt.Sprintf("%s <%s>", name, user.EmailAddress)
	}
	return name, nil
}

// CreateIssue はJIRAイシューを作成します
func (j *JiraClient) CreateIssue(ctx context.Context, req *models.IssueRequest) (*models.CreatedIssue, error) {
	issue := buildIssue(req, j.config.Fields)

	created, resp, err := j.client.Issue.CreateWithContext(ctx, issue)
	if err != nil {
		// 作成APIはレスポンス本文を読まずに返すため、ここでJIRAのエラーメッセージを取り出す
		return nil, fmt.Errorf("イシュー作成失敗: %w", jira.NewJiraError(resp, err))
	}
	if created.Key == "" {
		return nil, fmt.Errorf("イシューキーが見つかりません")
	}

	utils.LogInfo("作成しました: %s - %s", created.Key, req.Summary)
	return &models.CreatedIssue{Key: created.Key, ID: created.ID}, nil
}

// buildIssue は作成リクエストをJIRAのフィールドへ変換します。
// 空の任意項目は送信しません。
func buildIssue(req *models.IssueRequest, ids config.FieldIDs) *jira.Issue {
	fields := &jira.IssueFields{
		Project:     jira.Project{Key: req.ProjectKey},
		Type:        jira.IssueType{Name: req.IssueType},
		Summary:     req.Summary,
		Description: req.Description,
		Unknowns:    map[string]interface{}{},
	}

	if req.Priority != "" {
		fields.Priority = &jira.Priority{Name: req.Priority}
	}
	if req.Assignee != "" {
		fields.Assignee = &jira.User{Name: req.Assignee}
	}
	if req.Reporter != "" {
		fields.Reporter = &jira.User{Name: req.Reporter}
	}
	if req.Component != "" {
		fields.Components = []*jira.Component{{Name: req.Component}}
	}

	custom := func(id string, value interface{}) {
		if id != "" {
			fields.Unknowns[id] = value
		}
	}
	if req.DueDate != "" {
		custom(ids.DueDate, req.DueDate)
	}
	if req.TargetStart != "" {
		custom(ids.TargetStart, req.TargetStart)
	}
	if req.StoryPoints != nil {
		custom(ids.StoryPoints, *req.StoryPoints)
	}
	if req.EpicName != "" {
		custom(ids.EpicName, req.EpicName)
	}
	if req.EpicLink != "" {
		custom(ids.EpicLink, req.EpicLink)
	}
	if req.ParentLink != "" {
		custom(ids.ParentLink, req.ParentLink)
	}

	return &jira.Issue{Fields: fields}
}

// FieldCandidate はフィールド検索で見つかったフィールドです
type FieldCandidate struct {
	ID     string
	Name   string
	Type   string
	Custom bool
}

func (f FieldCandidate) String() string {
	return fmt.Sprintf("%s: %s (Type: %s, Custom: %t)", f.ID, f.Name, f.Type, f.Custom)
}

// FieldReport はフィールド検索の結果をカテゴリ別にまとめたものです
type FieldReport struct {
	Epic        []FieldCandidate
	StoryPoints []FieldCandidate
	Parent      []FieldCandidate
	TargetStart []FieldCandidate
	// Custom は候補が1つも無かった場合の参考用カスタムフィールド一覧です
	Custom []FieldCandidate
}

// Empty は候補が1つも見つからなかったときにtrueを返します
func (r *FieldReport) Empty() bool {
	return len(r.Epic)+len(r.StoryPoints)+len(r.Parent)+len(r.TargetStart) == 0
}

// FindFields はJIRAのフィールド一覧からエピック・ストーリーポイント・親・開始日の候補を探します
func (j *JiraClient) FindFields(ctx context.Context) (*FieldReport, error) {
	fields, _, err := j.reader.Field.GetListWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("フィールド取得失敗: %w", err)
	}
	return classifyFields(fields), nil
}

func classifyFields(fields []jira.Field) *FieldReport {
	report := &FieldReport{}
	for _, f := range fields {
		c := FieldCandidate{ID: f.ID, Name: f.Name, Type: f.Schema.Type, Custom: f.Custom}
		name := strings.ToLower(f.Name)

		if strings.Contains(name, "epic") {
			report.Epic = append(report.Epic, c)
		}
		if strings.Contains(name, "story") && strings.Contains(name, "point") {
			report.StoryPoints = append(report.StoryPoints, c)
		}
		if strings.Contains(name, "parent") || f.ID == "parent" {
			report.Parent = append(report.Parent, c)
		}
		if strings.Contains(name, "target") && strings.Contains(name, "start") {
			report.TargetStart = append(report.TargetStart, c)
		}
	}

	if report.Empty() {
		report.Custom = lo.FilterMap(fields, func(f jira.Field, _ int) (FieldCandidate, bool) {
			return FieldCandidate{ID: f.ID, Name: f.Name, Type: f.Schema.Type, Custom: f.Custom}, f.Custom
		})
		sort.Slice(report.Custom, func(a, b int) bool { return report.Custom[a].ID < report.Custom[b].ID })
	}
	return report
}
