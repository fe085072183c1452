package api

import (
	"context"
	"fmt"

	"metisara/models"
	"metisara/utils"
)

// DryRunClient はJIRAへ送信せず、連番の疑似キーを返す作成クライアントです
type DryRunClient struct {
	counter int
}

// NewDryRunClient は新しいドライランクライアントを作成します
func NewDryRunClient() *DryRunClient {
	return &DryRunClient{}
}

// CreateIssue は送信内容をログに出力し、DRY-0001 形式のキーを返します
func (d *DryRunClient) CreateIssue(_ context.Context, req *models.IssueRequest) (*models.CreatedIssue, error) {
	d.counter++
	key := fmt.Sprintf("DRY-%04d", d.counter)

	utils.LogInfo("DRY RUN - 作成予定: %s - %s", key, req.Summary)
	utils.LogInfo("  Project: %s", req.ProjectKey)
	utils.LogInfo("  Type: %s", req.IssueType)
	utils.LogInfo("  Priority: %s", req.Priority)
	if req.Assignee != "" {
		utils.LogInfo("  Assignee: %s", req.Assignee)
	}
	if req.DueDate != "" {
		utils.LogInfo("  Due Date: %s", req.DueDate)
	}
	if req.EpicLink != "" {
		utils.LogInfo("  Epic Link: %s", req.EpicLink)
	}
	if req.ParentLink != "" {
		utils.LogInfo("  Parent Link: %s", req.ParentLink)
	}
	if req.Description != "" {
		utils.LogInfo("  Description: %s", truncate(req.Description, 100))
	}

	return &models.CreatedIssue{Key: key, ID: fmt.Sprintf("dry-%d", d.counter)}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
