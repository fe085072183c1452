package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metisara/models"
)

// recordingCreator は受け取ったリクエストを記録し、連番のキーを返します
type recordingCreator struct {
	requests []*models.IssueRequest
	failOn   map[string]error
	prefix   string
}

func (c *recordingCreator) CreateIssue(_ context.Context, req *models.IssueRequest) (*models.CreatedIssue, error) {
	c.requests = append(c.requests, req)
	if err, ok := c.failOn[req.Summary]; ok {
		return nil, err
	}
	n := len(c.requests)
	prefix := c.prefix
	if prefix == "" {
		prefix = "TEST"
	}
	return &models.CreatedIssue{Key: fmt.Sprintf("%s-%d", prefix, n), ID: fmt.Sprint(n)}, nil
}

func (c *recordingCreator) summaries() []string {
	out := make([]string, len(c.requests))
	for i, r := range c.requests {
		out[i] = r.Summary
	}
	return out
}

func (c *recordingCreator) request(summary string) *models.IssueRequest {
	for _, r := range c.requests {
		if r.Summary == summary {
			return r
		}
	}
	return nil
}

func TestClassifyEpic(t *testing.T) {
	tests := []struct {
		name  string
		token string
		ok    bool
	}{
		{"M00 Resource Allocation", models.TokenResourceAllocationEpic, true},
		{"m01 kickoff", models.TokenConceptionEpic, true},
		{"Project Conception", models.TokenConceptionEpic, true},
		{"M02 Initiation", models.TokenInitiationEpic, true},
		{"Enablement", models.TokenEnablementEpic, true},
		{"UAT", models.TokenUATClosureEpic, true},
		{"Project Closure", models.TokenUATClosureEpic, true},
		{"Random epic", "", false},
		// 最初に一致した規則が優先される
		{"M04 Resource Allocation wrap-up", models.TokenResourceAllocationEpic, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, ok := ClassifyEpic(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestResolutionTable(t *testing.T) {
	table := NewResolutionTable()

	key, warning := table.ResolveEpicLink(models.TokenConceptionEpic)
	assert.Empty(t, key)
	assert.NotEmpty(t, warning)

	key, warning = table.ResolveParentLink(models.TokenParentLink)
	assert.Empty(t, key)
	assert.NotEmpty(t, warning)

	assert.True(t, table.RecordProject("P-1"))
	assert.False(t, table.RecordProject("P-2"), "only the first project becomes the parent")
	token, ok := table.RecordEpic("M01 Conception", "E-1")
	assert.True(t, ok)
	assert.Equal(t, models.TokenConceptionEpic, token)

	key, warning = table.ResolveEpicLink(models.TokenConceptionEpic)
	assert.Equal(t, "E-1", key)
	assert.Empty(t, warning)

	key, _ = table.ResolveEpicLink("M01 Conception")
	assert.Equal(t, "E-1", key, "epic names created this run resolve to their key")

	key, _ = table.ResolveEpicLink("OTHER-9")
	assert.Equal(t, "OTHER-9", key)

	key, _ = table.ResolveParentLink(models.TokenParentLink)
	assert.Equal(t, "P-1", key)

	key, _ = table.ResolveParentLink("EXT-5")
	assert.Equal(t, "EXT-5", key)

	key, warning = table.ResolveEpicLink("")
	assert.Empty(t, key)
	assert.Empty(t, warning)
}

func TestSubmitOrdersPhases(t *testing.T) {
	rows := []models.TicketRow{
		{Line: 2, IssueType: "Story", Summary: "story one", EpicLink: models.TokenInitiationEpic},
		{Line: 3, IssueType: "Epic", Summary: "M02 Initiation", EpicName: "M02 Initiation"},
		{Line: 4, IssueType: "Tracker", Summary: "tracker one", ParentLink: models.TokenParentLink},
		{Line: 5, IssueType: "Project", Summary: "the project"},
		{Line: 6, IssueType: "epic", Summary: "M03 Enablement"},
		{Line: 7, IssueType: "Story", Summary: "story two", EpicLink: models.TokenEnablementEpic},
		{Line: 8, IssueType: "", Summary: "not a ticket"},
	}
	creator := &recordingCreator{}
	summary, table := NewSubmitter(creator, testConfiguration(), false).Submit(context.Background(), rows)

	want := []string{"the project", "M02 Initiation", "M03 Enablement", "story one", "tracker one", "story two"}
	if diff := cmp.Diff(want, creator.summaries()); diff != "" {
		t.Errorf("submission order mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 6, summary.Created)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, "TEST-1", summary.ParentProjectKey)
	assert.Equal(t, "TEST-2", table.Symbolic[models.TokenInitiationEpic])
	assert.NotContains(t, table.Symbolic, models.TokenEnablementEpic, "an epic without Epic Name is not bound")
	assert.NotContains(t, table.EpicKeysByName, "M03 Enablement")

	assert.Equal(t, "TEST-2", creator.request("story one").EpicLink)
	assert.Empty(t, creator.request("story two").EpicLink)
	assert.Equal(t, 1, summary.Warnings)
	assert.Equal(t, "TEST-1", creator.request("tracker one").ParentLink)
	assert.Equal(t, "M02 Initiation", creator.request("M02 Initiation").EpicName)
	assert.Empty(t, creator.request("M03 Enablement").EpicName)
}

func TestSubmitBuildsRequest(t *testing.T) {
	rows := []models.TicketRow{
		{
			Line: 2, IssueType: "Story", Summary: "s", Description: "d",
			Assignee: "a@x.com", Reporter: "r@x.com", Component: "Review",
			DueDate: "18/11/25", TargetStart: "4/Sep/25", StoryPoints: "3",
		},
		{Line: 3, IssueType: "Story", Summary: "bad values", Priority: "High", DueDate: "someday", StoryPoints: "2.5"},
	}
	creator := &recordingCreator{}
	summary, _ := NewSubmitter(creator, testConfiguration(), false).Submit(context.Background(), rows)

	first := creator.request("s")
	require.NotNil(t, first)
	assert.Equal(t, "GUARD", first.ProjectKey)
	assert.Equal(t, DefaultPriority, first.Priority)
	assert.Equal(t, "2025-11-18", first.DueDate)
	assert.Equal(t, "2025-09-04", first.TargetStart)
	require.NotNil(t, first.StoryPoints)
	assert.Equal(t, 3.0, *first.StoryPoints)
	assert.Equal(t, "Review", first.Component)

	second := creator.request("bad values")
	require.NotNil(t, second)
	assert.Equal(t, "High", second.Priority)
	assert.Empty(t, second.DueDate)
	assert.Nil(t, second.StoryPoints)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Warnings, "unparseable date is a warning, not a failure")
}

func TestSubmitUnresolvedPlaceholderDropsLink(t *testing.T) {
	rows := []models.TicketRow{
		{Line: 2, IssueType: "Story", Summary: "orphan", EpicLink: models.TokenUATClosureEpic, ParentLink: models.TokenParentLink},
	}
	creator := &recordingCreator{}
	summary, _ := NewSubmitter(creator, nil, false).Submit(context.Background(), rows)

	req := creator.request("orphan")
	require.NotNil(t, req)
	assert.Empty(t, req.EpicLink)
	assert.Empty(t, req.ParentLink)
	assert.Equal(t, DefaultTargetProject, req.ProjectKey)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 2, summary.Warnings)
	assert.Empty(t, summary.ParentProjectKey)
}

func TestSubmitPartialFailure(t *testing.T) {
	rows := []models.TicketRow{
		{Line: 2, IssueType: "Story", Summary: "row one"},
		{Line: 3, IssueType: "Story", Summary: "row two"},
		{Line: 4, IssueType: "Story", Summary: "row three"},
	}
	creator := &recordingCreator{failOn: map[string]error{"row two": errors.New("field 'priority' is invalid")}}
	summary, _ := NewSubmitter(creator, testConfiguration(), false).Submit(context.Background(), rows)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 3)
	assert.True(t, summary.Results[0].Succeeded())
	assert.False(t, summary.Results[1].Succeeded())
	assert.EqualError(t, summary.Results[1].Err, "field 'priority' is invalid")
	assert.True(t, summary.Results[2].Succeeded())
	assert.Equal(t, "TEST-3", summary.Results[2].Key)
	assert.Equal(t, "Created: 2 issues, Failed: 1 issues", summary.String())
}

func TestSubmitFailedEpicLeavesPlaceholderUnresolved(t *testing.T) {
	rows := []models.TicketRow{
		{Line: 2, IssueType: "Epic", Summary: "M01 Conception", EpicName: "M01 Conception"},
		{Line: 3, IssueType: "Story", Summary: "child", EpicLink: models.TokenConceptionEpic},
	}
	creator := &recordingCreator{failOn: map[string]error{"M01 Conception": errors.New("rejected")}}
	summary, table := NewSubmitter(creator, nil, false).Submit(context.Background(), rows)

	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, table.Symbolic)
	assert.Empty(t, creator.request("child").EpicLink)
}

func TestSubmitEpicWithoutEpicNameIsNotBound(t *testing.T) {
	rows := []models.TicketRow{
		{Line: 2, IssueType: "Epic", Summary: "Closure checklist"},
		{Line: 3, IssueType: "Story", Summary: "wrap up", EpicLink: models.TokenUATClosureEpic},
	}
	creator := &recordingCreator{}
	summary, table := NewSubmitter(creator, nil, true).Submit(context.Background(), rows)

	assert.Equal(t, 2, summary.Created)
	assert.Empty(t, table.Symbolic)
	assert.Empty(t, table.EpicKeysByName)
	assert.Empty(t, creator.request("wrap up").EpicLink)
	assert.Equal(t, 1, summary.Warnings)
}

func TestSubmitIndependentRuns(t *testing.T) {
	rows := []models.TicketRow{{Line: 2, IssueType: "Project", Summary: "p"}}
	submitter := NewSubmitter(&recordingCreator{}, nil, true)

	_, first := submitter.Submit(context.Background(), rows)
	_, second := submitter.Submit(context.Background(), nil)
	assert.Equal(t, "TEST-1", first.ParentProjectKey)
	assert.Empty(t, second.ParentProjectKey, "resolution state does not leak between runs")
}
