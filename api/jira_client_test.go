package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jira "github.com/andygrunwald/go-jira"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metisara/config"
	"metisara/models"
)

func newTestJiraClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.Config)) *JiraClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.Config{
		JiraURL:        server.URL,
		JiraAPIToken:   "token-123",
		JiraAuthMethod: "bearer",
		Fields:         config.DefaultFieldIDs,
	}
	for _, m := range mutate {
		m(cfg)
	}
	client, err := NewJiraClient(cfg)
	require.NoError(t, err)
	return client
}

func TestCreateIssuePayload(t *testing.T) {
	var (
		got  map[string]interface{}
		auth string
	)
	client := newTestJiraClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/api/2/issue", r.URL.Path)
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"10001","key":"ABC-7"}`))
	})

	points := 3.0
	created, err := client.CreateIssue(context.Background(), &models.IssueRequest{
		ProjectKey:  "ABC",
		Summary:     "Kickoff",
		IssueType:   "Story",
		Priority:    "Normal",
		Description: "desc",
		Assignee:    "jane",
		DueDate:     "2025-11-18",
		TargetStart: "2025-09-04",
		StoryPoints: &points,
		EpicLink:    "ABC-2",
		ParentLink:  "ABC-1",
	})
	require.NoError(t, err)
	assert.Equal(t, &models.CreatedIssue{Key: "ABC-7", ID: "10001"}, created)
	assert.Equal(t, "Bearer token-123", auth)

	fields, ok := got["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ABC", fields["project"].(map[string]interface{})["key"])
	assert.Equal(t, "Story", fields["issuetype"].(map[string]interface{})["name"])
	assert.Equal(t, "Normal", fields["priority"].(map[string]interface{})["name"])
	assert.Equal(t, "jane", fields["assignee"].(map[string]interface{})["name"])
	assert.Equal(t, "Kickoff", fields["summary"])
	assert.Equal(t, "2025-11-18", fields["duedate"])
	assert.Equal(t, "2025-09-04", fields["customfield_12313941"])
	assert.Equal(t, 3.0, fields["customfield_12310243"])
	assert.Equal(t, "ABC-2", fields["customfield_12311140"])
	assert.Equal(t, "ABC-1", fields["customfield_12313140"])

	assert.NotContains(t, fields, "reporter")
	assert.NotContains(t, fields, "components")
	assert.NotContains(t, fields, "customfield_12311141", "epic name is only sent for epics")
}

func TestCreateIssueCustomFieldIDs(t *testing.T) {
	var got map[string]interface{}
	client := newTestJiraClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1","key":"ABC-1"}`))
	}, func(cfg *config.Config) {
		cfg.Fields.EpicName = "customfield_99"
	})

	_, err := client.CreateIssue(context.Background(), &models.IssueRequest{
		ProjectKey: "ABC", Summary: "M00", IssueType: "Epic", EpicName: "M00 Resource Allocation",
	})
	require.NoError(t, err)

	fields := got["fields"].(map[string]interface{})
	assert.Equal(t, "M00 Resource Allocation", fields["customfield_99"])
	assert.NotContains(t, fields, "priority")
}

func TestCreateIssueRejected(t *testing.T) {
	client := newTestJiraClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":[],"errors":{"priority":"Priority name 'Urgent' is not valid"}}`))
	})

	_, err := client.CreateIssue(context.Background(), &models.IssueRequest{ProjectKey: "ABC", Summary: "s", IssueType: "Story", Priority: "Urgent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Priority name 'Urgent' is not valid")

	var jerr *jira.Error
	assert.ErrorAs(t, err, &jerr)
}

func TestCheckAuthBasic(t *testing.T) {
	client := newTestJiraClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "bob", user)
		assert.Equal(t, "token-123", pass)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"bob","displayName":"Bob Smith","emailAddress":"bob@x.com"}`))
	}, func(cfg *config.Config) {
		cfg.JiraAuthMethod = "basic"
		cfg.JiraUsername = "bob"
	})

	name, err := client.CheckAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bob Smith <bob@x.com>", name)
}

func TestCheckAuthUnauthorized(t *testing.T) {
	client := newTestJiraClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("Unauthorized"))
	})

	_, err := client.CheckAuth(context.Background())
	assert.Error(t, err)
}

func TestFindFields(t *testing.T) {
	client := newTestJiraClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/field", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"customfield_12311141","name":"Epic Name","custom":true,"schema":{"type":"string"}},
			{"id":"customfield_12311140","name":"Epic Link","custom":true,"schema":{"type":"any"}},
			{"id":"customfield_12310243","name":"Story Points","custom":true,"schema":{"type":"number"}},
			{"id":"customfield_12313140","name":"Parent Link","custom":true,"schema":{"type":"any"}},
			{"id":"customfield_12313941","name":"Target start","custom":true,"schema":{"type":"date"}},
			{"id":"summary","name":"Summary","custom":false,"schema":{"type":"string"}}
		]`))
	})

	report, err := client.FindFields(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Epic, 2)
	require.Len(t, report.StoryPoints, 1)
	assert.Equal(t, "customfield_12310243", report.StoryPoints[0].ID)
	assert.Len(t, report.Parent, 1)
	require.Len(t, report.TargetStart, 1)
	assert.Equal(t, "customfield_12313941: Target start (Type: date, Custom: true)", report.TargetStart[0].String())
	assert.False(t, report.Empty())
	assert.Empty(t, report.Custom)
}

func TestClassifyFieldsFallsBackToCustomList(t *testing.T) {
	report := classifyFields([]jira.Field{
		{ID: "customfield_2", Name: "Team", Custom: true},
		{ID: "summary", Name: "Summary"},
		{ID: "customfield_1", Name: "Sprint", Custom: true},
	})
	assert.True(t, report.Empty())
	require.Len(t, report.Custom, 2)
	assert.Equal(t, "customfield_1", report.Custom[0].ID)
}
