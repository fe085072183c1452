package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPlaceholder(t *testing.T) {
	for _, v := range []string{"<project_key>", "<ra_role_0>", "<parent_link>"} {
		assert.True(t, IsPlaceholder(v), v)
	}
	for _, v := range []string{"", "project_key", "<a><b>", "x <a>", "<>", "ABC-1"} {
		assert.False(t, IsPlaceholder(v), v)
	}
}

func TestTicketRowRecordRoundTrip(t *testing.T) {
	row := TicketRowFromRecord([]string{" M00 ", "Epic", "Summary", "", "High"})
	assert.Equal(t, "M00", row.Milestone)
	assert.Equal(t, "High", row.Priority)
	assert.Empty(t, row.StoryPoints)
	assert.Len(t, row.ToRecord(), ColumnCount)
	assert.Equal(t, "epic", row.Category())
	assert.True(t, row.IsTicket())

	fromMap := TicketRowFromMap(CSVRecord{"Summary": "s", "Issue Type": "Story", "Story Points": "5"})
	assert.Equal(t, "5", fromMap.StoryPoints)
	assert.False(t, TicketRow{Summary: "only summary"}.IsTicket())
}

func TestConfigurationReplacement(t *testing.T) {
	var nilCfg *Configuration
	assert.Equal(t, "fallback", nilCfg.Replacement("<x>", "fallback"))

	cfg := NewConfiguration("GUARD")
	cfg.Replacements["<b>"] = "2"
	cfg.Replacements["<a>"] = "1"
	assert.Equal(t, "1", cfg.Replacement("<a>", ""))
	assert.Equal(t, []string{"<a>", "<b>"}, cfg.SortedKeys())
}

func TestSubmissionSummary(t *testing.T) {
	live := &SubmissionSummary{Created: 2, Failed: 1, ParentProjectKey: "ABC-1"}
	assert.Equal(t, "Created: 2 issues, Failed: 1 issues", live.String())
	assert.Equal(t, []string{"Created: 2 issues", "Failed: 1 issues", "Parent project issue: ABC-1"}, live.Lines())

	dry := &SubmissionSummary{DryRun: true, Created: 3, Warnings: 1}
	assert.Equal(t, "Would create: 3 issues, Would fail: 0 issues", dry.String())
	assert.Contains(t, dry.Lines(), "Warnings: 1")

	assert.True(t, RowResult{Key: "A-1"}.Succeeded())
	assert.False(t, RowResult{Key: "A-1", Err: errors.New("x")}.Succeeded())
	assert.False(t, RowResult{}.Succeeded())
}
