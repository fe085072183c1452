package utils

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"metisara/models"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true)
	summaryOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	summaryFailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	summaryInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// RenderSummary は実行サマリーを端末表示用に整形します
func RenderSummary(s *models.SubmissionSummary) string {
	var b strings.Builder
	b.WriteString(summaryTitleStyle.Render("Summary:"))
	b.WriteString("\n")
	for _, line := range s.Lines() {
		style := summaryInfoStyle
		switch {
		case strings.HasPrefix(line, "Created:"), strings.HasPrefix(line, "Would create:"):
			style = summaryOKStyle
		case strings.HasPrefix(line, "Failed:"), strings.HasPrefix(line, "Would fail:"):
			style = summaryFailStyle
		}
		b.WriteString("   ")
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
