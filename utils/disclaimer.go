package utils

import (
	"fmt"
	"strings"
	"time"
)

// Disclaimer は生成ファイルに付与する注意書きを返します
func Disclaimer(now time.Time) string {
	return fmt.Sprintf("AI-Generated file - Review before production use | Generated: %s",
		now.Format("2006-01-02 15:04:05"))
}

// CommentLines は注意書きをCSVコメント行（# 付き）に変換します
func CommentLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			line = "# " + line
		}
		lines = append(lines, line)
	}
	return lines
}
