package services

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts は受け付ける日付形式です。宣言順に試し、最初に解析できた形式を採用します。
var dateLayouts = []string{
	"2/Jan/06",   // 4/Sep/25, 04/Sep/25
	"2/1/06",     // 18/11/25
	"2-1-06",     // 18-11-25
	"2.1.06",     // 18.11.25
	"2/Jan/2006", // 4/Sep/2025
	"2/1/2006",   // 18/11/2025
}

// CanonicalDateLayout は正規化後の日付形式です
const CanonicalDateLayout = "2006-01-02"

// DateResult は日付正規化の結果です。
// OKがfalseでDiagnosticが空なら入力が空だったことを示します。
type DateResult struct {
	Value      string
	OK         bool
	Diagnostic string
}

// NormalizeDate は人手で入力された日付文字列を YYYY-MM-DD に変換します。
// 解析できない場合もエラーにはせず、Diagnostic付きの「値なし」を返します。
func NormalizeDate(dateStr string) DateResult {
	value := strings.TrimSpace(dateStr)
	if value == "" {
		return DateResult{}
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return DateResult{Value: t.Format(CanonicalDateLayout), OK: true}
		}
	}

	return DateResult{Diagnostic: fmt.Sprintf("日付を解析できません: %q", dateStr)}
}
