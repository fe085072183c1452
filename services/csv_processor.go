package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"

	"metisara/config"
	"metisara/models"
	"metisara/utils"
)

// ErrTemplateNotFound はテンプレートCSVが存在しないときに返されます
var ErrTemplateNotFound = errors.New("テンプレートCSVが見つかりません")

// templateRowPairs は「メンバーごとに1行記入する」ための入力テンプレート行を示すトークンの組です
var templateRowPairs = [][2]string{
	{"<ra_role>", "<ra_name>"},
	{"<conception_role>", "<conception_name>"},
}

// CSVProcessor はCSVファイルの読み書きとプレースホルダー置換を担当します
type CSVProcessor struct {
	config *config.Config
}

// NewCSVProcessor は新しいCSVプロセッサーを作成します
func NewCSVProcessor(cfg *config.Config) *CSVProcessor {
	return &CSVProcessor{
		config: cfg,
	}
}

// ProcessStats は置換処理の集計です
type ProcessStats struct {
	RowsWritten         int
	TemplateRowsDropped int
	Generated           map[string]int // 挿入規則名 → 生成行数
}

// ParseRecords はCSVを読み込み、# で始まるコメント行を除外します。
// 引用符で囲まれたセル内の # はコメントとして扱いません。
func ParseRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("CSV解析エラー: %w", err)
	}
	// 行頭に空白があるコメント行はReaderでは除外されない
	return lo.Reject(records, func(record []string, _ int) bool {
		return len(record) > 0 && strings.HasPrefix(strings.TrimLeft(record[0], " \t"), "#")
	}), nil
}

// outputPath は空のパスを設定ファイルの出力先で補います
func (p *CSVProcessor) outputPath(path string) string {
	if path == "" && p.config != nil {
		return p.config.CSVOutput
	}
	return path
}

// ReadRecords はCSVファイルを読み込みます
func (p *CSVProcessor) ReadRecords(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("CSVオープンエラー: %w", err)
	}
	defer file.Close()

	return ParseRecords(file)
}

// ProcessTemplate はテンプレートの全行にプレースホルダー置換を適用し、生成チケットを挿入します。
// 設定セクション内の行はそのまま出力し、入力テンプレート行は出力しません。
func (p *CSVProcessor) ProcessTemplate(records [][]string, cfg *models.Configuration) ([][]string, ProcessStats) {
	stats := ProcessStats{Generated: make(map[string]int)}
	replacer := newReplacer(cfg)
	fired := make(map[string]bool)
	inConfigSection := false

	result := make([][]string, 0, len(records))
	for _, record := range records {
		first := ""
		if len(record) > 0 {
			first = strings.TrimSpace(record[0])
		}
		switch {
		case models.IsSectionMarker(first):
			inConfigSection = true
		case first == "":
			inConfigSection = false
		}

		if inConfigSection {
			result = append(result, append([]string(nil), record...))
			stats.RowsWritten++
			continue
		}

		if isUserTemplateRow(record) {
			stats.TemplateRowsDropped++
			continue
		}

		processed := substituteRecord(replacer, record)
		result = append(result, processed)
		stats.RowsWritten++

		if cfg == nil {
			continue
		}
		for _, point := range insertionPoints {
			if fired[point.name] || !point.matches(processed) {
				continue
			}
			fired[point.name] = true

			generated := point.generate(cfg)
			for _, row := range generated {
				result = append(result, substituteRecord(replacer, row.ToRecord()))
				stats.RowsWritten++
			}
			stats.Generated[point.name] += len(generated)
			if len(generated) > 0 {
				utils.LogInfo("%s チケットを %d 件追加しました", point.name, len(generated))
			}
		}
	}

	return result, stats
}

// newReplacer は全プレースホルダーを1パスで置換するReplacerを作成します。
// 置換後の値に含まれる <...> が再置換されることはありません。
func newReplacer(cfg *models.Configuration) *strings.Replacer {
	if cfg == nil {
		return strings.NewReplacer()
	}
	keys := lo.Filter(cfg.SortedKeys(), func(k string, _ int) bool { return k != "" })
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, cfg.Replacements[k])
	}
	return strings.NewReplacer(pairs...)
}

func substituteRecord(replacer *strings.Replacer, record []string) []string {
	out := make([]string, len(record))
	for i, cell := range record {
		out[i] = replacer.Replace(cell)
	}
	return out
}

// isUserTemplateRow は同じセルに対になるテンプレートトークンを両方含む行かどうかを返します
func isUserTemplateRow(record []string) bool {
	for _, cell := range record {
		for _, pair := range templateRowPairs {
			if strings.Contains(cell, pair[0]) && strings.Contains(cell, pair[1]) {
				return true
			}
		}
	}
	return false
}

// WriteProcessedCSV は注意書きのコメント行に続けて処理済みCSVを書き込みます。
// pathが空なら files.csv_file_output に書き込みます。
func (p *CSVProcessor) WriteProcessedCSV(path string, records [][]string, disclaimer string) error {
	path = p.outputPath(path)
	utils.LogInfo("処理済みCSVファイル '%s' を作成します", path)

	if len(records) == 0 {
		return fmt.Errorf("書き込むデータがありません")
	}

	var buf bytes.Buffer
	for _, line := range utils.CommentLines(disclaimer) {
		buf.WriteString(line)
		buf.WriteString("\n")
	}

	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("CSV書き込みエラー: %w", err)
	}

	if err := utils.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}

	utils.LogInfo("CSV書き込み完了: %d 行", len(records))
	return nil
}

// ParseTicketRows は処理済みCSVからチケット行を読み込みます。
// 最初の設定セクションマーカーで読み込みを終了し、空行とチケットでない行は除外します。
func ParseTicketRows(r io.Reader) ([]models.TicketRow, error) {
	records, err := ParseRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSVデータが不足しています")
	}

	headers := records[0]
	rows := make([]models.TicketRow, 0, len(records)-1)
	for i, record := range records[1:] {
		rec := make(models.CSVRecord)
		for j := 0; j < min(len(headers), len(record)); j++ {
			rec[strings.TrimSpace(headers[j])] = record[j]
		}

		if models.IsSectionMarker(strings.TrimSpace(rec["Milestone"])) {
			break
		}
		if lo.EveryBy(record, func(cell string) bool { return strings.TrimSpace(cell) == "" }) {
			continue
		}

		row := models.TicketRowFromMap(rec)
		row.Line = i + 2
		if !row.IsTicket() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadTicketRows は処理済みCSVファイルからチケット行を読み込みます。pathが空なら files.csv_file_output を読みます
func (p *CSVProcessor) ReadTicketRows(path string) ([]models.TicketRow, error) {
	path = p.outputPath(path)
	utils.LogInfo("処理済みCSVファイル '%s' を読み込みます", path)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("CSVオープンエラー: %w", err)
	}
	defer file.Close()

	rows, err := ParseTicketRows(file)
	if err != nil {
		return nil, err
	}

	utils.LogInfo("チケット行を読み込みました: %d 行", len(rows))
	return rows, nil
}
