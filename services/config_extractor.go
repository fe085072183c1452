package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"

	"metisara/models"
	"metisara/utils"
)

type section int

const (
	sectionNone section = iota
	sectionGeneral
	sectionResourceAllocation
	sectionConception
)

var sectionByMarker = map[string]section{
	models.SectionGeneral:            sectionGeneral,
	models.SectionResourceAllocation: sectionResourceAllocation,
	models.SectionConception:         sectionConception,
}

// rosterHeaders はチーム名簿セクションのヘッダー行です
var rosterHeaders = []string{"Team", "Role", "Name", "Email"}

// ExtractConfigurationFile はテンプレートCSVファイルから設定を抽出します
func ExtractConfigurationFile(path, defaultProject string) (*models.Configuration, error) {
	utils.LogInfo("テンプレートCSV '%s' から設定を抽出します", path)

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
		}
		return nil, fmt.Errorf("CSVオープンエラー: %w", err)
	}
	defer file.Close()

	return ExtractConfiguration(file, defaultProject)
}

// ExtractConfiguration はセクション分けされたCSVから設定モデルを抽出します。
// セルはヘッダー名で参照するため、列順の異なるテンプレートも扱えます。
func ExtractConfiguration(r io.Reader, defaultProject string) (*models.Configuration, error) {
	records, err := ParseRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSVデータが不足しています")
	}

	cfg := models.NewConfiguration(defaultProject)
	headers := lo.Map(records[0], func(h string, _ int) string { return strings.TrimSpace(h) })
	current := sectionNone

	for _, record := range records[1:] {
		row := make(models.CSVRecord, len(headers))
		var first string
		for i := 0; i < min(len(headers), len(record)); i++ {
			value := strings.TrimSpace(record[i])
			row[headers[i]] = value
			if first == "" && value != "" {
				first = value
			}
		}

		if first == "" {
			continue
		}
		if next, ok := sectionByMarker[first]; ok {
			current = next
			continue
		}
		if lo.Contains(rosterHeaders, first) {
			continue
		}

		switch current {
		case sectionGeneral:
			applyGeneralRow(cfg, row)
		case sectionResourceAllocation:
			if member, ok := rosterMember(row); ok {
				cfg.ResourceAllocationTeams = append(cfg.ResourceAllocationTeams, member)
			}
		case sectionConception:
			if member, ok := rosterMember(row); ok {
				cfg.ConceptionTeams = append(cfg.ConceptionTeams, member)
			}
		}
	}

	for _, token := range models.SymbolicTokens {
		cfg.Replacements[token] = token
	}
	addIndexedTokens(cfg.Replacements, "ra", cfg.ResourceAllocationTeams)
	addIndexedTokens(cfg.Replacements, "conception", cfg.ConceptionTeams)

	return cfg, nil
}

// applyGeneralRow はGeneral Configurationの1行（Milestone列=トークン、Issue Type列=値）を反映します
func applyGeneralRow(cfg *models.Configuration, row models.CSVRecord) {
	placeholder := row["Milestone"]
	value := row["Issue Type"]
	if value == "" || !models.IsPlaceholder(placeholder) {
		return
	}

	switch {
	case placeholder == models.TokenTargetProject:
		cfg.JiraSettings.TargetProject = value
		cfg.Replacements[placeholder] = value
	case models.IsSymbolicToken(placeholder):
		cfg.Replacements[placeholder] = placeholder
	default:
		cfg.Replacements[placeholder] = value
	}
}

// rosterMember は名簿セクションの1行をメンバーに変換します。
// チーム・役割・名前のいずれかが空、または < で始まる行は対象外です。
func rosterMember(row models.CSVRecord) (models.TeamMember, bool) {
	member := models.TeamMember{
		Team:  row["Milestone"],
		Role:  row["Issue Type"],
		Name:  row["Summary"],
		Email: row["Description"],
	}
	for _, v := range []string{member.Team, member.Role, member.Name} {
		if v == "" || strings.HasPrefix(v, "<") {
			return models.TeamMember{}, false
		}
	}
	return member, true
}

// addIndexedTokens は <prefix_role_i> などの添字付きトークンを置換表に追加します
func addIndexedTokens(replacements map[string]string, prefix string, members []models.TeamMember) {
	for i, m := range members {
		replacements[fmt.Sprintf("<%s_team_%d>", prefix, i)] = m.Team
		replacements[fmt.Sprintf("<%s_role_%d>", prefix, i)] = m.Role
		replacements[fmt.Sprintf("<%s_name_%d>", prefix, i)] = m.Name
		replacements[fmt.Sprintf("<%s_email_%d>", prefix, i)] = m.Email
	}
}
