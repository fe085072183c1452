package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldIDs はJIRAのフィールドIDの対応表です。
// カスタムフィールドIDはJIRAインスタンスごとに異なります。
type FieldIDs struct {
	DueDate     string `yaml:"due_date"`
	TargetStart string `yaml:"target_start"`
	StoryPoints string `yaml:"story_points"`
	EpicName    string `yaml:"epic_name"`
	EpicLink    string `yaml:"epic_link"`
	ParentLink  string `yaml:"parent_link"`
}

// DefaultFieldIDs は既定のフィールドIDです
var DefaultFieldIDs = FieldIDs{
	DueDate:     "duedate",
	TargetStart: "customfield_12313941",
	StoryPoints: "customfield_12310243",
	EpicName:    "customfield_12311141",
	EpicLink:    "customfield_12311140",
	ParentLink:  "customfield_12313140",
}

// LoadFieldIDs はYAMLファイルで既定のフィールドIDを上書きします。
// パスが空なら既定値をそのまま返します。
func LoadFieldIDs(path string) (FieldIDs, error) {
	fields := DefaultFieldIDs
	if path == "" {
		return fields, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fields, fmt.Errorf("フィールド定義ファイル読み込みエラー: %w", err)
	}

	var override FieldIDs
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fields, fmt.Errorf("フィールド定義ファイル解析エラー: %w", err)
	}

	overlay := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	overlay(&fields.DueDate, override.DueDate)
	overlay(&fields.TargetStart, override.TargetStart)
	overlay(&fields.StoryPoints, override.StoryPoints)
	overlay(&fields.EpicName, override.EpicName)
	overlay(&fields.EpicLink, override.EpicLink)
	overlay(&fields.ParentLink, override.ParentLink)
	return fields, nil
}
