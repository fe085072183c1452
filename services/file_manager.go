package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"metisara/utils"
)

// ErrDestinationExists は移動先・保存先が既に存在し、上書きが許可されていないときに返されます
var ErrDestinationExists = errors.New("保存先のファイルが既に存在します")

// DownloadsDir はユーザーのダウンロードフォルダを返します
func DownloadsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ホームディレクトリ取得エラー: %w", err)
	}
	return filepath.Join(home, "Downloads"), nil
}

// MoveFromDownloads はダウンロードフォルダにあるテンプレートCSVを dest へ移動します。
// 元ファイル名は dest のベース名と同じものを探します。
func MoveFromDownloads(downloadsDir, dest string, force bool) error {
	source := filepath.Join(downloadsDir, filepath.Base(dest))

	utils.LogInfo("CSVファイルを移動します")
	utils.LogInfo("  Source: %s", source)
	utils.LogInfo("  Destination: %s", dest)

	if !utils.FileExists(source) {
		return fmt.Errorf("%w: %s (ダウンロードフォルダに '%s' を置いてください)",
			ErrTemplateNotFound, source, filepath.Base(dest))
	}
	if err := checkDestination(dest, force); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("ディレクトリ作成エラー: %w", err)
	}

	if err := os.Rename(source, dest); err != nil {
		// ファイルシステムをまたぐ場合はコピーしてから削除する
		data, readErr := os.ReadFile(source)
		if readErr != nil {
			return fmt.Errorf("ファイル移動エラー: %w", err)
		}
		if err := utils.WriteFileAtomic(dest, data); err != nil {
			return err
		}
		if err := os.Remove(source); err != nil {
			return fmt.Errorf("移動元の削除エラー: %w", err)
		}
	}

	utils.LogInfo("ファイルを移動しました: %s", dest)
	return nil
}

// SaveDownload はダウンロードしたデータを dest へ保存します
func SaveDownload(data []byte, dest string, force bool) error {
	if err := checkDestination(dest, force); err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(dest, data); err != nil {
		return err
	}
	utils.LogInfo("CSVを保存しました: %s", dest)
	return nil
}

func checkDestination(dest string, force bool) error {
	if !utils.FileExists(dest) {
		return nil
	}
	if !force {
		return fmt.Errorf("%w: %s (上書きするには --force を指定してください)", ErrDestinationExists, dest)
	}
	utils.LogWarn("既存のファイルを上書きします: %s", dest)
	return nil
}
