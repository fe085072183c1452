package services

import (
	"context"
	"errors"

	"metisara/api"
	"metisara/config"
	"metisara/utils"
)

// SheetFetcher はスプレッドシートをCSVとして取得します
type SheetFetcher interface {
	Fetch(ctx context.Context, sheetsURL, gid string) ([]byte, error)
}

// RetrieveOptions はテンプレートCSVの取得方法です
type RetrieveOptions struct {
	SheetsURL    string
	GID          string
	SheetsAuth   api.SheetsAuth
	SkipAutoMove bool
	Force        bool
	// DownloadsDir が空ならユーザーのダウンロードフォルダを使います
	DownloadsDir string
	// Fetcher が nil なら SheetsAuth に応じたクライアントを作成します
	Fetcher SheetFetcher
}

// RetrieveTemplate はGoogle Sheetsのダウンロードまたはダウンロードフォルダからの移動で
// テンプレートCSVを用意し、読み込むべきパスを返します。
func RetrieveTemplate(ctx context.Context, cfg *config.Config, opts RetrieveOptions) (string, error) {
	dest := cfg.CSVInput

	switch {
	case opts.SheetsURL != "":
		fetcher := opts.Fetcher
		if fetcher == nil {
			client, err := api.NewSheetsClient(ctx, opts.SheetsAuth, cfg.GoogleOAuthToken)
			if err != nil {
				return "", err
			}
			fetcher = client
		}
		data, err := fetcher.Fetch(ctx, opts.SheetsURL, opts.GID)
		if err != nil {
			return "", err
		}
		if err := SaveDownload(data, dest, opts.Force); err != nil {
			return "", err
		}

	case opts.SkipAutoMove:
		utils.LogInfo("自動移動をスキップします")

	case utils.FileExists(dest) && !opts.Force:
		utils.LogInfo("%s は既に存在するため自動移動をスキップします", dest)

	default:
		dir := opts.DownloadsDir
		if dir == "" {
			var err error
			if dir, err = DownloadsDir(); err != nil {
				return "", err
			}
		}
		err := MoveFromDownloads(dir, dest, opts.Force)
		if errors.Is(err, ErrTemplateNotFound) {
			utils.LogWarn("%v", err)
		} else if err != nil {
			return "", err
		}
	}

	path, err := config.LocateInput(dest)
	if err != nil {
		return "", errors.Join(ErrTemplateNotFound, err)
	}
	return path, nil
}
