package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"metisara/utils"
)

// SheetsAuth はGoogle Sheetsからの取得方式です
type SheetsAuth string

const (
	// SheetsAnonymous は公開シートを認証なしでエクスポートします
	SheetsAnonymous SheetsAuth = "anonymous"
	// SheetsOAuth はアクセストークンを付けてエクスポートします
	SheetsOAuth SheetsAuth = "oauth"
)

// DefaultSheetsBaseURL はエクスポートURLのホストです
const DefaultSheetsBaseURL = "https://docs.google.com"

// ErrEmptySheet はエクスポート結果が空のときに返されます
var ErrEmptySheet = errors.New("Google Sheetsからデータを受信できませんでした")

var sheetIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9_-]+)`),
}

// ExtractSheetID はGoogle SheetsのURLからシートIDを取り出します
func ExtractSheetID(sheetsURL string) (string, error) {
	for _, p := range sheetIDPatterns {
		if m := p.FindStringSubmatch(sheetsURL); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("Google SheetsのURLからIDを取得できません: %s", sheetsURL)
}

// SheetsClient はGoogle SheetsのCSVエクスポートを取得します
type SheetsClient struct {
	BaseURL string
	auth    SheetsAuth
	client  *http.Client
}

// NewSheetsClient は取得方式に応じたクライアントを作成します。
// oauth方式ではtokenが必須です。
func NewSheetsClient(ctx context.Context, auth SheetsAuth, token string) (*SheetsClient, error) {
	retrying := retryablehttp.NewClient()
	retrying.RetryMax = 3
	retrying.Logger = nil

	var client *http.Client
	switch auth {
	case SheetsAnonymous, "":
		auth = SheetsAnonymous
		client = retrying.StandardClient()
	case SheetsOAuth:
		if token == "" {
			return nil, fmt.Errorf("oauth方式には GOOGLE_OAUTH_TOKEN が必要です")
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, retrying.StandardClient())
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	default:
		return nil, fmt.Errorf("不明なGoogle Sheets取得方式です: %s", auth)
	}

	return &SheetsClient{
		BaseURL: DefaultSheetsBaseURL,
		auth:    auth,
		client:  client,
	}, nil
}

// ExportURL はシートIDとgidからCSVエクスポートURLを組み立てます
func (s *SheetsClient) ExportURL(sheetID, gid string) string {
	if gid == "" {
		gid = "0"
	}
	return fmt.Sprintf("%s/spreadsheets/d/%s/export?format=csv&gid=%s", strings.TrimRight(s.BaseURL, "/"), sheetID, gid)
}

// Fetch はシートをCSVとしてダウンロードします
func (s *SheetsClient) Fetch(ctx context.Context, sheetsURL, gid string) ([]byte, error) {
	sheetID, err := ExtractSheetID(sheetsURL)
	if err != nil {
		return nil, err
	}
	exportURL := s.ExportURL(sheetID, gid)

	utils.LogInfo("Google Sheetsからダウンロードします (%s)", s.auth)
	utils.LogInfo("  Sheet ID: %s", sheetID)
	utils.LogInfo("  Export URL: %s", exportURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成エラー: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("リクエスト送信エラー: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ダウンロード失敗 (%d): %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("レスポンス読み込みエラー: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptySheet
	}

	utils.LogInfo("  File size: %s", humanize.Bytes(uint64(len(data))))
	return data, nil
}
