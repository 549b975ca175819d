package recipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/recipeman/internal/model"
	"github.com/hitoshi/recipeman/internal/security"
	"golang.org/x/net/html"
)

// importTimeout は取り込みリクエストのタイムアウト。
const importTimeout = 10 * time.Second

// maxImportBodySize は取り込み時に読み込むレスポンスボディの上限（1MB）。
const maxImportBodySize = 1 << 20

// Draft は外部ページから抽出したレシピの下書きを表す。
type Draft struct {
	Title       string
	Description string
}

// Importer は外部URLからレシピの下書きを取り込む。
// すべてのリクエストはSSRF防止機能付きのHTTPクライアント経由で送信される。
type Importer struct {
	ssrfGuard security.SSRFGuardService
	client    *http.Client
}

// NewImporter はImporterの新しいインスタンスを生成する。
func NewImporter(ssrfGuard security.SSRFGuardService) *Importer {
	return &Importer{
		ssrfGuard: ssrfGuard,
		client:    ssrfGuard.NewSafeClient(importTimeout),
	}
}

// Import は指定URLのページを取得し、タイトルと概要を抽出する。
// URL検証 → 取得 → HTML解析の順で処理し、各段階の失敗をAPIErrorに変換する。
func (i *Importer) Import(ctx context.Context, rawURL string) (*Draft, error) {
	if err := i.ssrfGuard.ValidateURL(rawURL); err != nil {
		if errors.Is(err, security.ErrBlockedAddress) {
			return nil, model.NewSSRFBlockedError()
		}
		return nil, model.NewInvalidURLError(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	req.Header.Set("User-Agent", "recipeman/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := i.client.Do(req)
	if err != nil {
		// safeurlのDialer検証でブロックされた場合もここに到達する
		if strings.Contains(err.Error(), "prohibited") || strings.Contains(err.Error(), "blocked") {
			return nil, model.NewSSRFBlockedError()
		}
		return nil, model.NewImportFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, model.NewImportFailedError(fmt.Sprintf("取得先がHTTP %dを返しました", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImportBodySize))
	if err != nil {
		return nil, model.NewImportFailedError(err.Error())
	}

	draft := parseDraftFromHTML(body)
	if draft.Title == "" {
		return nil, model.NewImportFailedError("ページからタイトルを抽出できませんでした")
	}

	return draft, nil
}

// parseDraftFromHTML はHTMLからタイトルと概要を抽出する。
// og:titleを優先し、なければtitleタグを使用する。概要はog:descriptionまたは
// meta descriptionから取得する。
func parseDraftFromHTML(htmlBody []byte) *Draft {
	draft := &Draft{}
	var pageTitle string

	tokenizer := html.NewTokenizer(bytes.NewReader(htmlBody))

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			tagName := strings.ToLower(token.Data)

			switch tagName {
			case "title":
				if tokenizer.Next() == html.TextToken {
					pageTitle = strings.TrimSpace(tokenizer.Token().Data)
				}
			case "meta":
				name, property, content := metaAttributes(token)
				switch {
				case property == "og:title" && content != "":
					draft.Title = content
				case property == "og:description" && content != "":
					draft.Description = content
				case name == "description" && content != "" && draft.Description == "":
					draft.Description = content
				}
			case "body":
				// head相当の情報はbody開始までに揃う
				if draft.Title != "" && draft.Description != "" {
					return draft
				}
			}
		}
	}

	if draft.Title == "" {
		draft.Title = pageTitle
	}

	return draft
}

// metaAttributes はmetaタグからname/property/content属性を取り出す。
func metaAttributes(token html.Token) (name, property, content string) {
	for _, attr := range token.Attr {
		switch strings.ToLower(attr.Key) {
		case "name":
			name = strings.ToLower(strings.TrimSpace(attr.Val))
		case "property":
			property = strings.ToLower(strings.TrimSpace(attr.Val))
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}
	return name, property, content
}
