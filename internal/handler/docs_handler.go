package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/recipeman/internal/docs"
)

// swaggerUIPage はSwagger UIを表示するHTMLページ。
// 定義本体は/api-docs.jsonから読み込む。
const swaggerUIPage = `<!DOCTYPE html>
<html lang="ja">
<head>
  <meta charset="UTF-8">
  <title>Recipeman API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = () => {
      SwaggerUIBundle({
        url: "/api-docs.json",
        dom_id: "#swagger-ui",
      });
    };
  </script>
</body>
</html>
`

// DocsHandler はAPIドキュメントのHTTPハンドラー。
// ドキュメントは起動時に1回シリアライズして保持する。
type DocsHandler struct {
	specJSON []byte
}

// NewDocsHandler はDocsHandlerを生成する。
// ドキュメントの組み立てに失敗した場合はエラーを返す。
func NewDocsHandler(port int) (*DocsHandler, error) {
	specJSON, err := docs.MarshalDocument(port)
	if err != nil {
		return nil, err
	}
	return &DocsHandler{specJSON: specJSON}, nil
}

// UI はSwagger UIページを返す。
// GET /api-docs
func (h *DocsHandler) UI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(swaggerUIPage)); err != nil {
		slog.Error("failed to write docs page", slog.String("error", err.Error()))
	}
}

// Spec はOpenAPI定義のJSONを返す。
// GET /api-docs.json
func (h *DocsHandler) Spec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(h.specJSON); err != nil {
		slog.Error("failed to write docs spec", slog.String("error", err.Error()))
	}
}
