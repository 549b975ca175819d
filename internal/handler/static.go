package handler

import (
	"embed"
	"log/slog"
	"net/http"

	"github.com/hitoshi/recipeman/internal/middleware"
)

//go:embed static/index.html static/recipes.html
var staticFiles embed.FS

// StaticHandler はバイナリに埋め込んだHTMLページを配信するハンドラー。
type StaticHandler struct{}

// NewStaticHandler はStaticHandlerを生成する。
func NewStaticHandler() *StaticHandler {
	return &StaticHandler{}
}

// Index はトップページを返す。
// GET /
func (h *StaticHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, "static/index.html")
}

// Recipes はレシピ一覧ページを返す。認証必須ルート配下に配置する。
// GET /recipes
func (h *StaticHandler) Recipes(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, "static/recipes.html")
}

func (h *StaticHandler) servePage(w http.ResponseWriter, name string) {
	page, err := staticFiles.ReadFile(name)
	if err != nil {
		// embedされたファイルの読み込み失敗はビルド不整合でしか起きない
		slog.Error("failed to read embedded page", slog.String("name", name), slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w, "", false)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(page); err != nil {
		slog.Error("failed to write page", slog.String("name", name), slog.String("error", err.Error()))
	}
}
