package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/recipeman/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法を含む。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteNotAuthenticated は未認証レスポンスを書き込む。
// 内部状態を漏らさない最小限のボディを返す。
func WriteNotAuthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Not authenticated",
	})
}

// WriteNotFound はルート未検出レスポンスを書き込む。
func WriteNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Route not found",
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// エラー詳細は開発モードのときだけボディに含め、それ以外はログのみに記録する前提。
func WriteInternalServerError(w http.ResponseWriter, detail string, development bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)

	body := map[string]string{
		"message": "Something went wrong!",
	}
	if development && detail != "" {
		body["error"] = detail
	}
	json.NewEncoder(w).Encode(body)
}
