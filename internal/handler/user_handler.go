package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/recipeman/internal/middleware"
)

// UserHandler はユーザー情報のHTTPハンドラー。
type UserHandler struct{}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Me はログイン中ユーザーのユーザー名を返す。
// usernameが空のプロフィールではdisplayNameで代替する。
// GET /api/user/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := middleware.ProfileFromContext(r.Context())
	if err != nil {
		middleware.WriteNotAuthenticated(w)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"username": profile.DisplayUsername(),
	})
}
