// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/recipeman/internal/middleware"
	"github.com/hitoshi/recipeman/internal/model"
)

const oauthStateCookie = "oauth_state"

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// GetLoginURL はOAuth認可URLを生成する。
	GetLoginURL(state string) string
	// HandleCallback は認可コードを検証してセッションを発行する。
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	// Logout はセッションをベストエフォルトで破棄する。
	Logout(ctx context.Context, sessionID string)
	// ResolveCookie はCookie値からセッションを解決する。
	ResolveCookie(ctx context.Context, cookieValue string) (*model.Session, error)
	// SignSessionID はセッションIDに署名を付けたCookie値を生成する。
	SignSessionID(sessionID string) string
	// VerifySessionCookie はCookie値の署名を検証してセッションIDを取り出す。
	VerifySessionCookie(cookieValue string) (string, bool)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
// ログイン開始・コールバック・ログアウトはすべてブラウザ遷移なので、
// 処理結果にかかわらずトップページへの3xxリダイレクトで完結させる。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はGitHub OAuthフローを開始する。
// GET /auth/github
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10分
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusFound)
}

// Callback はGitHub OAuthコールバックを処理する。
// 認証の成否にかかわらずトップページへリダイレクトする。失敗の詳細はログにのみ残す。
// GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	h.clearStateCookie(w)

	// stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch", slog.String("query_state", state))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback without authorization code")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// 署名付きセッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    h.service.SignSessionID(session.ID),
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout はセッションを破棄してトップページへリダイレクトする。
// ストア側の削除に失敗してもCookieのクリアとリダイレクトは必ず行う。
// GET /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if sessionID, ok := h.service.VerifySessionCookie(cookie.Value); ok {
			h.service.Logout(r.Context(), sessionID)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}

// authStatusResponse はログイン状態レスポンスのボディ。
type authStatusResponse struct {
	LoggedIn bool            `json:"loggedIn"`
	User     *authStatusUser `json:"user,omitempty"`
}

type authStatusUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// Status はログイン状態を返す。
// このエンドポイントはセッションミドルウェアを通さず、匿名アクセスでも
// 常にJSONを返す（未ログインは401 + loggedIn: false）。
// GET /auth/api/auth/status
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	session := h.resolveSession(r)
	if !session.Authenticated() {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(authStatusResponse{LoggedIn: false})
		return
	}

	json.NewEncoder(w).Encode(authStatusResponse{
		LoggedIn: true,
		User: &authStatusUser{
			Username:    session.Profile.Username,
			DisplayName: session.Profile.DisplayName,
		},
	})
}

// resolveSession はリクエストのCookieからセッションを解決する。
// 解決に失敗した場合（ストア障害を含む）は匿名として扱う。
func (h *AuthHandler) resolveSession(r *http.Request) *model.Session {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	session, err := h.service.ResolveCookie(r.Context(), cookie.Value)
	if err != nil {
		slog.Error("failed to resolve session for status check", slog.String("error", err.Error()))
		return nil
	}
	return session
}

// clearStateCookie はOAuth stateクッキーを削除する。
func (h *AuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
