// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/recipeman/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// sessionContextKey はリクエストコンテキストにセッションを格納するためのキー。
var sessionContextKey = contextKey("session")

// SessionResolver はCookie値からセッションを解決するインターフェース。
// auth.Serviceが実装する。署名不正・未検出・期限切れは(nil, nil)を返し、
// ストア障害のみエラーを返す契約。
type SessionResolver interface {
	ResolveCookie(ctx context.Context, cookieValue string) (*model.Session, error)
}

// NewSessionMiddleware はCookieからセッションを解決し、
// Identityが紐付いている場合のみ通過させるミドルウェアを返す。
// ゲート条件はProfileオブジェクトの存在であり、フィールドの妥当性は問わない。
// 未認証リクエストには保護対象ハンドラーを実行せずに401を返す。
// 期限切れセッションは匿名として401になる（サーバーエラーにはしない）。
func NewSessionMiddleware(resolver SessionResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteNotAuthenticated(w)
				return
			}

			session, err := resolver.ResolveCookie(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to resolve session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w, "", false)
				return
			}
			if !session.Authenticated() {
				WriteNotAuthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext はリクエストコンテキストからセッションを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func SessionFromContext(ctx context.Context) (*model.Session, error) {
	session, ok := ctx.Value(sessionContextKey).(*model.Session)
	if !ok || session == nil {
		return nil, fmt.Errorf("session not found in context")
	}
	return session, nil
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

// ProfileFromContext はリクエストコンテキストから認証済みプリンシパルを取得する。
func ProfileFromContext(ctx context.Context) (*model.Profile, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if session.Profile == nil {
		return nil, fmt.Errorf("profile not found in session")
	}
	return session.Profile, nil
}

// ContextWithSession はコンテキストにセッションを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithSession(ctx context.Context, session *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}
