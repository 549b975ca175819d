package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/recipeman/internal/model"
)

// --- モック定義 ---

type mockSessionResolver struct {
	resolveCookieFn func(ctx context.Context, cookieValue string) (*model.Session, error)
}

func (m *mockSessionResolver) ResolveCookie(ctx context.Context, cookieValue string) (*model.Session, error) {
	if m.resolveCookieFn != nil {
		return m.resolveCookieFn(ctx, cookieValue)
	}
	return nil, nil
}

func validSession() *model.Session {
	return &model.Session{
		ID:        "valid-session-id",
		UserID:    "user-123",
		Profile:   &model.Profile{Username: "octocat", DisplayName: "The Octocat"},
		ExpiresAt: time.Now().Add(1 * time.Hour),
	}
}

// --- テスト ---

// 有効なセッションでプリンシパルがコンテキストに注入されること
func TestSessionMiddleware_ValidSession_InjectsPrincipal(t *testing.T) {
	resolver := &mockSessionResolver{
		resolveCookieFn: func(ctx context.Context, cookieValue string) (*model.Session, error) {
			if cookieValue == "signed-cookie-value" {
				return validSession(), nil
			}
			return nil, nil
		},
	}

	mw := NewSessionMiddleware(resolver)

	var capturedUserID, capturedUsername string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID

		profile, err := ProfileFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUsername = profile.Username
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "signed-cookie-value"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if capturedUserID != "user-123" {
		t.Errorf("user ID = %q, want %q", capturedUserID, "user-123")
	}
	if capturedUsername != "octocat" {
		t.Errorf("username = %q, want %q", capturedUsername, "octocat")
	}
}

// Cookieのないリクエストは保護対象ハンドラーを実行せずに401になること
func TestSessionMiddleware_NoCookie_Returns401WithoutCallingHandler(t *testing.T) {
	mw := NewSessionMiddleware(&mockSessionResolver{})

	handlerCalled := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
	if handlerCalled {
		t.Error("protected handler should not run for unauthenticated request")
	}
}

// 期限切れセッション（リゾルバがnilを返す）は401になり、サーバーエラーにはならないこと
func TestSessionMiddleware_ExpiredSession_TreatedAsAnonymous(t *testing.T) {
	resolver := &mockSessionResolver{
		resolveCookieFn: func(ctx context.Context, cookieValue string) (*model.Session, error) {
			return nil, nil
		},
	}

	mw := NewSessionMiddleware(resolver)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "expired-session-cookie"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d (not 500)", w.Result().StatusCode, http.StatusUnauthorized)
	}
}

// フィールドが欠けたProfileでも存在すれば通過させること（存在がゲート条件）
func TestSessionMiddleware_IncompleteProfile_StillAuthenticated(t *testing.T) {
	resolver := &mockSessionResolver{
		resolveCookieFn: func(ctx context.Context, cookieValue string) (*model.Session, error) {
			return &model.Session{
				ID:      "s1",
				UserID:  "user-1",
				Profile: &model.Profile{}, // usernameなし
			}, nil
		},
	}

	mw := NewSessionMiddleware(resolver)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
}

// ストア障害は500になること
func TestSessionMiddleware_StoreFailure_Returns500(t *testing.T) {
	resolver := &mockSessionResolver{
		resolveCookieFn: func(ctx context.Context, cookieValue string) (*model.Session, error) {
			return nil, errors.New("store unavailable")
		},
	}

	mw := NewSessionMiddleware(resolver)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusInternalServerError)
	}
}
