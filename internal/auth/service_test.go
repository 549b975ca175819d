package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/recipeman/internal/model"
)

// --- モック定義 ---

type mockOAuthProvider struct {
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*OAuthProfile, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthProfile, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, nil
}

type mockUserRepo struct {
	findByIDFn           func(ctx context.Context, id string) (*model.User, error)
	createWithIdentityFn func(ctx context.Context, user *model.User, identity *model.Identity) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	if m.createWithIdentityFn != nil {
		return m.createWithIdentityFn(ctx, user, identity)
	}
	return nil
}

type mockIdentityRepo struct {
	findFn func(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

func (m *mockIdentityRepo) FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
	if m.findFn != nil {
		return m.findFn(ctx, provider, providerUserID)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, session *model.Session) error
	findByIDFn      func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn    func(ctx context.Context, id string) error
	deleteExpiredFn func(ctx context.Context) (int64, error)
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return 0, nil
}

func newTestService(provider OAuthProvider, userRepo *mockUserRepo, identRepo *mockIdentityRepo, sessionRepo *mockSessionRepo) *Service {
	return NewService(provider, userRepo, identRepo, sessionRepo, nil, ServiceConfig{
		SessionMaxAge: 86400,
		SessionSecret: "test-secret",
	})
}

func githubProfile(userID, login, name string) *OAuthProfile {
	return &OAuthProfile{
		ProviderUserID: userID,
		Username:       login,
		DisplayName:    name,
		Provider:       "github",
		Raw: map[string]json.RawMessage{
			"login": json.RawMessage(`"` + login + `"`),
		},
	}
}

// --- テスト ---

// 初回ログインでユーザーとidentityが作成され、プロフィール付きセッションが発行されること
func TestService_HandleCallback_NewUser_CreatesUserAndSession(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthProfile, error) {
			return githubProfile("583231", "octocat", "The Octocat"), nil
		},
	}

	var createdUser *model.User
	var createdIdentity *model.Identity
	userRepo := &mockUserRepo{
		createWithIdentityFn: func(ctx context.Context, user *model.User, identity *model.Identity) error {
			createdUser = user
			createdIdentity = identity
			return nil
		},
	}
	identRepo := &mockIdentityRepo{}

	var savedSession *model.Session
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			savedSession = session
			return nil
		},
	}

	svc := newTestService(provider, userRepo, identRepo, sessionRepo)

	session, err := svc.HandleCallback(context.Background(), "test-code")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if createdUser == nil || createdIdentity == nil {
		t.Fatal("expected user and identity to be created")
	}
	if createdIdentity.Provider != "github" {
		t.Errorf("identity provider = %q, want %q", createdIdentity.Provider, "github")
	}
	if createdIdentity.ProviderUserID != "583231" {
		t.Errorf("identity provider user id = %q, want %q", createdIdentity.ProviderUserID, "583231")
	}

	if savedSession == nil {
		t.Fatal("expected session to be saved")
	}
	if session.ID != savedSession.ID {
		t.Errorf("returned session ID = %q, saved %q", session.ID, savedSession.ID)
	}
	if !session.Authenticated() {
		t.Error("session should carry a profile")
	}
	if session.Profile.Username != "octocat" {
		t.Errorf("profile username = %q, want %q", session.Profile.Username, "octocat")
	}
	if session.ExpiresAt.Before(time.Now().Add(23 * time.Hour)) {
		t.Error("session should expire about 24 hours from now")
	}
}

// 登録済みユーザーはidentity経由で特定され、新規作成が走らないこと
func TestService_HandleCallback_ExistingUser_ReusesUserID(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthProfile, error) {
			return githubProfile("583231", "octocat", "The Octocat"), nil
		},
	}
	userRepo := &mockUserRepo{
		createWithIdentityFn: func(ctx context.Context, user *model.User, identity *model.Identity) error {
			t.Error("CreateWithIdentity should not be called for existing user")
			return nil
		},
	}
	identRepo := &mockIdentityRepo{
		findFn: func(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
			return &model.Identity{ID: "ident-1", UserID: "user-42", Provider: provider, ProviderUserID: providerUserID}, nil
		},
	}
	sessionRepo := &mockSessionRepo{}

	svc := newTestService(provider, userRepo, identRepo, sessionRepo)

	session, err := svc.HandleCallback(context.Background(), "test-code")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.UserID != "user-42" {
		t.Errorf("session user ID = %q, want %q", session.UserID, "user-42")
	}
}

// プロバイダー交換失敗がセッションを発行せずにエラーになること
func TestService_HandleCallback_ExchangeFailure_ReturnsError(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthProfile, error) {
			return nil, errors.New("provider unreachable")
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			t.Error("session should not be created on exchange failure")
			return nil
		},
	}

	svc := newTestService(provider, &mockUserRepo{}, &mockIdentityRepo{}, sessionRepo)

	_, err := svc.HandleCallback(context.Background(), "bad-code")
	if err == nil {
		t.Fatal("expected error")
	}
}

// ログアウトはストア削除が失敗しても呼び出し側にエラーを返さないこと
func TestService_Logout_StoreFailure_IsSwallowed(t *testing.T) {
	deleteCalled := false
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return errors.New("store unavailable")
		},
	}

	svc := newTestService(&mockOAuthProvider{}, &mockUserRepo{}, &mockIdentityRepo{}, sessionRepo)

	// panicもエラーもなく戻ること
	svc.Logout(context.Background(), "some-session")
	if !deleteCalled {
		t.Error("expected store deletion to be attempted")
	}
}

// 空セッションIDのログアウト（2回目のログアウト）は削除を試みず正常終了すること
func TestService_Logout_EmptySessionID_IsNoop(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			t.Error("delete should not be called for empty session ID")
			return nil
		},
	}

	svc := newTestService(&mockOAuthProvider{}, &mockUserRepo{}, &mockIdentityRepo{}, sessionRepo)
	svc.Logout(context.Background(), "")
}

// Cookie署名の往復検証
func TestService_SignAndVerifySessionCookie(t *testing.T) {
	svc := newTestService(&mockOAuthProvider{}, &mockUserRepo{}, &mockIdentityRepo{}, &mockSessionRepo{})

	cookie := svc.SignSessionID("abc123")
	sessionID, ok := svc.VerifySessionCookie(cookie)
	if !ok {
		t.Fatal("expected signature to verify")
	}
	if sessionID != "abc123" {
		t.Errorf("session ID = %q, want %q", sessionID, "abc123")
	}
}

// 改ざんされたCookieが拒否されること
func TestService_VerifySessionCookie_RejectsTampered(t *testing.T) {
	svc := newTestService(&mockOAuthProvider{}, &mockUserRepo{}, &mockIdentityRepo{}, &mockSessionRepo{})

	cookie := svc.SignSessionID("abc123")
	tampered := "zzz999" + cookie[6:]

	if _, ok := svc.VerifySessionCookie(tampered); ok {
		t.Error("tampered cookie should not verify")
	}
	if _, ok := svc.VerifySessionCookie("no-signature-here"); ok {
		t.Error("cookie without signature should not verify")
	}
	if _, ok := svc.VerifySessionCookie(""); ok {
		t.Error("empty cookie should not verify")
	}
}

// 期限切れ・未検出セッションは匿名（nil, nil）として解決されること
func TestService_ResolveCookie_MissingSession_IsAnonymous(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			// ストアは期限切れセッションをnilとして返す
			return nil, nil
		},
	}

	svc := newTestService(&mockOAuthProvider{}, &mockUserRepo{}, &mockIdentityRepo{}, sessionRepo)

	session, err := svc.ResolveCookie(context.Background(), svc.SignSessionID("expired-session"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session != nil {
		t.Error("expected anonymous (nil) session")
	}
}

// ストア障害のみエラーとして伝播すること
func TestService_ResolveCookie_StoreFailure_ReturnsError(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("store unavailable")
		},
	}

	svc := newTestService(&mockOAuthProvider{}, &mockUserRepo{}, &mockIdentityRepo{}, sessionRepo)

	_, err := svc.ResolveCookie(context.Background(), svc.SignSessionID("some-session"))
	if err == nil {
		t.Fatal("expected error")
	}
}
