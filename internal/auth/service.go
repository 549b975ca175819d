// Package auth はOAuth認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/recipeman/internal/model"
	"github.com/hitoshi/recipeman/internal/repository"
)

// OAuthProfile はOAuthプロバイダーから取得したユーザープロフィールを表す。
// Rawにはプロバイダーのレスポンス全体を無加工で保持する。
type OAuthProfile struct {
	ProviderUserID string
	Username       string
	DisplayName    string
	Email          string
	Provider       string
	Raw            map[string]json.RawMessage
}

// OAuthProvider はOAuth認証プロバイダーのインターフェース。
// 現状はGitHubのみだが、複数IdPに対応するための抽象化。
type OAuthProvider interface {
	// GetLoginURL はOAuth認可URLを生成する。
	GetLoginURL(state string) string
	// ExchangeCode は認可コードをトークンに交換し、プロフィールを取得する。
	ExchangeCode(ctx context.Context, code string) (*OAuthProfile, error)
}

// MetricsRecorder は認証まわりのメトリクス記録のインターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordLoginSuccess()
	RecordLoginFailure()
	RecordSessionLookup(result string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int    // セッション有効期間（秒）
	SessionSecret string // Cookie署名用シークレット
}

// Service は認証に関するビジネスロジックを提供する。
// OAuthハンドシェイク、セッションの発行・解決・破棄のライフサイクルを統括する。
type Service struct {
	oauth       OAuthProvider
	userRepo    repository.UserRepository
	identRepo   repository.IdentityRepository
	sessionRepo repository.SessionRepository
	metrics     MetricsRecorder
	config      ServiceConfig
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(
	oauth OAuthProvider,
	userRepo repository.UserRepository,
	identRepo repository.IdentityRepository,
	sessionRepo repository.SessionRepository,
	metrics MetricsRecorder,
	config ServiceConfig,
) *Service {
	return &Service{
		oauth:       oauth,
		userRepo:    userRepo,
		identRepo:   identRepo,
		sessionRepo: sessionRepo,
		metrics:     metrics,
		config:      config,
	}
}

// GetLoginURL はOAuth認可URLを生成する。
func (s *Service) GetLoginURL(state string) string {
	return s.oauth.GetLoginURL(state)
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 未登録ユーザーの場合はusersレコードとidentitiesレコードを同時に自動作成する。
// セッションにはプロバイダープロフィールが無加工のまま紐付けられる。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	oauthProfile, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		s.recordLoginFailure()
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	identity, err := s.identRepo.FindByProviderAndProviderUserID(ctx, oauthProfile.Provider, oauthProfile.ProviderUserID)
	if err != nil {
		s.recordLoginFailure()
		return nil, fmt.Errorf("failed to find identity: %w", err)
	}

	var userID string

	if identity != nil {
		userID = identity.UserID
		slog.Info("existing user logged in",
			slog.String("user_id", userID),
			slog.String("provider", oauthProfile.Provider),
		)
	} else {
		newUserID := uuid.New().String()
		now := time.Now()

		newUser := &model.User{
			ID:        newUserID,
			Email:     oauthProfile.Email,
			Name:      oauthProfile.DisplayName,
			CreatedAt: now,
			UpdatedAt: now,
		}

		newIdentity := &model.Identity{
			ID:             uuid.New().String(),
			UserID:         newUserID,
			Provider:       oauthProfile.Provider,
			ProviderUserID: oauthProfile.ProviderUserID,
			CreatedAt:      now,
		}

		if err := s.userRepo.CreateWithIdentity(ctx, newUser, newIdentity); err != nil {
			s.recordLoginFailure()
			return nil, fmt.Errorf("failed to create user and identity: %w", err)
		}

		userID = newUserID
		slog.Info("new user created",
			slog.String("user_id", userID),
			slog.String("provider", oauthProfile.Provider),
		)
	}

	session, err := s.createSession(ctx, userID, oauthProfile)
	if err != nil {
		s.recordLoginFailure()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.recordLoginSuccess()
	return session, nil
}

// Logout はセッションを破棄する。
// ベストエフォルト契約: ストア側の削除が失敗してもエラーは返さずログに記録するだけにする。
// 呼び出し側は常にCookieをクリアしてリダイレクトする。
// 空のセッションID（すでにログアウト済み）は何もせず成功として扱う。
func (s *Service) Logout(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		slog.Error("failed to delete session on logout",
			slog.String("error", err.Error()),
		)
		return
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
}

// ResolveCookie はCookie値からセッションを解決する。
// 署名不正・未検出・期限切れはすべて匿名（nil, nilエラー）として扱い、
// ストア障害のみエラーを返す。
func (s *Service) ResolveCookie(ctx context.Context, cookieValue string) (*model.Session, error) {
	sessionID, ok := s.VerifySessionCookie(cookieValue)
	if !ok {
		s.recordSessionLookup("invalid_signature")
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		s.recordSessionLookup("error")
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		s.recordSessionLookup("miss")
		return nil, nil
	}

	s.recordSessionLookup("hit")
	return session, nil
}

// SignSessionID はセッションIDにHMAC-SHA256署名を付けたCookie値を生成する。
// セッションシークレットによる署名で改ざんを検知可能にする。
func (s *Service) SignSessionID(sessionID string) string {
	return sessionID + "." + s.computeSignature(sessionID)
}

// VerifySessionCookie はCookie値の署名を検証し、セッションIDを取り出す。
// 署名が一致しない場合はfalseを返す。
func (s *Service) VerifySessionCookie(cookieValue string) (string, bool) {
	sessionID, signature, found := strings.Cut(cookieValue, ".")
	if !found || sessionID == "" {
		return "", false
	}

	expected := s.computeSignature(sessionID)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}

	return sessionID, true
}

// CleanupExpiredSessions は期限切れセッションをストアから削除する。
func (s *Service) CleanupExpiredSessions(ctx context.Context) error {
	deleted, err := s.sessionRepo.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}
	if deleted > 0 {
		slog.Info("expired sessions cleaned up", slog.Int64("deleted", deleted))
	}
	return nil
}

// createSession はプロフィールを紐付けたセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string, oauthProfile *OAuthProfile) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	profile := &model.Profile{
		Username:    oauthProfile.Username,
		DisplayName: oauthProfile.DisplayName,
		Extra:       oauthProfile.Raw,
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		Profile:   profile,
		ExpiresAt: time.Now().Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// computeSignature はセッションIDのHMAC-SHA256署名を計算する。
func (s *Service) computeSignature(sessionID string) string {
	mac := hmac.New(sha256.New, []byte(s.config.SessionSecret))
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Service) recordLoginSuccess() {
	if s.metrics != nil {
		s.metrics.RecordLoginSuccess()
	}
}

func (s *Service) recordLoginFailure() {
	if s.metrics != nil {
		s.metrics.RecordLoginFailure()
	}
}

func (s *Service) recordSessionLookup(result string) {
	if s.metrics != nil {
		s.metrics.RecordSessionLookup(result)
	}
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
