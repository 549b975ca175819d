// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 初回ログイン時にプロバイダープロフィールから自動作成される。
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
// 現状はGitHubのみだが、複数のIdPに対応可能な構造。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// Profileにはプロバイダーから受け取ったプロフィールをそのまま保持する。
// セッションにProfileが紐付いていることが認証済みの条件であり、
// Profileの個々のフィールドの妥当性は問わない。
type Session struct {
	ID        string
	UserID    string
	Profile   *Profile
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Authenticated はセッションがIdentityに紐付いているかを返す。
func (s *Session) Authenticated() bool {
	return s != nil && s.Profile != nil
}
