// Package config は環境変数からのアプリケーション設定読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// 環境モードの値。
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// GitHub OAuth（未設定の場合は認証機能を無効化して起動する）
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// Session
	SessionSecret string
	SessionMaxAge int

	// Server
	ServerPort string
	AppEnv     string

	// Cookie
	CookieDomain string

	// CORS
	CORSAllowedOrigin string

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitImport  int
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envファイルがあれば先に読み込む（存在しなくてもエラーにしない）。
// DATABASE_URLとSESSION_SECRETは必須で、未設定の場合はエラーを返す。
// GitHub OAuthの3変数は任意で、欠けている場合は認証機能だけが無効になる。
func Load() (*Config, error) {
	// .envは開発用の補助。未配置は正常系。
	_ = godotenv.Load()

	cfg := &Config{}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	if cfg.SessionSecret == "" {
		missing = append(missing, "SESSION_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// OAuth変数は必須にしない。欠落時はGitHubOAuthEnabledがfalseを返し、
	// 認証ルートが登録されないだけでプロセスは起動する。
	cfg.GitHubClientID = os.Getenv("GITHUB_CLIENT_ID")
	cfg.GitHubClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	cfg.GitHubCallbackURL = os.Getenv("GITHUB_CALLBACK_URL")

	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.ServerPort = getEnvString("PORT", "3000")
	cfg.AppEnv = getEnvString("APP_ENV", EnvDevelopment)
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitImport = getEnvInt("RATE_LIMIT_IMPORT", 10)

	return cfg, nil
}

// GitHubOAuthEnabled はGitHub OAuthに必要な3変数がすべて設定されているかを返す。
func (c *Config) GitHubOAuthEnabled() bool {
	return c.GitHubClientID != "" && c.GitHubClientSecret != "" && c.GitHubCallbackURL != ""
}

// MissingOAuthVars は未設定のGitHub OAuth環境変数名の一覧を返す。
// 起動時診断ログ用。
func (c *Config) MissingOAuthVars() []string {
	var missing []string
	if c.GitHubClientID == "" {
		missing = append(missing, "GITHUB_CLIENT_ID")
	}
	if c.GitHubClientSecret == "" {
		missing = append(missing, "GITHUB_CLIENT_SECRET")
	}
	if c.GitHubCallbackURL == "" {
		missing = append(missing, "GITHUB_CALLBACK_URL")
	}
	return missing
}

// IsDevelopment は開発モードで動作しているかを返す。
func (c *Config) IsDevelopment() bool {
	return c.AppEnv != EnvProduction
}

// CookieSecure はセッションCookieにSecure属性を付けるべきかを返す。
// 本番モードのみtrue。
func (c *Config) CookieSecure() bool {
	return c.AppEnv == EnvProduction
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}
