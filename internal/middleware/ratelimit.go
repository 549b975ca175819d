package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimitKind はレート制限の種別を表す。
type LimitKind string

const (
	// LimitGeneral はAPI全般のレート制限。
	LimitGeneral LimitKind = "general"
	// LimitImport はURL取り込み専用のレート制限。
	// 外部サイトへのリクエストを伴うため、API全般より厳しく制限する。
	LimitImport LimitKind = "import"
)

// RateLimiterConfig はレート制限の設定を保持する。
// レートはreq/min/userで指定し、内部でreq/secに変換する。
type RateLimiterConfig struct {
	GeneralPerMinute int           // API全般のレート
	ImportPerMinute  int           // URL取り込みのレート
	CleanupInterval  time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralPerMinute: 120,
		ImportPerMinute:  10,
		CleanupInterval:  5 * time.Minute,
	}
}

// limiterKey はユーザーIDと制限種別の組み合わせ。
type limiterKey struct {
	userID string
	kind   LimitKind
}

// userLimiter はユーザーごとのレートリミッターとアクセス時刻を保持する。
type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter はユーザー・種別ごとのレート制限を管理する。
type RateLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[limiterKey]*userLimiter

	stopCh chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[limiterKey]*userLimiter),
		stopCh:   make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Middleware は指定種別のレート制限ミドルウェアを返す。
// リクエストコンテキストにセッションが含まれている必要がある
// （SessionMiddlewareの後に配置すること）。
func (rl *RateLimiter) Middleware(kind LimitKind) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				WriteNotAuthenticated(w)
				return
			}

			limiter := rl.getOrCreateLimiter(userID, kind)

			if !limiter.Allow() {
				writeRateLimitResponse(w, rl.ratePerSecond(kind))
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", string(kind)),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimiterCount は現在管理されているリミッターのエントリ数を返す。
// テストおよびメトリクス用。
func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// ratePerSecond は種別ごとのreq/secレートを返す。
func (rl *RateLimiter) ratePerSecond(kind LimitKind) rate.Limit {
	perMinute := rl.config.GeneralPerMinute
	if kind == LimitImport {
		perMinute = rl.config.ImportPerMinute
	}
	return rate.Limit(float64(perMinute) / 60.0)
}

// burst は種別ごとのバーストサイズを返す。1分あたりの許容数と同じにする。
func (rl *RateLimiter) burst(kind LimitKind) int {
	if kind == LimitImport {
		return rl.config.ImportPerMinute
	}
	return rl.config.GeneralPerMinute
}

// getOrCreateLimiter はユーザー・種別のリミッターを取得または作成する。
func (rl *RateLimiter) getOrCreateLimiter(userID string, kind LimitKind) *rate.Limiter {
	key := limiterKey{userID: userID, kind: kind}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if ul, exists := rl.limiters[key]; exists {
		ul.lastAccess = time.Now()
		return ul.limiter
	}

	limiter := rate.NewLimiter(rl.ratePerSecond(kind), rl.burst(kind))
	rl.limiters[key] = &userLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がCleanupIntervalの2倍を超えたエントリを削除する。
func (rl *RateLimiter) cleanup() {
	ttl := rl.config.CleanupInterval * 2
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.limiters, key)
		}
	}
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":     "rate_limit_exceeded",
		"message":  "Too many requests. Please try again later.",
		"category": "system",
		"action":   "Please wait and retry after the specified time.",
	})
}
