// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// 認証サービスとHTTPミドルウェアから利用する。
type Collector struct {
	httpStatus     *prometheus.CounterVec
	loginSuccess   prometheus.Counter
	loginFailure   prometheus.Counter
	sessionLookup  *prometheus.CounterVec
	recipesCreated prometheus.Counter
	importAttempts *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipeman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipeman_login_success_total",
			Help: "GitHubログイン成功の合計数",
		}),
		loginFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipeman_login_failure_total",
			Help: "GitHubログイン失敗の合計数",
		}),
		sessionLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipeman_session_lookup_total",
			Help: "セッション解決の結果別合計数",
		}, []string{"result"}),
		recipesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipeman_recipes_created_total",
			Help: "作成されたレシピの合計数",
		}),
		importAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipeman_import_attempts_total",
			Help: "URL取り込み試行の結果別合計数",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.loginSuccess,
		c.loginFailure,
		c.sessionLookup,
		c.recipesCreated,
		c.importAttempts,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を記録する。
func (c *Collector) RecordLoginFailure() {
	c.loginFailure.Inc()
}

// RecordSessionLookup はセッション解決の結果を記録する。
// resultは "hit" / "miss" / "error" のいずれか。
func (c *Collector) RecordSessionLookup(result string) {
	c.sessionLookup.WithLabelValues(result).Inc()
}

// RecordRecipeCreated はレシピ作成を記録する。
func (c *Collector) RecordRecipeCreated() {
	c.recipesCreated.Inc()
}

// RecordImportAttempt はURL取り込み試行の結果を記録する。
// resultは "success" / "blocked" / "failure" のいずれか。
func (c *Collector) RecordImportAttempt(result string) {
	c.importAttempts.WithLabelValues(result).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを取得する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// Middleware は全レスポンスのステータスコードを記録するHTTPミドルウェアを返す。
func (c *Collector) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)
			c.RecordHTTPStatus(rec.statusCode)
		})
	}
}
