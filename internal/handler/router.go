package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/recipeman/internal/metrics"
	"github.com/hitoshi/recipeman/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsMiddlewareProvider はHTTPステータス記録ミドルウェアの提供インターフェース。
type MetricsMiddlewareProvider interface {
	Middleware() func(next http.Handler) http.Handler
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	// OAuthEnabledがfalseの場合、/auth/githubと/auth/github/callbackは登録されない
	OAuthEnabled bool

	// ドメインサービス
	RecipeService     RecipeServiceInterface
	IngredientService IngredientServiceInterface

	// ミドルウェア依存
	SessionResolver   middleware.SessionResolver
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	Development       bool
	Logger            *slog.Logger

	// 観測
	Metrics         MetricsMiddlewareProvider
	MetricsGatherer prometheus.Gatherer

	// ヘルスチェック
	DB Pinger

	// ドキュメント生成に使用するポート番号
	Port int
}

// NewRouter は全ルートとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → Metrics → CORS
//
// 保護ルートはさらに Session → RateLimit(General) を通る。
// 認証ルート（/auth/*）とトップページ、ドキュメント類はセッション不要。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(deps.Development))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	recipeHandler := NewRecipeHandler(deps.RecipeService)
	ingredientHandler := NewIngredientHandler(deps.IngredientService)
	userHandler := NewUserHandler()
	staticHandler := NewStaticHandler()
	healthHandler := NewHealthHandler(deps.DB)

	docsHandler, err := NewDocsHandler(deps.Port)
	if err != nil {
		return nil, err
	}

	// 未定義ルートは統一の404レスポンスを返す
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		middleware.WriteNotFound(w)
	})

	// --- 認証不要のルート ---

	r.Get("/", staticHandler.Index)
	r.Get("/health", healthHandler.Health)
	r.Get("/api-docs", docsHandler.UI)
	r.Get("/api-docs.json", docsHandler.Spec)

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	r.Route("/auth", func(r chi.Router) {
		// OAuth未設定時はログインフローを登録しない（ステータス確認とログアウトは常に有効）
		if deps.OAuthEnabled {
			r.Get("/github", authHandler.Login)
			r.Get("/github/callback", authHandler.Callback)
		}
		r.Get("/logout", authHandler.Logout)
		r.Get("/api/auth/status", authHandler.Status)
	})

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionResolver))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware(middleware.LimitGeneral))
		}

		// 保護されたHTMLページ
		r.Get("/recipes", staticHandler.Recipes)

		// ユーザー情報
		r.Get("/api/user/me", userHandler.Me)

		// レシピ管理
		r.Route("/api/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.List)
			r.Post("/", recipeHandler.Create)

			// URL取り込みは外部リクエストを伴うため専用レート制限を追加
			if deps.RateLimiter != nil {
				r.With(deps.RateLimiter.Middleware(middleware.LimitImport)).Post("/import", recipeHandler.Import)
			} else {
				r.Post("/import", recipeHandler.Import)
			}

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recipeHandler.Get)
				r.Put("/", recipeHandler.Update)
				r.Delete("/", recipeHandler.Delete)
			})
		})

		// 材料管理
		r.Route("/api/ingredients", func(r chi.Router) {
			r.Get("/", ingredientHandler.List)
			r.Post("/", ingredientHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ingredientHandler.Get)
				r.Put("/", ingredientHandler.Update)
				r.Delete("/", ingredientHandler.Delete)
			})
		})
	})

	return r, nil
}
