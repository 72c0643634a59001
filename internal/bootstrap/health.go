package bootstrap

import (
	"github.com/dualog/backend/internal/apikey"
	"github.com/dualog/backend/internal/health"
	"github.com/dualog/backend/internal/post"
	"github.com/dualog/backend/internal/user"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "1.0.0"

func ProvideHealthHandler(
	db *gorm.DB,
	redisClient *redis.Client,
	userStore *user.Store,
	postStore *post.Store,
	apiKeyStore *apikey.Store,
) *health.Handler {
	return health.NewHandler(
		db,
		redisClient,
		userStore,
		postStore,
		apiKeyStore,
		version,
	)
}

func metricsMiddleware(h *health.Handler) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h.IncrementRequests()
			h.IncrementConnections()
			defer h.DecrementConnections()
			return next(c)
		}
	}
}

func RegisterHealthRoutes(e *echo.Echo, h *health.Handler) {
	e.Use(metricsMiddleware(h))
	h.RegisterRoutes(e)
}

var HealthModule = fx.Options(
	fx.Provide(ProvideHealthHandler),
	fx.Invoke(RegisterHealthRoutes),
)
