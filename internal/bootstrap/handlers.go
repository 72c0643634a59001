package bootstrap

import (
	"log/slog"
	"os"

	_ "github.com/dualog/backend/docs"
	"github.com/dualog/backend/internal/apikey"
	"github.com/dualog/backend/internal/auth"
	"github.com/dualog/backend/internal/markdown"
	"github.com/dualog/backend/internal/post"
	"github.com/dualog/backend/internal/user"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideProviders(cfg *Config) user.Providers {
	var ps []user.Provider
	if g := user.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL); g != nil {
		ps = append(ps, g)
	}
	if gh := user.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL); gh != nil {
		ps = append(ps, gh)
	}
	return user.NewProviders(ps...)
}

func ProvideAuthMiddleware(keys *apikey.Store, sessions *user.SessionManager, logger *slog.Logger) *auth.Middleware {
	return auth.NewMiddleware(keys, sessions, logger.With("middleware", "auth"))
}

func ProvideUserHandler(store *user.Store, sessions *user.SessionManager, providers user.Providers, logger *slog.Logger) *user.Handler {
	return user.NewHandler(store, sessions, providers, logger.With("handler", "user"))
}

func ProvideAPIKeyHandler(store *apikey.Store, sessions *user.SessionManager, logger *slog.Logger) *apikey.Handler {
	return apikey.NewHandler(store, sessions, logger.With("handler", "apikey"))
}

func ProvidePostHandler(store *post.Store, userStore *user.Store, logger *slog.Logger) *post.Handler {
	return post.NewHandler(store, userStore, logger.With("handler", "post"))
}

func ProvideMarkdownHandler(logger *slog.Logger) *markdown.Handler {
	return markdown.NewHandler(markdown.NewRenderer(), logger.With("handler", "markdown"))
}

type HandlerParams struct {
	fx.In

	UserHandler     *user.Handler
	APIKeyHandler   *apikey.Handler
	PostHandler     *post.Handler
	MarkdownHandler *markdown.Handler
	AuthMiddleware  *auth.Middleware
	Config          *Config
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/api")

	params.UserHandler.RegisterRoutes(api.Group("/auth"))
	params.APIKeyHandler.RegisterRoutes(api.Group("/api-keys"))
	params.PostHandler.RegisterRoutes(api, params.AuthMiddleware)
	params.MarkdownHandler.RegisterRoutes(api, params.AuthMiddleware)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandler())

	e.Static("/assets", params.Config.StaticDir)
	e.GET("/*", func(c echo.Context) error {
		return c.File(params.Config.IndexHTML)
	})
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideProviders,
		ProvideAuthMiddleware,
		ProvideUserHandler,
		ProvideAPIKeyHandler,
		ProvidePostHandler,
		ProvideMarkdownHandler,
	),
	fx.Invoke(RegisterRoutes),
)
