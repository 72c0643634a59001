package bootstrap

import (
	"log/slog"

	"github.com/dualog/backend/internal/apikey"
	"github.com/dualog/backend/internal/post"
	"github.com/dualog/backend/internal/user"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserStore(db *gorm.DB) *user.Store {
	return user.NewStore(db)
}

func ProvideAPIKeyStore(db *gorm.DB, logger *slog.Logger) *apikey.Store {
	return apikey.NewStore(db, logger.With("store", "apikey"))
}

func ProvidePostStore(db *gorm.DB) *post.Store {
	return post.NewStore(db)
}

func ProvideSessionBackend(redisClient *redis.Client) user.SessionBackend {
	return user.NewRedisBackend(redisClient)
}

func ProvideSessionManager(backend user.SessionBackend, cfg *Config) *user.SessionManager {
	return user.NewSessionManager(backend, cfg.HMACKey, cfg.CookieSecure, cfg.CookieDomain)
}

func RunMigrations(userStore *user.Store, apiKeyStore *apikey.Store, postStore *post.Store) error {
	if err := userStore.Migrate(); err != nil {
		return err
	}
	if err := apiKeyStore.Migrate(); err != nil {
		return err
	}
	return postStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideUserStore,
		ProvideAPIKeyStore,
		ProvidePostStore,
		ProvideSessionBackend,
		ProvideSessionManager,
	),
	fx.Invoke(RunMigrations),
)
