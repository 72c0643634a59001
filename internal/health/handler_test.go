package health

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dualog/backend/internal/apikey"
	"github.com/dualog/backend/internal/post"
	"github.com/dualog/backend/internal/user"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestHandler(t *testing.T) (*Handler, *user.Store, *post.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := user.NewStore(db)
	posts := post.NewStore(db)
	keys := apikey.NewStore(db, log)
	for _, m := range []func() error{users.Migrate, posts.Migrate, keys.Migrate} {
		if err := m(); err != nil {
			t.Fatalf("migrate: %v", err)
		}
	}

	return NewHandler(db, nil, users, posts, keys, "test"), users, posts
}

func TestLiveness(t *testing.T) {
	h, _, _ := newTestHandler(t)
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	if err := h.Liveness(c); err != nil {
		t.Fatalf("Liveness() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadiness_RedisDownIsUnhealthy(t *testing.T) {
	h, users, posts := newTestHandler(t)
	e := echo.New()
	ctx := context.Background()

	u := &user.User{Email: "a@example.com", Name: "a", Provider: user.ProviderLocal}
	if err := users.Create(ctx, u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := posts.Create(ctx, &post.Post{OwnerID: u.ID, Title: "t", Content: "c"}, nil); err != nil {
		t.Fatalf("seed post: %v", err)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("Readiness() error = %v", err)
	}

	// Redis is a critical component and is not configured here.
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", resp.Status)
	}
	if resp.Components["database"].Status != StatusHealthy {
		t.Errorf("database = %+v, want healthy", resp.Components["database"])
	}
	if resp.Components["redis"].Status != StatusUnhealthy {
		t.Errorf("redis = %+v, want unhealthy", resp.Components["redis"])
	}
	if resp.Stats.Entities.Users != 1 || resp.Stats.Entities.Posts != 1 {
		t.Errorf("entities = %+v, want 1 user and 1 post", resp.Stats.Entities)
	}
}

func TestRequestCounters(t *testing.T) {
	h, _, _ := newTestHandler(t)

	h.IncrementRequests()
	h.IncrementRequests()
	h.IncrementConnections()
	h.IncrementConnections()
	h.DecrementConnections()

	if h.totalRequests != 2 {
		t.Errorf("totalRequests = %d, want 2", h.totalRequests)
	}
	if h.activeConnections != 1 {
		t.Errorf("activeConnections = %d, want 1", h.activeConnections)
	}
}
