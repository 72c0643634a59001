package auth

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dualog/backend/internal/apikey"
	"github.com/dualog/backend/internal/shared"
	"github.com/dualog/backend/internal/user"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type memoryBackend struct {
	recs map[string]*user.SessionRecord
}

func (b *memoryBackend) Save(_ context.Context, id string, rec *user.SessionRecord, _ time.Duration) error {
	b.recs[id] = rec
	return nil
}

func (b *memoryBackend) Get(_ context.Context, id string) (*user.SessionRecord, error) {
	rec, ok := b.recs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return rec, nil
}

func (b *memoryBackend) Delete(_ context.Context, id string) error {
	delete(b.recs, id)
	return nil
}

func newTestMiddleware(t *testing.T) (*Middleware, *apikey.Store, *user.SessionManager) {
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
	keys := apikey.NewStore(db, log)
	if err := keys.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sessions := user.NewSessionManager(&memoryBackend{recs: make(map[string]*user.SessionRecord)}, []byte("test-key"), false, "")
	return NewMiddleware(keys, sessions, log), keys, sessions
}

func echoHandler(got **Identity) echo.HandlerFunc {
	return func(c echo.Context) error {
		*got = FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}
}

func TestAPIKey_ValidKey(t *testing.T) {
	mw, keys, _ := newTestMiddleware(t)

	key := &apikey.APIKey{OwnerID: "user_1", Name: "agent"}
	secret, err := keys.Create(context.Background(), key)
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	rec := httptest.NewRecorder()

	var got *Identity
	if err := mw.APIKey(echoHandler(&got))(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware error = %v", err)
	}
	if got == nil {
		t.Fatal("identity missing from request context")
	}
	if got.UserID != "user_1" || got.APIKeyID != key.ID {
		t.Errorf("identity = %+v, want owner user_1 and key %s", got, key.ID)
	}
}

func TestAPIKey_Rejections(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)
	e := echo.New()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"not an api key", "Bearer not_a_real_key"},
		{"unknown key", "Bearer dualog_sk_00000000000000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			var got *Identity
			err := mw.APIKey(echoHandler(&got))(e.NewContext(req, rec))
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", httpErr.Code)
			}
			env := httpErr.Message.(shared.ErrorEnvelope)
			if env.Error.Code != "UNAUTHORIZED" {
				t.Errorf("code = %q, want UNAUTHORIZED", env.Error.Code)
			}
			if got != nil {
				t.Error("handler must not run on rejection")
			}
		})
	}
}

func TestAPIKey_RejectionEnvelope(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not_a_real_key")
	rec := httptest.NewRecorder()

	var got *Identity
	err := mw.APIKey(echoHandler(&got))(e.NewContext(req, rec))
	httpErr := err.(*echo.HTTPError)

	body, _ := json.Marshal(httpErr.Message)
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Error.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", envelope.Error.Code)
	}
	if envelope.Error.Message == "" {
		t.Error("rejection must carry a diagnostic message")
	}
}

func TestSession_ValidCookie(t *testing.T) {
	mw, _, sessions := newTestMiddleware(t)
	e := echo.New()

	setup := httptest.NewRecorder()
	_, _, err := sessions.Create(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), setup), "user_42")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range setup.Result().Cookies() {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()

	var got *Identity
	if err := mw.Session(echoHandler(&got))(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware error = %v", err)
	}
	if got == nil || got.UserID != "user_42" {
		t.Errorf("identity = %+v, want user_42", got)
	}
	if got != nil && got.APIKeyID != "" {
		t.Error("session identity must not carry an API key id")
	}
}

func TestSession_MutationRequiresCSRF(t *testing.T) {
	mw, _, sessions := newTestMiddleware(t)
	e := echo.New()

	setup := httptest.NewRecorder()
	_, sessRec, err := sessions.Create(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), setup), "user_42")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Without the token header the mutation is forbidden.
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, ck := range setup.Result().Cookies() {
		req.AddCookie(ck)
	}
	var got *Identity
	err = mw.Session(echoHandler(&got))(e.NewContext(req, httptest.NewRecorder()))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("got %v, want 403", err)
	}

	// With it the request goes through.
	req2 := httptest.NewRequest(http.MethodPost, "/", nil)
	for _, ck := range setup.Result().Cookies() {
		req2.AddCookie(ck)
	}
	req2.Header.Set("X-CSRF-Token", sessRec.CSRF)
	if err := mw.Session(echoHandler(&got))(e.NewContext(req2, httptest.NewRecorder())); err != nil {
		t.Fatalf("middleware error = %v", err)
	}
}

func TestSession_NoCookie(t *testing.T) {
	mw, _, _ := newTestMiddleware(t)
	e := echo.New()

	var got *Identity
	err := mw.Session(echoHandler(&got))(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("got %v, want 401", err)
	}
}

func TestSessionOrAPIKey(t *testing.T) {
	mw, keys, sessions := newTestMiddleware(t)
	e := echo.New()

	secret, err := keys.Create(context.Background(), &apikey.APIKey{OwnerID: "user_key", Name: "agent"})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	setup := httptest.NewRecorder()
	if _, _, err := sessions.Create(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), setup), "user_cookie"); err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Bearer header wins even when a session cookie is also present.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+secret)
	for _, ck := range setup.Result().Cookies() {
		req.AddCookie(ck)
	}
	var got *Identity
	if err := mw.SessionOrAPIKey(echoHandler(&got))(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("middleware error = %v", err)
	}
	if got == nil || got.UserID != "user_key" {
		t.Errorf("identity = %+v, want user_key via bearer header", got)
	}

	// Cookie alone also works.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range setup.Result().Cookies() {
		req2.AddCookie(ck)
	}
	if err := mw.SessionOrAPIKey(echoHandler(&got))(e.NewContext(req2, httptest.NewRecorder())); err != nil {
		t.Fatalf("middleware error = %v", err)
	}
	if got == nil || got.UserID != "user_cookie" {
		t.Errorf("identity = %+v, want user_cookie via session", got)
	}

	// Neither credential is a 401.
	err = mw.SessionOrAPIKey(echoHandler(&got))(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder()))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("got %v, want 401", err)
	}
}
