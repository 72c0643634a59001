package user

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dualog/backend/internal/dto"
	"github.com/dualog/backend/internal/shared"
	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) (*Handler, *Store) {
	db := setupTestDB(t)
	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sm, _ := newTestSessionManager()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(store, sm, NewProviders(), logger), store
}

func postJSON(e *echo.Echo, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_SignUp(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	c, rec := postJSON(e, "/auth/sign-up", `{"email":"Writer@Example.com","password":"longenough"}`)
	if err := h.SignUp(c); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp dto.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.User.Email != "writer@example.com" {
		t.Errorf("email = %q, want normalized lowercase", resp.User.Email)
	}
	if resp.User.Name != "writer" {
		t.Errorf("name = %q, want default from email local part", resp.User.Name)
	}
	if resp.CSRFToken == "" {
		t.Error("expected csrf token in response")
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected session cookies to be set")
	}
}

func TestHandler_SignUp_Validation(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	tests := []struct {
		name string
		body string
		code string
	}{
		{"bad email", `{"email":"not-an-email","password":"longenough"}`, "INVALID_EMAIL"},
		{"short password", `{"email":"a@example.com","password":"short"}`, "INVALID_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := postJSON(e, "/auth/sign-up", tt.body)
			err := h.SignUp(c)
			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", httpErr.Code)
			}
			env := httpErr.Message.(shared.ErrorEnvelope)
			if env.Error.Code != tt.code {
				t.Errorf("code = %q, want %q", env.Error.Code, tt.code)
			}
		})
	}
}

func TestHandler_SignUp_DuplicateEmail(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	c, _ := postJSON(e, "/auth/sign-up", `{"email":"dup@example.com","password":"longenough"}`)
	if err := h.SignUp(c); err != nil {
		t.Fatalf("first SignUp() error = %v", err)
	}

	c2, _ := postJSON(e, "/auth/sign-up", `{"email":"dup@example.com","password":"longenough"}`)
	err := h.SignUp(c2)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", httpErr.Code, http.StatusConflict)
	}
}

func TestHandler_SignIn(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	c, _ := postJSON(e, "/auth/sign-up", `{"email":"login@example.com","password":"longenough","name":"Login"}`)
	if err := h.SignUp(c); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	c2, rec := postJSON(e, "/auth/sign-in", `{"email":"login@example.com","password":"longenough"}`)
	if err := h.SignIn(c2); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	c3, _ := postJSON(e, "/auth/sign-in", `{"email":"login@example.com","password":"wrongpassword"}`)
	err := h.SignIn(c3)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %v, want 401", err)
	}

	c4, _ := postJSON(e, "/auth/sign-in", `{"email":"nobody@example.com","password":"longenough"}`)
	err = h.SignIn(c4)
	httpErr, ok = err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("unknown email: got %v, want 401", err)
	}
}

func TestHandler_SessionAndMe(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	c, rec := postJSON(e, "/auth/sign-up", `{"email":"sess@example.com","password":"longenough"}`)
	if err := h.SignUp(c); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, ck := range rec.Result().Cookies() {
		req.AddCookie(ck)
	}
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req, rec2)

	if err := h.Me(c2); err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	var me dto.MeResponse
	if err := json.Unmarshal(rec2.Body.Bytes(), &me); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if me.Email != "sess@example.com" {
		t.Errorf("email = %q", me.Email)
	}
}

func TestHandler_Me_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.Me(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("got %v, want 401", err)
	}
}

func TestHandler_OAuthLogin_UnknownProvider(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/auth/nope/login", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("provider")
	c.SetParamValues("nope")

	err := h.OAuthLogin(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("got %v, want 404", err)
	}
}
