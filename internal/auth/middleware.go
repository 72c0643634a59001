package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dualog/backend/internal/apikey"
	"github.com/dualog/backend/internal/shared"
	"github.com/dualog/backend/internal/user"
	"github.com/labstack/echo/v4"
)

type contextKey string

const identityKey contextKey = "identity"

// Identity describes the authenticated caller of a request, resolved
// either from a bearer API key or from a browser session cookie.
type Identity struct {
	UserID   string
	APIKeyID string
}

// FromContext returns the identity attached by one of the middlewares,
// or nil when the request is anonymous.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

type Middleware struct {
	keys     *apikey.Store
	sessions *user.SessionManager
	logger   *slog.Logger
}

func NewMiddleware(keys *apikey.Store, sessions *user.SessionManager, logger *slog.Logger) *Middleware {
	return &Middleware{
		keys:     keys,
		sessions: sessions,
		logger:   logger,
	}
}

// APIKey authenticates the request with a bearer API key. Every
// rejection maps to 401 so callers cannot distinguish unknown keys
// from expired ones by status code alone.
func (m *Middleware) APIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key, err := m.keys.Authenticate(c.Request().Context(), c.Request().Header.Get("Authorization"))
		if err != nil {
			return shared.Unauthorized(rejectionMessage(err))
		}

		m.attach(c, &Identity{UserID: key.OwnerID, APIKeyID: key.ID})
		return next(c)
	}
}

// Session authenticates the request with the signed session cookie.
// Mutating methods additionally require the CSRF token header.
func (m *Middleware) Session(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, rec, err := m.sessions.Get(c)
		if err != nil {
			return shared.Unauthorized("authentication required")
		}

		switch c.Request().Method {
		case "GET", "HEAD", "OPTIONS":
		default:
			if err := m.sessions.RequireCSRF(c, rec); err != nil {
				return err
			}
		}

		m.attach(c, &Identity{UserID: rec.UserID})
		return next(c)
	}
}

// SessionOrAPIKey accepts either credential, preferring the bearer
// header when both are present.
func (m *Middleware) SessionOrAPIKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") != "" {
			return m.APIKey(next)(c)
		}
		return m.Session(next)(c)
	}
}

func (m *Middleware) attach(c echo.Context, id *Identity) {
	ctx := context.WithValue(c.Request().Context(), identityKey, id)
	c.SetRequest(c.Request().WithContext(ctx))
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, apikey.ErrMissingHeader):
		return "authorization header required"
	case errors.Is(err, apikey.ErrMalformedScheme):
		return "invalid authorization format, use: Bearer <api_key>"
	case errors.Is(err, apikey.ErrUnrecognizedFormat):
		return "unrecognized API key format"
	case errors.Is(err, apikey.ErrExpiredKey):
		return "API key has expired"
	default:
		return "invalid API key"
	}
}
