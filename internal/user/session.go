package user

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dualog/backend/internal/shared"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	sessionCookieName = "dualog_session"
	csrfCookieName    = "dualog_csrf"

	// SessionTTL mirrors the 7-day browser session the web app always used.
	SessionTTL = 7 * 24 * time.Hour
)

// SessionRecord is the server-side state behind a browser session cookie.
type SessionRecord struct {
	UserID    string    `json:"user_id"`
	CSRF      string    `json:"csrf"`
	IPAddress string    `json:"ip_address,omitempty"`
	UserAgent string    `json:"user_agent,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionBackend persists session records keyed by session id. Deleting a
// record revokes the session regardless of what cookies a client still holds.
type SessionBackend interface {
	Save(ctx context.Context, id string, rec *SessionRecord, ttl time.Duration) error
	Get(ctx context.Context, id string) (*SessionRecord, error)
	Delete(ctx context.Context, id string) error
}

type RedisBackend struct {
	redis *redis.Client
}

func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{redis: client}
}

func sessionKey(id string) string {
	return "sess:" + id
}

func (b *RedisBackend) Save(ctx context.Context, id string, rec *SessionRecord, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return b.redis.Set(ctx, sessionKey(id), data, ttl).Err()
}

func (b *RedisBackend) Get(ctx context.Context, id string) (*SessionRecord, error) {
	data, err := b.redis.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	return b.redis.Del(ctx, sessionKey(id)).Err()
}

// SessionManager issues and verifies HMAC-signed session cookies whose
// payload is only the session id; everything else lives in the backend.
type SessionManager struct {
	backend SessionBackend
	hmacKey []byte
	secure  bool
	domain  string
}

func NewSessionManager(backend SessionBackend, hmacKey []byte, secure bool, domain string) *SessionManager {
	return &SessionManager{
		backend: backend,
		hmacKey: hmacKey,
		secure:  secure,
		domain:  domain,
	}
}

func (s *SessionManager) Create(c echo.Context, userID string) (sessionID string, rec *SessionRecord, err error) {
	sessionID = shared.NewID("sess_")
	rec = &SessionRecord{
		UserID:    userID,
		CSRF:      s.generateCSRF(),
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		CreatedAt: time.Now().UTC(),
	}

	if err = s.backend.Save(c.Request().Context(), sessionID, rec, SessionTTL); err != nil {
		return "", nil, err
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    s.SignValue(sessionID),
		Path:     "/",
		Domain:   s.domain,
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    rec.CSRF,
		Path:     "/",
		Domain:   s.domain,
		MaxAge:   int(SessionTTL.Seconds()),
		HttpOnly: false,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return sessionID, rec, nil
}

func (s *SessionManager) Get(c echo.Context) (sessionID string, rec *SessionRecord, err error) {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return "", nil, shared.ErrUnauthorized
	}

	sessionID, err = s.VerifyValue(cookie.Value)
	if err != nil {
		return "", nil, shared.ErrUnauthorized
	}

	rec, err = s.backend.Get(c.Request().Context(), sessionID)
	if errors.Is(err, shared.ErrNotFound) {
		return "", nil, shared.ErrUnauthorized
	}
	if err != nil {
		return "", nil, err
	}

	return sessionID, rec, nil
}

func (s *SessionManager) Clear(c echo.Context) error {
	var backendErr error
	if cookie, err := c.Cookie(sessionCookieName); err == nil {
		if id, err := s.VerifyValue(cookie.Value); err == nil {
			backendErr = s.backend.Delete(c.Request().Context(), id)
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	c.SetCookie(&http.Cookie{
		Name:     csrfCookieName,
		Value:    "",
		Path:     "/",
		Domain:   s.domain,
		MaxAge:   -1,
		HttpOnly: false,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return backendErr
}

// RequireCSRF enforces the double-submit check on mutating browser requests.
func (s *SessionManager) RequireCSRF(c echo.Context, rec *SessionRecord) error {
	header := c.Request().Header.Get("X-CSRF-Token")
	if header == "" {
		return shared.Forbidden("missing CSRF token")
	}

	csrfCookie, err := c.Cookie(csrfCookieName)
	if err != nil || csrfCookie.Value == "" {
		return shared.Forbidden("missing CSRF cookie")
	}

	if csrfCookie.Value != header || rec.CSRF != header {
		return shared.Forbidden("invalid CSRF token")
	}

	return nil
}

func (s *SessionManager) SignValue(value string) string {
	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write([]byte(value))
	sig := base64.URLEncoding.EncodeToString(mac.Sum(nil))
	return base64.URLEncoding.EncodeToString([]byte(value)) + "." + sig
}

func (s *SessionManager) VerifyValue(signed string) (string, error) {
	parts := strings.SplitN(signed, ".", 2)
	if len(parts) != 2 {
		return "", errors.New("invalid signature format")
	}

	payload, err := base64.URLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, s.hmacKey)
	mac.Write(payload)
	expectedSig := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(parts[1]), []byte(expectedSig)) {
		return "", errors.New("invalid signature")
	}

	return string(payload), nil
}

func (s *SessionManager) generateCSRF() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return base64.URLEncoding.EncodeToString(b)
}

// GenerateOAuthState binds an optional post-login redirect into a signed
// state value round-tripped through the OAuth provider.
func (s *SessionManager) GenerateOAuthState(redirectURI string) string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}

	state := base64.URLEncoding.EncodeToString(b)
	if redirectURI != "" {
		state += "|" + redirectURI
	}

	return s.SignValue(state)
}

func (s *SessionManager) VerifyOAuthState(state string) (redirectURI string, err error) {
	payload, err := s.VerifyValue(state)
	if err != nil {
		return "", err
	}

	parts := strings.SplitN(payload, "|", 2)
	if len(parts) < 2 {
		return "", nil
	}

	return parts[1], nil
}
