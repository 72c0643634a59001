package apikey

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dualog/backend/internal/shared"
	"gorm.io/gorm"
)

// Rejection reasons returned by Authenticate. Handlers surface the message
// for diagnostics but map every one of them to a 401; nothing here reveals
// whether a candidate token came close to a real key.
var (
	ErrMissingHeader      = errors.New("missing Authorization header")
	ErrMalformedScheme    = errors.New("invalid authorization format, use: Bearer <api_key>")
	ErrUnrecognizedFormat = errors.New("invalid API key format, keys start with " + SecretPrefix)
	ErrInvalidKey         = errors.New("invalid API key")
	ErrExpiredKey         = errors.New("API key has expired")
)

// createAttempts bounds the retry loop on a secret collision. With 128 bits
// of randomness a single retry should never happen in practice.
const createAttempts = 3

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&APIKey{})
}

// Create persists a new key and returns the plaintext secret. This is the
// only place the plaintext ever leaves the package; every later read goes
// through Redacted.
func (s *Store) Create(ctx context.Context, key *APIKey) (secret string, err error) {
	if key.ID == "" {
		key.ID = shared.NewID("key_")
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		secret, err = generateSecret()
		if err != nil {
			return "", err
		}
		key.Secret = secret

		err = s.db.WithContext(ctx).Create(key).Error
		if err == nil {
			return secret, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", err
		}
	}

	return "", fmt.Errorf("secret collision persisted after %d attempts: %w", createAttempts, err)
}

// Authenticate resolves a raw Authorization header value to the owning key.
// Cheap shape checks run before any storage round trip.
func (s *Store) Authenticate(ctx context.Context, authorization string) (*APIKey, error) {
	if authorization == "" {
		return nil, ErrMissingHeader
	}

	token, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok {
		return nil, ErrMalformedScheme
	}

	if !strings.HasPrefix(token, SecretPrefix) {
		return nil, ErrUnrecognizedFormat
	}

	var key APIKey
	err := s.db.WithContext(ctx).Where("secret = ?", token).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidKey
	}
	if err != nil {
		return nil, err
	}

	// Re-check the indexed match in constant time before trusting it.
	if subtle.ConstantTimeCompare([]byte(key.Secret), []byte(token)) != 1 {
		return nil, ErrInvalidKey
	}

	if key.IsExpired() {
		return nil, ErrExpiredKey
	}

	go s.touch(key.ID)

	return &key, nil
}

// touch records the use asynchronously; the field is advisory telemetry and
// a lost update never fails authentication.
func (s *Store) touch(id string) {
	err := s.db.Model(&APIKey{}).Where("id = ?", id).Update("last_used", time.Now()).Error
	if err != nil {
		s.logger.Warn("failed to record api key use", "error", err, "key_id", id)
	}
}

func (s *Store) GetByID(ctx context.Context, id string) (*APIKey, error) {
	var key APIKey
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &key, err
}

func (s *Store) GetByOwner(ctx context.Context, ownerID string) ([]*APIKey, error) {
	var keys []*APIKey
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at").Find(&keys).Error
	return keys, err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&APIKey{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByOwner(ctx context.Context, ownerID string) error {
	return s.db.WithContext(ctx).Delete(&APIKey{}, "owner_id = ?", ownerID).Error
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&APIKey{}).Count(&n).Error
	return n, err
}

func generateSecret() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return SecretPrefix + hex.EncodeToString(b), nil
}
