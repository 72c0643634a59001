package apikey

import "time"

// SecretPrefix makes dualog credentials recognizable at a glance, e.g. in
// logs or a pasted shell history.
const SecretPrefix = "dualog_sk_"

const (
	redactedHead = 12
	redactedTail = 4
)

type APIKey struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	Secret    string     `gorm:"uniqueIndex;not null" json:"-"`
	OwnerID   string     `gorm:"not null;index" json:"owner_id"`
	Name      string     `gorm:"not null" json:"name"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}

// Redacted returns the display-safe form of the secret: the first 12
// characters, an ellipsis, and the last 4.
func (k *APIKey) Redacted() string {
	if len(k.Secret) <= redactedHead+redactedTail {
		return "****"
	}
	return k.Secret[:redactedHead] + "..." + k.Secret[len(k.Secret)-redactedTail:]
}
