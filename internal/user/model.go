package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ProviderLocal marks accounts registered with email and password.
const ProviderLocal = "local"

type User struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	Name          string    `gorm:"not null" json:"name"`
	EmailVerified bool      `gorm:"not null;default:false" json:"email_verified"`
	PasswordHash  string    `json:"-"`
	Provider      string    `gorm:"not null;index:idx_provider_sub,unique" json:"provider"`
	ProviderSub   string    `gorm:"not null;index:idx_provider_sub,unique" json:"-"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(plaintext string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}
