package apikey

import (
	"testing"
	"time"
)

func TestAPIKey_Redacted(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		want   string
	}{
		{"typical key", "dualog_sk_abcdef1234567890wxyz", "dualog_sk_ab...wxyz"},
		{"generated-length key", "dualog_sk_0123456789abcdef0123456789abcdef", "dualog_sk_01...cdef"},
		{"too short to redact", "dualog_sk_abc", "****"},
		{"empty", "", "****"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &APIKey{Secret: tt.secret}
			if got := k.Redacted(); got != tt.want {
				t.Errorf("Redacted() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKey_IsExpired(t *testing.T) {
	if (&APIKey{}).IsExpired() {
		t.Error("key without expiry must never expire")
	}

	future := time.Now().Add(time.Hour)
	if (&APIKey{ExpiresAt: &future}).IsExpired() {
		t.Error("key expiring in the future is not expired")
	}

	past := time.Now().Add(-time.Hour)
	if !(&APIKey{ExpiresAt: &past}).IsExpired() {
		t.Error("key with past expiry must be expired")
	}
}
