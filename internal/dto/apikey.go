package dto

type CreateAPIKeyRequest struct {
	Name string `json:"name" example:"My Claude Agent"`
	// ExpiresIn is a lifetime in seconds; omitted means the key never expires.
	ExpiresIn *int64 `json:"expires_in,omitempty" example:"2592000"`
}

type APIKeyResponse struct {
	ID        string  `json:"id" example:"key_abc123"`
	Name      string  `json:"name" example:"My Claude Agent"`
	Key       string  `json:"key" example:"dualog_sk_ab...89ef"`
	LastUsed  *string `json:"last_used" example:"2024-01-20T15:45:00Z"`
	CreatedAt string  `json:"created_at" example:"2024-01-15T10:30:00Z"`
	ExpiresAt *string `json:"expires_at" example:"2024-12-31T23:59:59Z"`
}

type APIKeyListResponse struct {
	APIKeys []APIKeyResponse `json:"api_keys"`
}

type DeleteAPIKeyResponse struct {
	Message string `json:"message" example:"API key deleted successfully"`
}
