package dto

type SignUpRequest struct {
	Email    string `json:"email" example:"writer@example.com"`
	Password string `json:"password" example:"hunter2hunter2"`
	Name     string `json:"name,omitempty" example:"Morgan Writer"`
}

type SignInRequest struct {
	Email    string `json:"email" example:"writer@example.com"`
	Password string `json:"password" example:"hunter2hunter2"`
}

type MeResponse struct {
	ID        string `json:"id" example:"user_3f2a9c"`
	Email     string `json:"email" example:"writer@example.com"`
	Name      string `json:"name" example:"Morgan Writer"`
	AvatarURL string `json:"avatar_url,omitempty" example:"https://example.com/avatar.png"`
	CreatedAt string `json:"created_at" example:"2024-01-15T10:30:00Z"`
}

type SessionResponse struct {
	SessionID string     `json:"session_id" example:"sess_9ab1f0"`
	CSRFToken string     `json:"csrf_token"`
	User      MeResponse `json:"user"`
}
