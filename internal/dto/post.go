package dto

type CreatePostRequest struct {
	Title    string   `json:"title" example:"Field notes"`
	Content  string   `json:"content" example:"# Today\nWrote some Go."`
	IsPublic bool     `json:"is_public" example:"false"`
	Tags     []string `json:"tags,omitempty" example:"go,notes"`
}

type UpdatePostRequest struct {
	Title    *string   `json:"title,omitempty"`
	Content  *string   `json:"content,omitempty"`
	IsPublic *bool     `json:"is_public,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

type PostResponse struct {
	ID        string   `json:"id" example:"8f14e45f-ceea-4672-a2f5-97c0a1b2c3d4"`
	Title     string   `json:"title" example:"Field notes"`
	Content   string   `json:"content" example:"# Today\nWrote some Go."`
	IsPublic  bool     `json:"is_public" example:"false"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"created_at" example:"2024-01-15T10:30:00Z"`
	UpdatedAt string   `json:"updated_at" example:"2024-01-15T10:30:00Z"`
}

type PostAuthor struct {
	Name  string `json:"name" example:"Morgan Writer"`
	Email string `json:"email" example:"writer@example.com"`
}

type FeedPostResponse struct {
	PostResponse
	Author PostAuthor `json:"author"`
}

type ListMeta struct {
	Limit  int `json:"limit" example:"10"`
	Offset int `json:"offset" example:"0"`
	Count  int `json:"count" example:"3"`
}

type PostListResponse struct {
	Posts []PostResponse `json:"posts"`
	Meta  ListMeta       `json:"meta"`
}

type FeedListResponse struct {
	Posts []FeedPostResponse `json:"posts"`
	Meta  ListMeta           `json:"meta"`
}
