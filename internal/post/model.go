package post

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID      string `gorm:"primaryKey" json:"id"`
	OwnerID string `gorm:"not null;index" json:"owner_id"`

	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"not null" json:"content"`
	IsPublic bool   `gorm:"default:false;index" json:"is_public"`

	Tags []Tag `gorm:"many2many:post_tags" json:"tags"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// TagNames flattens the attached tags for API responses.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}
