package post

import (
	"context"
	"errors"
	"strings"

	"github.com/dualog/backend/internal/shared"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Tag{}, &Post{})
}

// Create persists a post along with its tags. Tag names are normalized
// to lowercase and deduplicated; existing tags are reused.
func (s *Store) Create(ctx context.Context, p *Post, tagNames []string) error {
	tags, err := s.resolveTags(ctx, tagNames)
	if err != nil {
		return err
	}
	p.Tags = tags
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*Post, error) {
	var p Post
	err := s.db.WithContext(ctx).Preload("Tags").Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &p, err
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Post, error) {
	var posts []*Post
	err := s.db.WithContext(ctx).Preload("Tags").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

// ListPublic returns public posts from all authors, newest first.
func (s *Store) ListPublic(ctx context.Context, limit, offset int) ([]*Post, error) {
	var posts []*Post
	err := s.db.WithContext(ctx).Preload("Tags").
		Where("is_public = ?", true).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&posts).Error
	return posts, err
}

// Update saves field changes and, when tagNames is non-nil, replaces
// the post's tag associations.
func (s *Store) Update(ctx context.Context, p *Post, tagNames *[]string) error {
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return err
	}
	if tagNames == nil {
		return nil
	}
	tags, err := s.resolveTags(ctx, *tagNames)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(p).Association("Tags").Replace(tags); err != nil {
		return err
	}
	p.Tags = tags
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Select("Tags").Delete(&Post{ID: id})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Post{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Post{}).Count(&count).Error
	return count, err
}

func (s *Store) resolveTags(ctx context.Context, names []string) ([]Tag, error) {
	seen := make(map[string]bool, len(names))
	tags := make([]Tag, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag Tag
		if err := s.db.WithContext(ctx).Where(Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
