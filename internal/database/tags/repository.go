// Package tags provides database operations for per-user link tags.
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	tags, err := repo.GetOrCreateTags(ctx, userID, []string{"go", "web"})
package tags

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/marked/internal/entities"
)

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreateTag retrieves or creates a tag. Lookup is case-insensitive;
// a new tag keeps the spelling it was first seen with.
func (r *Repository) GetOrCreateTag(ctx context.Context, userID uint, name string) (*entities.Tag, error) {
	name = strings.TrimSpace(name)

	var tag entities.Tag
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?) AND user_id = ?", name, userID).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	tag = entities.Tag{Name: name, UserID: userID}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tag)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		// Lost a race with another import.
		if err := r.db.WithContext(ctx).Where("name = ? AND user_id = ?", name, userID).First(&tag).Error; err != nil {
			return nil, err
		}
	}
	return &tag, nil
}

// GetOrCreateTags resolves every name, skipping blanks.
func (r *Repository) GetOrCreateTags(ctx context.Context, userID uint, names []string) ([]entities.Tag, error) {
	tags := make([]entities.Tag, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		tag, err := r.GetOrCreateTag(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// GetTagsForUser retrieves all tags for a user, alphabetically.
func (r *Repository) GetTagsForUser(ctx context.Context, userID uint) ([]entities.Tag, error) {
	var tags []entities.Tag
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&tags).Error
	return tags, err
}

// SearchTags searches tags by name (case-insensitive partial match).
func (r *Repository) SearchTags(ctx context.Context, userID uint, query string) ([]entities.Tag, error) {
	var tags []entities.Tag
	searchPattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND LOWER(name) LIKE LOWER(?)", userID, searchPattern).
		Order("name ASC").
		Find(&tags).Error
	return tags, err
}

// DeleteOrphanTags removes tags no link instance refers to.
func (r *Repository) DeleteOrphanTags(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id NOT IN (?)", r.db.Table("link_instance_tags").Select("tag_id")).
		Delete(&entities.Tag{})
	return result.RowsAffected, result.Error
}
