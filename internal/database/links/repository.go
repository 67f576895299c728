// Package links provides database operations for canonical links and the
// per-user instances that point at them.
//
// LinkCanonical rows are shared by every user and only ever inserted;
// LinkInstance rows belong to one user and are unique per
// (user, canonical, folder).
//
// # Usage
//
//	repo := links.NewRepository(db)
//	canonicalID, err := repo.UpsertCanonical(ctx, &entities.LinkCanonical{URLKey: key})
//	created, err := repo.CreateInstance(ctx, &entities.LinkInstance{...}, []string{"go"})
package links

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/marked/internal/database/sqlerr"
	"github.com/mrlokans/marked/internal/database/tags"
	"github.com/mrlokans/marked/internal/entities"
)

var (
	// ErrDuplicate is returned when the user already has the link in the target folder.
	ErrDuplicate = errors.New("link already saved in this folder")
	// ErrFolderNotFound is returned when a link is moved to a folder the user does not own.
	ErrFolderNotFound = errors.New("folder not found")
)

// Repository handles all link database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new links repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UpsertCanonical inserts canonical unless its URLKey already exists and
// returns the id of the stored row. The first writer's OriginalURL wins.
func (r *Repository) UpsertCanonical(ctx context.Context, canonical *entities.LinkCanonical) (uint, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "url_key"}}, DoNothing: true}).
		Create(canonical)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		return canonical.ID, nil
	}

	var existing entities.LinkCanonical
	if err := r.db.WithContext(ctx).Select("id").Where("url_key = ?", canonical.URLKey).First(&existing).Error; err != nil {
		return 0, err
	}
	canonical.ID = existing.ID
	return existing.ID, nil
}

// CreateInstance inserts instance and attaches tagNames as the owner's tags.
// created is false, and nothing is written, when the same user already holds
// the canonical in the same folder.
func (r *Repository) CreateInstance(ctx context.Context, instance *entities.LinkInstance, tagNames []string) (bool, error) {
	created := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(instance)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		created = true

		if len(tagNames) == 0 {
			return nil
		}
		linkTags, err := tags.NewRepository(tx).GetOrCreateTags(ctx, instance.UserID, tagNames)
		if err != nil {
			return err
		}
		if len(linkTags) == 0 {
			return nil
		}
		return tx.Model(instance).Association("Tags").Append(linkTags)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

// ListInstances returns a page of the user's links, newest first. A nil
// folderID lists every folder; entities.NoFolder lists the root.
func (r *Repository) ListInstances(ctx context.Context, userID uint, folderID *uint, limit, offset int) ([]entities.LinkInstance, int64, error) {
	var instances []entities.LinkInstance
	var total int64

	query := r.db.WithContext(ctx).Model(&entities.LinkInstance{}).Where("user_id = ?", userID)
	if folderID != nil {
		query = query.Where("folder_id = ?", *folderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	err := query.Preload("Canonical").Preload("Tags").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&instances).Error
	return instances, total, err
}

// GetInstance retrieves one of the user's links with its canonical and tags.
func (r *Repository) GetInstance(ctx context.Context, userID, id uint) (*entities.LinkInstance, error) {
	var instance entities.LinkInstance
	err := r.db.WithContext(ctx).
		Preload("Canonical").Preload("Tags").
		Where("id = ? AND user_id = ?", id, userID).
		First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// UpdateInstance applies a partial update. A null folder_id moves the link to
// the root; a null title or description clears it.
func (r *Repository) UpdateInstance(ctx context.Context, userID, id uint, update entities.LinkInstanceUpdate) (*entities.LinkInstance, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var instance entities.LinkInstance
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&instance).Error; err != nil {
			return err
		}

		changes := map[string]any{}
		if update.Title.Set {
			changes["title"] = update.Title.Value
		}
		if update.Description.Set {
			changes["description"] = update.Description.Value
		}
		if update.Position.Set {
			changes["position"] = update.Position.Value
		}
		if update.FolderID.Set {
			folderID := entities.NoFolder
			if !update.FolderID.Null && update.FolderID.Value != nil {
				folderID = *update.FolderID.Value
			}
			if folderID != entities.NoFolder {
				var count int64
				err := tx.Model(&entities.Folder{}).Where("id = ? AND user_id = ?", folderID, userID).Count(&count).Error
				if err != nil {
					return err
				}
				if count == 0 {
					return ErrFolderNotFound
				}
			}
			changes["folder_id"] = folderID
		}
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Model(&instance).Updates(changes).Error; err != nil {
			if sqlerr.IsUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetInstance(ctx, userID, id)
}
