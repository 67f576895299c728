// Package folders provides database operations for users' folder trees.
//
// # Usage
//
//	repo := folders.NewRepository(db)
//	id, err := repo.GetOrCreate(ctx, userID, entities.NoFolder, "Reading", 0)
package folders

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/marked/internal/database/sqlerr"
	"github.com/mrlokans/marked/internal/entities"
)

var (
	// ErrCycle is returned when a folder would be moved under itself or one of its descendants.
	ErrCycle = errors.New("folder cannot be moved into itself or its descendants")
	// ErrDuplicateName is returned when the target parent already has a folder with that name.
	ErrDuplicateName = errors.New("a folder with this name already exists in the parent")
	// ErrInvalidName is returned for empty or null names.
	ErrInvalidName = errors.New("folder name must not be empty")
	// ErrParentNotFound is returned when the new parent does not exist for the user.
	ErrParentNotFound = errors.New("parent folder not found")
)

// maxDepth bounds the ancestor walk in case stored data already contains a loop.
const maxDepth = 256

// Repository handles all folder database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new folders repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetOrCreate returns the id of the user's folder called name under parentID,
// inserting it at position when absent. Concurrent callers get the same row.
func (r *Repository) GetOrCreate(ctx context.Context, userID, parentID uint, name string, position int) (uint, error) {
	folder := entities.Folder{
		UserID:   userID,
		ParentID: parentID,
		Name:     name,
		Position: position,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&folder)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		return folder.ID, nil
	}

	var existing entities.Folder
	err := r.db.WithContext(ctx).
		Select("id").
		Where("user_id = ? AND parent_id = ? AND name = ?", userID, parentID, name).
		First(&existing).Error
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// ListForUser returns every folder of the user, roots first, siblings by position.
func (r *Repository) ListForUser(ctx context.Context, userID uint) ([]entities.Folder, error) {
	var folders []entities.Folder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("parent_id ASC, position ASC, id ASC").
		Find(&folders).Error
	return folders, err
}

// Get retrieves one of the user's folders.
func (r *Repository) Get(ctx context.Context, userID, id uint) (*entities.Folder, error) {
	var folder entities.Folder
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&folder).Error
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// Exists reports whether id is one of the user's folders.
func (r *Repository) Exists(ctx context.Context, userID, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Folder{}).
		Where("id = ? AND user_id = ?", id, userID).
		Count(&count).Error
	return count > 0, err
}

// Update applies a partial update. A null parent moves the folder to the root.
func (r *Repository) Update(ctx context.Context, userID, id uint, update entities.FolderUpdate) (*entities.Folder, error) {
	var folder entities.Folder

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&folder).Error; err != nil {
			return err
		}

		changes := map[string]any{}
		if update.Name.Set {
			name := strings.TrimSpace(update.Name.Value)
			if update.Name.Null || name == "" {
				return ErrInvalidName
			}
			changes["name"] = name
		}
		if update.ParentID.Set {
			parentID := entities.NoFolder
			if !update.ParentID.Null && update.ParentID.Value != nil {
				parentID = *update.ParentID.Value
			}
			if err := checkAncestry(tx, userID, id, parentID); err != nil {
				return err
			}
			changes["parent_id"] = parentID
		}
		if update.Position.Set {
			changes["position"] = update.Position.Value
		}
		if len(changes) == 0 {
			return nil
		}

		if err := tx.Model(&folder).Updates(changes).Error; err != nil {
			if sqlerr.IsUniqueViolation(err) {
				return ErrDuplicateName
			}
			return err
		}
		return tx.First(&folder, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// checkAncestry walks up from parentID and fails if folderID is among the
// ancestors, which would close a loop.
func checkAncestry(tx *gorm.DB, userID, folderID, parentID uint) error {
	current := parentID
	for depth := 0; current != entities.NoFolder; depth++ {
		if current == folderID || depth > maxDepth {
			return ErrCycle
		}

		var ancestor entities.Folder
		err := tx.Select("id", "parent_id").Where("id = ? AND user_id = ?", current, userID).First(&ancestor).Error
		if sqlerr.IsNotFound(err) {
			return ErrParentNotFound
		}
		if err != nil {
			return err
		}
		current = ancestor.ParentID
	}
	return nil
}
