package http

import (
	"context"

	"github.com/mrlokans/marked/internal/entities"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends only on the interface it needs.

// ImportJobStore persists import jobs.
type ImportJobStore interface {
	Create(ctx context.Context, job *entities.ImportJob) error
	GetForUser(ctx context.Context, userID uint, id string) (*entities.ImportJob, error)
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]entities.ImportJob, int64, error)
	Fail(ctx context.Context, id string, message string) error
}

// LinkStore manages canonical links and the user's instances of them.
type LinkStore interface {
	UpsertCanonical(ctx context.Context, canonical *entities.LinkCanonical) (uint, error)
	CreateInstance(ctx context.Context, instance *entities.LinkInstance, tagNames []string) (bool, error)
	ListInstances(ctx context.Context, userID uint, folderID *uint, limit, offset int) ([]entities.LinkInstance, int64, error)
	GetInstance(ctx context.Context, userID, id uint) (*entities.LinkInstance, error)
	UpdateInstance(ctx context.Context, userID, id uint, update entities.LinkInstanceUpdate) (*entities.LinkInstance, error)
}

// FolderStore manages the user's folder tree.
type FolderStore interface {
	ListForUser(ctx context.Context, userID uint) ([]entities.Folder, error)
	Exists(ctx context.Context, userID, id uint) (bool, error)
	Update(ctx context.Context, userID, id uint, update entities.FolderUpdate) (*entities.Folder, error)
}

// TagStore provides read access to the user's tags.
type TagStore interface {
	GetTagsForUser(ctx context.Context, userID uint) ([]entities.Tag, error)
	SearchTags(ctx context.Context, userID uint, query string) ([]entities.Tag, error)
}

// Auditor records user changes and lists past events.
type Auditor interface {
	LogLinkCreate(userID, linkID uint, url string)
	LogLinkUpdate(userID, linkID uint, description string)
	LogFolderUpdate(userID, folderID uint, description string)
	GetEventsByType(ctx context.Context, eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
