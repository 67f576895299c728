package database

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/marked/internal/database/folders"
	"github.com/mrlokans/marked/internal/database/links"
	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/importers"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Folder{},
		&entities.LinkCanonical{},
		&entities.Tag{},
		&entities.LinkInstance{},
		&entities.ImportJob{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{DB: db}, nil
}

// dsn enables WAL and a busy timeout so imports running on the task worker
// do not fail readers with SQLITE_BUSY.
func dsn(dbPath string) string {
	if dbPath == ":memory:" || strings.HasPrefix(dbPath, "file::memory:") {
		return dbPath
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_busy_timeout=5000&_journal_mode=WAL"
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the connection is usable.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ImportStore adapts the folder and link repositories to importers.Store.
type ImportStore struct {
	folders *folders.Repository
	links   *links.Repository
}

var _ importers.Store = (*ImportStore)(nil)

func NewImportStore(db *gorm.DB) *ImportStore {
	return &ImportStore{
		folders: folders.NewRepository(db),
		links:   links.NewRepository(db),
	}
}

func (s *ImportStore) GetOrCreateFolder(ctx context.Context, userID, parentID uint, name string, position int) (uint, error) {
	return s.folders.GetOrCreate(ctx, userID, parentID, name, position)
}

func (s *ImportStore) UpsertCanonical(ctx context.Context, canonical *entities.LinkCanonical) (uint, error) {
	return s.links.UpsertCanonical(ctx, canonical)
}

func (s *ImportStore) CreateInstance(ctx context.Context, instance *entities.LinkInstance, tags []string) (bool, error) {
	return s.links.CreateInstance(ctx, instance, tags)
}
