package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mrlokans/marked/internal/database/audit"
	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/importers"
	"github.com/mrlokans/marked/internal/logger"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo   *audit.Repository
	logger logger.Logger
	wg     sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, logger: log.Named("audit")}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.logger.Error("failed to log audit event",
				logger.String("action", event.Action),
				logger.Error(err))
		}
	}()
}

// Wait blocks until every LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogImport records the outcome of an import job. A run with failed
// bookmarks but no fatal error is recorded as partial.
func (s *Service) LogImport(job *entities.ImportJob, result *importers.Result, err error) {
	event := &entities.AuditEvent{
		UserID:     job.UserID,
		EventType:  entities.AuditEventImport,
		Action:     job.SourceType + "_import",
		EntityType: "import_job",
		EntityRef:  job.ID,
		Status:     entities.AuditStatusSuccess,
	}

	metadata := map[string]any{
		"file_name":   job.FileName,
		"source_type": job.SourceType,
	}

	switch {
	case err != nil:
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
		event.Description = truncate(fmt.Sprintf("Import of %s failed", displayName(job)), 500)
	case result != nil:
		failed := len(result.FailedBookmarks)
		if failed > 0 {
			event.Status = entities.AuditStatusPartial
		}
		event.Description = truncate(fmt.Sprintf("Imported %d links from %s (%d already saved, %d failed)",
			result.LinksCreated, displayName(job), result.LinksSkipped, failed), 500)
		metadata["links_created"] = result.LinksCreated
		metadata["links_skipped"] = result.LinksSkipped
		metadata["failed_items"] = failed
	}

	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}

	s.LogAsync(event)
}

// LogLinkUpdate records a user edit of one of their links.
func (s *Service) LogLinkUpdate(userID, linkID uint, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLink,
		Action:      "link_update",
		Description: truncate(description, 500),
		EntityType:  "link_instance",
		EntityRef:   strconv.FormatUint(uint64(linkID), 10),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogLinkCreate records a manually saved link.
func (s *Service) LogLinkCreate(userID, linkID uint, url string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLink,
		Action:      "link_create",
		Description: truncate("Saved "+url, 500),
		EntityType:  "link_instance",
		EntityRef:   strconv.FormatUint(uint64(linkID), 10),
		Status:      entities.AuditStatusSuccess,
	})
}

// LogFolderUpdate records a rename or move of a folder.
func (s *Service) LogFolderUpdate(userID, folderID uint, description string) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventFolder,
		Action:      "folder_update",
		Description: truncate(description, 500),
		EntityType:  "folder",
		EntityRef:   strconv.FormatUint(uint64(folderID), 10),
		Status:      entities.AuditStatusSuccess,
	})
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, userID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(ctx context.Context, eventType entities.AuditEventType, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(ctx, eventType, userID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func displayName(job *entities.ImportJob) string {
	if job.FileName != "" {
		return job.FileName
	}
	return job.SourceType
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
