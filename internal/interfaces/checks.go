package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/marked/internal/audit"
	"github.com/mrlokans/marked/internal/auth"
	"github.com/mrlokans/marked/internal/cache"
	"github.com/mrlokans/marked/internal/database"
	"github.com/mrlokans/marked/internal/database/folders"
	"github.com/mrlokans/marked/internal/database/jobs"
	"github.com/mrlokans/marked/internal/database/links"
	"github.com/mrlokans/marked/internal/database/tags"
	"github.com/mrlokans/marked/internal/database/users"
	"github.com/mrlokans/marked/internal/http"
	"github.com/mrlokans/marked/internal/importers"
	"github.com/mrlokans/marked/internal/scheduler"
	"github.com/mrlokans/marked/internal/tasks"
)

// =============================================================================
// HTTP Stores
// =============================================================================

var _ http.ImportJobStore = (*jobs.Repository)(nil)
var _ http.LinkStore = (*links.Repository)(nil)
var _ http.FolderStore = (*folders.Repository)(nil)
var _ http.TagStore = (*tags.Repository)(nil)
var _ http.Auditor = (*audit.Service)(nil)
var _ http.Pinger = (*database.Database)(nil)

var _ auth.UserRepository = (*users.Repository)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.Store = (*database.ImportStore)(nil)
var _ importers.JobTracker = (*jobs.Repository)(nil)
var _ importers.CanonicalCache = (*cache.CanonicalCache)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ tasks.Dispatcher = (*tasks.QueueDispatcher)(nil)
var _ tasks.Dispatcher = (*tasks.InlineDispatcher)(nil)
var _ tasks.Runner = (*tasks.ImportRunner)(nil)
var _ tasks.TaskIDRecorder = (*jobs.Repository)(nil)
var _ tasks.JobLoader = (*jobs.Repository)(nil)
var _ tasks.ImportAuditor = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ tasks.OrphanTagsCleaner = (*tags.Repository)(nil)

var _ scheduler.StaleJobFailer = (*jobs.Repository)(nil)
var _ scheduler.TaskEnqueuer = (*tasks.Client)(nil)
var _ scheduler.PendingChecker = (*tasks.QueueDispatcher)(nil)
var _ scheduler.PendingChecker = (*tasks.InlineDispatcher)(nil)
