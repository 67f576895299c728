package entrypoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/marked/internal/audit"
	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/database"
	auditrepo "github.com/mrlokans/marked/internal/database/audit"
	"github.com/mrlokans/marked/internal/database/jobs"
	"github.com/mrlokans/marked/internal/database/tags"
	"github.com/mrlokans/marked/internal/logger"
	"github.com/mrlokans/marked/internal/scheduler"
)

func TestConnectRedis_Disabled(t *testing.T) {
	assert.Nil(t, connectRedis(config.Redis{}, logger.Nop()))
}

func TestNewScheduler_RegistersMaintenanceJobs(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "marked.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.NewConfig()
	auditService := audit.NewService(auditrepo.NewRepository(db.DB), logger.Nop())

	sched := newScheduler(cfg, jobs.NewRepository(db.DB), nil, auditService, tags.NewRepository(db.DB), nil, logger.Nop())
	sched.Start(context.Background())
	t.Cleanup(sched.Stop)

	for _, name := range []string{scheduler.JobStaleImportReaper, scheduler.JobAuditCleanup, scheduler.JobOrphanTagCleanup} {
		assert.NotNil(t, sched.NextRun(name), name)
	}
}

func TestNewScheduler_EmptyScheduleDisablesJob(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "marked.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.NewConfig()
	cfg.Tasks.TagCleanupSchedule = ""
	auditService := audit.NewService(auditrepo.NewRepository(db.DB), logger.Nop())

	sched := newScheduler(cfg, jobs.NewRepository(db.DB), nil, auditService, tags.NewRepository(db.DB), nil, logger.Nop())
	sched.Start(context.Background())
	t.Cleanup(sched.Stop)

	assert.Nil(t, sched.NextRun(scheduler.JobOrphanTagCleanup))
	assert.NotNil(t, sched.NextRun(scheduler.JobStaleImportReaper))
}
