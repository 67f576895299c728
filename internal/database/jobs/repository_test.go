package jobs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/marked/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "jobs.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.ImportJob{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return NewRepository(db), db
}

func newJob(t *testing.T, repo *Repository, userID uint) *entities.ImportJob {
	job := &entities.ImportJob{UserID: userID, SourceType: "chrome", FileName: "bookmarks.html", SourceContent: "<DL>"}
	require.NoError(t, repo.Create(context.Background(), job))
	return job
}

func TestRepository_Create(t *testing.T) {
	repo, _ := setupTestDB(t)

	job := &entities.ImportJob{UserID: 1, Status: entities.ImportJobCompleted}
	require.NoError(t, repo.Create(context.Background(), job))

	assert.Len(t, job.ID, 36)
	assert.Equal(t, entities.ImportJobQueued, job.Status)
}

func TestRepository_Lifecycle(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	job := newJob(t, repo, 1)

	require.NoError(t, repo.MarkRunning(ctx, job.ID))
	require.NoError(t, repo.SetTotal(ctx, job.ID, 3))
	require.NoError(t, repo.IncrementProgress(ctx, job.ID, false))
	require.NoError(t, repo.IncrementProgress(ctx, job.ID, true))
	require.NoError(t, repo.IncrementProgress(ctx, job.ID, false))

	running, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportJobRunning, running.Status)
	assert.NotNil(t, running.StartedAt)
	assert.Equal(t, 3, running.ProcessedItems)
	assert.Equal(t, 1, running.FailedItems)
	assert.InDelta(t, 100.0, running.Progress(), 0.001)

	failed := []entities.FailedBookmark{{Title: "Bad", Index: 2, Reason: "invalid url"}}
	require.NoError(t, repo.Complete(ctx, job.ID, 2, 0, failed))

	done, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportJobCompleted, done.Status)
	assert.Equal(t, 2, done.LinksCreated)
	assert.Empty(t, done.SourceContent)
	assert.NotNil(t, done.CompletedAt)

	list, err := done.FailedList()
	require.NoError(t, err)
	assert.Equal(t, failed, list)
}

func TestRepository_InvalidTransitions(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	t.Run("complete a queued job", func(t *testing.T) {
		job := newJob(t, repo, 1)
		assert.ErrorIs(t, repo.Complete(ctx, job.ID, 0, 0, nil), ErrInvalidTransition)
	})

	t.Run("run twice", func(t *testing.T) {
		job := newJob(t, repo, 1)
		require.NoError(t, repo.MarkRunning(ctx, job.ID))
		assert.ErrorIs(t, repo.MarkRunning(ctx, job.ID), ErrInvalidTransition)
	})

	t.Run("fail a completed job", func(t *testing.T) {
		job := newJob(t, repo, 1)
		require.NoError(t, repo.MarkRunning(ctx, job.ID))
		require.NoError(t, repo.Complete(ctx, job.ID, 0, 0, nil))
		assert.ErrorIs(t, repo.Fail(ctx, job.ID, "late"), ErrInvalidTransition)
	})

	t.Run("fail a queued job", func(t *testing.T) {
		job := newJob(t, repo, 1)
		require.NoError(t, repo.Fail(ctx, job.ID, "could not enqueue"))

		stored, err := repo.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.ImportJobFailed, stored.Status)
		assert.Equal(t, "could not enqueue", stored.Error)
		assert.Empty(t, stored.SourceContent)
	})

	t.Run("unknown job", func(t *testing.T) {
		assert.ErrorIs(t, repo.MarkRunning(ctx, "missing"), ErrInvalidTransition)
	})
}

func TestRepository_GetForUser(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	job := newJob(t, repo, 1)

	stored, err := repo.GetForUser(ctx, 1, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, stored.ID)
	assert.Empty(t, stored.SourceContent)

	_, err = repo.GetForUser(ctx, 2, job.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ListForUser(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		newJob(t, repo, 1)
	}
	newJob(t, repo, 2)

	jobs, total, err := repo.ListForUser(ctx, 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, jobs, 2)
	for _, j := range jobs {
		assert.Equal(t, uint(1), j.UserID)
		assert.Empty(t, j.SourceContent)
	}
}

func TestRepository_SetTaskID(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()
	job := newJob(t, repo, 1)

	require.NoError(t, repo.SetTaskID(ctx, job.ID, "task-1"))

	stored, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "task-1", stored.TaskID)
}

func TestRepository_FailStale(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	stale := newJob(t, repo, 1)
	require.NoError(t, repo.MarkRunning(ctx, stale.ID))
	oldQueued := newJob(t, repo, 1)
	fresh := newJob(t, repo, 1)
	require.NoError(t, repo.MarkRunning(ctx, fresh.ID))
	finished := newJob(t, repo, 1)
	require.NoError(t, repo.MarkRunning(ctx, finished.ID))
	require.NoError(t, repo.Complete(ctx, finished.ID, 0, 0, nil))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&entities.ImportJob{}).
		Where("id IN ?", []string{stale.ID, oldQueued.ID, finished.ID}).
		UpdateColumn("updated_at", old).Error)

	n, err := repo.FailStale(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	job, err := repo.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportJobFailed, job.Status)
	assert.Equal(t, InterruptedMessage, job.Error)

	want := map[string]entities.ImportJobStatus{
		oldQueued.ID: entities.ImportJobQueued,
		fresh.ID:     entities.ImportJobRunning,
		finished.ID:  entities.ImportJobCompleted,
	}
	for id, status := range want {
		job, err := repo.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, job.Status, id)
	}

	require.NoError(t, repo.MarkRunning(ctx, oldQueued.ID), "a waiting job can still start")
}

func TestRepository_ListQueuedBefore(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()

	older := newJob(t, repo, 1)
	oldest := newJob(t, repo, 2)
	newJob(t, repo, 1) // created just now
	started := newJob(t, repo, 1)
	require.NoError(t, repo.MarkRunning(ctx, started.ID))

	for id, age := range map[string]time.Duration{older.ID: time.Hour, oldest.ID: 2 * time.Hour, started.ID: 3 * time.Hour} {
		require.NoError(t, db.Model(&entities.ImportJob{}).Where("id = ?", id).
			UpdateColumn("created_at", time.Now().Add(-age)).Error)
	}

	list, err := repo.ListQueuedBefore(ctx, time.Now().Add(-30*time.Minute))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, oldest.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Empty(t, list[0].SourceContent)
}

func TestRepository_FailQueued(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	queued := newJob(t, repo, 1)
	require.NoError(t, repo.FailQueued(ctx, queued.ID, AbandonedMessage))

	job, err := repo.Get(ctx, queued.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.ImportJobFailed, job.Status)
	assert.Equal(t, AbandonedMessage, job.Error)
	assert.Empty(t, job.SourceContent)

	running := newJob(t, repo, 1)
	require.NoError(t, repo.MarkRunning(ctx, running.ID))
	assert.ErrorIs(t, repo.FailQueued(ctx, running.ID, AbandonedMessage), ErrInvalidTransition)
}

func TestRepository_ProgressRequiresRunning(t *testing.T) {
	repo, _ := setupTestDB(t)
	ctx := context.Background()

	queued := newJob(t, repo, 1)
	assert.ErrorIs(t, repo.SetTotal(ctx, queued.ID, 3), ErrInvalidTransition)
	assert.ErrorIs(t, repo.IncrementProgress(ctx, queued.ID, false), ErrInvalidTransition)

	job := newJob(t, repo, 1)
	require.NoError(t, repo.MarkRunning(ctx, job.ID))
	require.NoError(t, repo.SetTotal(ctx, job.ID, 3))
	require.NoError(t, repo.IncrementProgress(ctx, job.ID, false))
	require.NoError(t, repo.Fail(ctx, job.ID, "boom"))

	assert.ErrorIs(t, repo.IncrementProgress(ctx, job.ID, true), ErrInvalidTransition)
	assert.ErrorIs(t, repo.SetTotal(ctx, job.ID, 10), ErrInvalidTransition)

	stored, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ProcessedItems)
	assert.Equal(t, 0, stored.FailedItems)
	assert.Equal(t, 3, stored.TotalItems)
}
