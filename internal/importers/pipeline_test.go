package importers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mrlokans/marked/internal/canonical"
	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type folderKey struct {
	userID   uint
	parentID uint
	name     string
}

type instanceKey struct {
	userID      uint
	canonicalID uint
	folderID    uint
}

type mockStore struct {
	nextID        uint
	folders       map[folderKey]uint
	canonicals    map[string]uint
	instances     map[instanceKey]*entities.LinkInstance
	tags          map[uint][]string
	upsertCalls   int
	failInstances map[string]error // by instance URL
}

func newMockStore() *mockStore {
	return &mockStore{
		folders:       make(map[folderKey]uint),
		canonicals:    make(map[string]uint),
		instances:     make(map[instanceKey]*entities.LinkInstance),
		tags:          make(map[uint][]string),
		failInstances: make(map[string]error),
	}
}

func (m *mockStore) GetOrCreateFolder(_ context.Context, userID, parentID uint, name string, _ int) (uint, error) {
	key := folderKey{userID, parentID, name}
	if id, ok := m.folders[key]; ok {
		return id, nil
	}
	m.nextID++
	m.folders[key] = m.nextID
	return m.nextID, nil
}

func (m *mockStore) UpsertCanonical(_ context.Context, c *entities.LinkCanonical) (uint, error) {
	m.upsertCalls++
	if id, ok := m.canonicals[c.URLKey]; ok {
		return id, nil
	}
	m.nextID++
	m.canonicals[c.URLKey] = m.nextID
	return m.nextID, nil
}

func (m *mockStore) CreateInstance(_ context.Context, instance *entities.LinkInstance, tags []string) (bool, error) {
	if err, ok := m.failInstances[instance.URL]; ok {
		return false, err
	}
	key := instanceKey{instance.UserID, instance.CanonicalID, instance.FolderID}
	if _, ok := m.instances[key]; ok {
		return false, nil
	}
	m.nextID++
	instance.ID = m.nextID
	m.instances[key] = instance
	m.tags[instance.ID] = tags
	return true, nil
}

func (m *mockStore) folderID(t *testing.T, userID, parentID uint, name string) uint {
	t.Helper()
	id, ok := m.folders[folderKey{userID, parentID, name}]
	require.True(t, ok, "folder %q under %d not created", name, parentID)
	return id
}

func (m *mockStore) instanceByTitle(title string) *entities.LinkInstance {
	for _, inst := range m.instances {
		if inst.Title == title {
			return inst
		}
	}
	return nil
}

type mockJobs struct {
	status      entities.ImportJobStatus
	total       int
	processed   int
	failedItems int
	created     int
	skipped     int
	failed      []entities.FailedBookmark
	errMessage  string

	progressErr error
}

func newMockJobs() *mockJobs {
	return &mockJobs{status: entities.ImportJobQueued}
}

func (m *mockJobs) MarkRunning(_ context.Context, id string) error {
	if m.status != entities.ImportJobQueued {
		return fmt.Errorf("job %s is %s", id, m.status)
	}
	m.status = entities.ImportJobRunning
	return nil
}

func (m *mockJobs) SetTotal(_ context.Context, _ string, total int) error {
	m.total = total
	return nil
}

func (m *mockJobs) IncrementProgress(_ context.Context, _ string, failed bool) error {
	if m.progressErr != nil {
		return m.progressErr
	}
	m.processed++
	if failed {
		m.failedItems++
	}
	return nil
}

func (m *mockJobs) Complete(_ context.Context, _ string, created, skipped int, failed []entities.FailedBookmark) error {
	m.status = entities.ImportJobCompleted
	m.created = created
	m.skipped = skipped
	m.failed = failed
	return nil
}

func (m *mockJobs) Fail(_ context.Context, _ string, message string) error {
	m.status = entities.ImportJobFailed
	m.errMessage = message
	return nil
}

type mockCache struct {
	entries map[string]uint
	sets    int
}

func (m *mockCache) Get(_ context.Context, urlKey string) (uint, bool) {
	id, ok := m.entries[urlKey]
	return id, ok
}

func (m *mockCache) Set(_ context.Context, urlKey string, id uint) {
	m.entries[urlKey] = id
	m.sets++
}

func newTestPipeline(store *mockStore, jobs *mockJobs) *Pipeline {
	return NewPipeline(store, jobs, canonical.Default(), logger.Nop())
}

func TestPipeline_ProcessImportJob_Chrome(t *testing.T) {
	store, jobs := newMockStore(), newMockJobs()
	pipeline := newTestPipeline(store, jobs)

	result, err := pipeline.ProcessImportJob(context.Background(), "job-1", 7, chromeExport, FormatChrome, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, result.LinksCreated)
	assert.Equal(t, 0, result.LinksSkipped)
	assert.Empty(t, result.FailedBookmarks)
	assert.NotNil(t, result.FailedBookmarks)

	assert.Equal(t, entities.ImportJobCompleted, jobs.status)
	assert.Equal(t, 3, jobs.total)
	assert.Equal(t, 3, jobs.processed)
	assert.Equal(t, 0, jobs.failedItems)

	bar := store.folderID(t, 7, entities.NoFolder, "Bookmarks bar")
	reading := store.folderID(t, 7, bar, "Reading")

	article := store.instanceByTitle("Article")
	require.NotNil(t, article)
	assert.Equal(t, reading, article.FolderID)
	assert.Equal(t, "job-1", article.ImportJobID)
	assert.Equal(t, string(FormatChrome), article.SourceType)
	_, ok := store.canonicals["https://example.com/article"]
	assert.True(t, ok, "tracking params are stripped from the key")

	hn := store.instanceByTitle("HN")
	require.NotNil(t, hn)
	assert.Equal(t, entities.NoFolder, hn.FolderID)
}

func TestPipeline_ProcessImportJob_ReimportIsIdempotent(t *testing.T) {
	store := newMockStore()

	first := newMockJobs()
	_, err := newTestPipeline(store, first).ProcessImportJob(context.Background(), "job-1", 1, chromeExport, FormatChrome, Options{})
	require.NoError(t, err)
	canonicalCount := len(store.canonicals)
	folderCount := len(store.folders)

	second := newMockJobs()
	result, err := newTestPipeline(store, second).ProcessImportJob(context.Background(), "job-2", 1, chromeExport, FormatChrome, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, result.LinksCreated)
	assert.Equal(t, 3, result.LinksSkipped)
	assert.Equal(t, canonicalCount, len(store.canonicals))
	assert.Equal(t, folderCount, len(store.folders))
	assert.Len(t, store.instances, 3)
}

func TestPipeline_ProcessImportJob_SharesCanonicalsAcrossUsers(t *testing.T) {
	store := newMockStore()

	for _, userID := range []uint{1, 2} {
		jobs := newMockJobs()
		result, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), fmt.Sprintf("job-%d", userID), userID, chromeExport, FormatChrome, Options{})
		require.NoError(t, err)
		assert.Equal(t, 3, result.LinksCreated)
	}

	assert.Len(t, store.canonicals, 3)
	assert.Len(t, store.instances, 6)
}

func TestPipeline_ProcessImportJob_PartialFailure(t *testing.T) {
	content := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>Mixed</H3>
    <DL><p>
        <DT><A HREF="https://good.com/a">Good</A>
        <DT><A HREF="ftp://files.example.com/x">FTP</A>
        <DT><A>No href</A>
        <DT><A HREF="https://good.com/b">Also good</A>
    </DL><p>
</DL>`

	store, jobs := newMockStore(), newMockJobs()
	result, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, content, FormatChrome, Options{})
	require.NoError(t, err)

	assert.Equal(t, entities.ImportJobCompleted, jobs.status)
	assert.Equal(t, 2, result.LinksCreated)
	assert.Equal(t, 4, jobs.processed)
	assert.Equal(t, 2, jobs.failedItems)
	require.Len(t, result.FailedBookmarks, 2)

	ftp := result.FailedBookmarks[0]
	assert.Equal(t, "FTP", ftp.Title)
	assert.Equal(t, "ftp://files.example.com/x", ftp.URL)
	assert.Equal(t, "Mixed", ftp.FolderPath)
	assert.Equal(t, 2, ftp.Index)
	assert.Contains(t, ftp.Reason, canonical.ErrUnsupportedScheme.Error())

	assert.Equal(t, 3, result.FailedBookmarks[1].Index)
	assert.Equal(t, result.FailedBookmarks, jobs.failed)
}

func TestPipeline_ProcessImportJob_StorageErrorOnOneBookmark(t *testing.T) {
	store, jobs := newMockStore(), newMockJobs()
	store.failInstances["https://go.dev/doc/"] = errors.New("disk I/O error")

	result, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, chromeExport, FormatChrome, Options{})
	require.NoError(t, err)

	assert.Equal(t, entities.ImportJobCompleted, jobs.status)
	assert.Equal(t, 2, result.LinksCreated)
	require.Len(t, result.FailedBookmarks, 1)
	assert.Contains(t, result.FailedBookmarks[0].Reason, "disk I/O error")
}

func TestPipeline_ProcessImportJob_FoldersCreatedLazily(t *testing.T) {
	content := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>Empty</H3>
    <DL><p>
    </DL><p>
    <DT><H3>Only broken</H3>
    <DL><p>
        <DT><A HREF="javascript:void(0)">Bookmarklet</A>
    </DL><p>
    <DT><H3>Used</H3>
    <DL><p>
        <DT><A HREF="https://a.com/">A</A>
        <DT><A HREF="https://b.com/">B</A>
    </DL><p>
</DL>`

	store, jobs := newMockStore(), newMockJobs()
	_, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, content, FormatChrome, Options{})
	require.NoError(t, err)

	assert.Len(t, store.folders, 1)
	used := store.folderID(t, 1, entities.NoFolder, "Used")
	assert.Equal(t, used, store.instanceByTitle("A").FolderID)
	assert.Equal(t, used, store.instanceByTitle("B").FolderID)
}

func TestPipeline_ProcessImportJob_DuplicateWithinFile(t *testing.T) {
	content := "url,title\n" +
		"https://www.site.com/a/?utm_source=x,First\n" +
		"http://site.com/a,Second\n"

	store, jobs := newMockStore(), newMockJobs()
	result, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, content, FormatCSV, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.LinksCreated)
	assert.Equal(t, 1, result.LinksSkipped)
	assert.Len(t, store.canonicals, 1)
}

func TestPipeline_ProcessImportJob_WrapInFolder(t *testing.T) {
	tests := []struct {
		name     string
		wrapName string
		expected string
	}{
		{"custom name", "  Chrome 2024 ", "Chrome 2024"},
		{"default name", "", DefaultWrapFolderName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, jobs := newMockStore(), newMockJobs()
			opts := Options{WrapInFolder: true, WrapFolderName: tt.wrapName}

			_, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, chromeExport, FormatChrome, opts)
			require.NoError(t, err)

			wrapper := store.folderID(t, 1, entities.NoFolder, tt.expected)
			bar := store.folderID(t, 1, wrapper, "Bookmarks bar")
			store.folderID(t, 1, bar, "Reading")
			assert.Equal(t, wrapper, store.instanceByTitle("HN").FolderID)
		})
	}
}

func TestPipeline_ProcessImportJob_ParseFailureFailsJob(t *testing.T) {
	store, jobs := newMockStore(), newMockJobs()

	result, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, "title,link\nA,https://a.com\n", FormatCSV, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.Nil(t, result)

	assert.Equal(t, entities.ImportJobFailed, jobs.status)
	assert.Equal(t, 0, jobs.processed)
	assert.NotEmpty(t, jobs.errMessage)
	assert.Empty(t, store.instances)
}

func TestPipeline_ProcessImportJob_ProgressFailureFailsJob(t *testing.T) {
	store, jobs := newMockStore(), newMockJobs()
	jobs.progressErr = errors.New("database is locked")

	_, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, chromeExport, FormatChrome, Options{})
	require.Error(t, err)

	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
	assert.Equal(t, entities.ImportJobFailed, jobs.status)
	assert.Contains(t, jobs.errMessage, "database is locked")
}

func TestPipeline_ProcessImportJob_CancelledContext(t *testing.T) {
	store, jobs := newMockStore(), newMockJobs()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(store, jobs).ProcessImportJob(ctx, "job-1", 1, chromeExport, FormatChrome, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, entities.ImportJobFailed, jobs.status)
}

func TestPipeline_ProcessImportJob_RejectsNonQueuedJob(t *testing.T) {
	store, jobs := newMockStore(), newMockJobs()
	jobs.status = entities.ImportJobCompleted

	_, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, chromeExport, FormatChrome, Options{})
	require.Error(t, err)
	assert.Equal(t, entities.ImportJobCompleted, jobs.status)
	assert.Empty(t, store.instances)
}

func TestPipeline_ProcessImportJob_UsesCanonicalCache(t *testing.T) {
	store, jobs := newMockStore(), newMockJobs()
	cache := &mockCache{entries: map[string]uint{"https://news.ycombinator.com/": 999}}

	pipeline := newTestPipeline(store, jobs)
	pipeline.SetCache(cache)

	_, err := pipeline.ProcessImportJob(context.Background(), "job-1", 1, chromeExport, FormatChrome, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, store.upsertCalls)
	assert.Equal(t, 2, cache.sets)
	assert.Equal(t, uint(999), store.instanceByTitle("HN").CanonicalID)
}

func TestPipeline_ProcessImportJob_TagsAndMetadata(t *testing.T) {
	store, jobs := newMockStore(), newMockJobs()

	_, err := newTestPipeline(store, jobs).ProcessImportJob(context.Background(), "job-1", 1, raindropExport, FormatRaindropHTML, Options{})
	require.NoError(t, err)

	link := store.instanceByTitle("Dribbble")
	require.NotNil(t, link)
	assert.Equal(t, "Design community", link.Description)
	assert.Equal(t, "https://cdn.example.com/c.png", link.CoverURL)
	assert.NotNil(t, link.AddedAt)
	assert.Equal(t, []string{"inspiration", "ui"}, store.tags[link.ID])
}
