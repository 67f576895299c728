package importers

import (
	"context"
	"strings"

	"github.com/mrlokans/marked/internal/canonical"
	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/logger"
)

// DefaultWrapFolderName names the wrapping folder when none is given.
const DefaultWrapFolderName = "Imported bookmarks"

// Store persists what an import produces. Every method must be safe against
// concurrent imports: creation is insert-if-absent, returning the existing
// row on conflict.
type Store interface {
	// GetOrCreateFolder returns the folder named name under parentID,
	// creating it at position if it does not exist.
	GetOrCreateFolder(ctx context.Context, userID, parentID uint, name string, position int) (uint, error)
	// UpsertCanonical returns the id of the canonical with the same URLKey,
	// inserting canonical if there is none.
	UpsertCanonical(ctx context.Context, canonical *entities.LinkCanonical) (uint, error)
	// CreateInstance inserts instance unless the same user already holds the
	// canonical in the same folder. created is false for such duplicates.
	CreateInstance(ctx context.Context, instance *entities.LinkInstance, tags []string) (created bool, err error)
}

// JobTracker records job state transitions and progress.
type JobTracker interface {
	MarkRunning(ctx context.Context, id string) error
	SetTotal(ctx context.Context, id string, total int) error
	IncrementProgress(ctx context.Context, id string, failed bool) error
	Complete(ctx context.Context, id string, created, skipped int, failed []entities.FailedBookmark) error
	Fail(ctx context.Context, id string, message string) error
}

// CanonicalCache remembers url_key to canonical id lookups across jobs.
// Implementations swallow their own errors; a miss falls through to Store.
type CanonicalCache interface {
	Get(ctx context.Context, urlKey string) (uint, bool)
	Set(ctx context.Context, urlKey string, id uint)
}

type Options struct {
	WrapInFolder   bool
	WrapFolderName string
}

// Result summarises a finished import.
type Result struct {
	LinksCreated    int                       `json:"links_created"`
	LinksSkipped    int                       `json:"links_skipped"`
	FailedBookmarks []entities.FailedBookmark `json:"failed_bookmarks"`
}

// Pipeline walks parsed bookmark forests into storage.
type Pipeline struct {
	store  Store
	jobs   JobTracker
	canon  *canonical.Canonicalizer
	cache  CanonicalCache
	logger logger.Logger
}

func NewPipeline(store Store, jobs JobTracker, canon *canonical.Canonicalizer, log logger.Logger) *Pipeline {
	if canon == nil {
		canon = canonical.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{
		store:  store,
		jobs:   jobs,
		canon:  canon,
		logger: log.Named("import"),
	}
}

// SetCache installs a canonical id cache. Nil disables caching.
func (p *Pipeline) SetCache(cache CanonicalCache) {
	p.cache = cache
}

// ProcessImportJob imports content for userID under the queued job jobID.
//
// Malformed entries and per-bookmark persistence failures are recorded on
// the job and the import continues; the job still completes. The job fails
// only when the document cannot be parsed, when job bookkeeping itself
// fails, or when ctx is cancelled.
func (p *Pipeline) ProcessImportJob(ctx context.Context, jobID string, userID uint, content string, format ImportFormat, opts Options) (*Result, error) {
	if err := p.jobs.MarkRunning(ctx, jobID); err != nil {
		return nil, err
	}

	log := p.logger
	log.Info("Import started",
		logger.String("job_id", jobID),
		logger.Uint("user_id", userID),
		logger.String("format", string(format)))

	result, err := p.run(ctx, jobID, userID, content, format, opts)
	if err != nil {
		// The job must leave running even when ctx was cancelled.
		if failErr := p.jobs.Fail(context.WithoutCancel(ctx), jobID, err.Error()); failErr != nil {
			log.Error("Failed to mark import as failed", logger.String("job_id", jobID), logger.Error(failErr))
		}
		log.Warn("Import failed", logger.String("job_id", jobID), logger.Error(err))
		return result, err
	}

	if err := p.jobs.Complete(ctx, jobID, result.LinksCreated, result.LinksSkipped, result.FailedBookmarks); err != nil {
		err = storageError("complete job", err)
		if failErr := p.jobs.Fail(context.WithoutCancel(ctx), jobID, err.Error()); failErr != nil {
			log.Error("Failed to mark import as failed", logger.String("job_id", jobID), logger.Error(failErr))
		}
		return result, err
	}

	log.Info("Import completed",
		logger.String("job_id", jobID),
		logger.Int("created", result.LinksCreated),
		logger.Int("skipped", result.LinksSkipped),
		logger.Int("failed", len(result.FailedBookmarks)))
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, jobID string, userID uint, content string, format ImportFormat, opts Options) (*Result, error) {
	forest, err := Parse(format, content)
	if err != nil {
		return nil, err
	}

	if opts.WrapInFolder {
		name := strings.TrimSpace(opts.WrapFolderName)
		if name == "" {
			name = DefaultWrapFolderName
		}
		wrapper := newFolder(name)
		wrapper.Children = forest
		forest = []*ParsedBookmarkNode{wrapper}
	}

	if err := p.jobs.SetTotal(ctx, jobID, CountBookmarks(forest)); err != nil {
		return nil, storageError("set total", err)
	}

	r := &importRun{
		pipeline: p,
		jobID:    jobID,
		userID:   userID,
		format:   format,
		folders:  make(map[string]uint),
		result:   &Result{FailedBookmarks: []entities.FailedBookmark{}},
	}
	if err := r.walk(ctx, forest, nil); err != nil {
		return r.result, err
	}
	return r.result, nil
}

// folderRef is one segment of the path from the import root to a bookmark.
type folderRef struct {
	name     string
	position int
}

// importRun is the state of one ProcessImportJob call. It is used from a
// single goroutine and discarded when the job ends.
type importRun struct {
	pipeline *Pipeline
	jobID    string
	userID   uint
	format   ImportFormat

	folders map[string]uint // folder path -> id, for this run only
	seen    int
	result  *Result
}

func (r *importRun) walk(ctx context.Context, nodes []*ParsedBookmarkNode, path []folderRef) error {
	for position, node := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}

		if node.IsFolder() {
			child := append(path[:len(path):len(path)], folderRef{name: node.Name, position: position})
			if err := r.walk(ctx, node.Children, child); err != nil {
				return err
			}
			continue
		}

		r.seen++
		err := r.importBookmark(ctx, node, path, position)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.result.FailedBookmarks = append(r.result.FailedBookmarks, entities.FailedBookmark{
				Title:      node.Title,
				URL:        node.URL,
				FolderPath: joinPath(path),
				Index:      r.seen,
				Line:       node.Line,
				Reason:     err.Error(),
			})
		}

		if progressErr := r.pipeline.jobs.IncrementProgress(ctx, r.jobID, err != nil); progressErr != nil {
			return storageError("update progress", progressErr)
		}
	}
	return nil
}

func (r *importRun) importBookmark(ctx context.Context, node *ParsedBookmarkNode, path []folderRef, position int) error {
	if node.Err != nil {
		return node.Err
	}

	res, err := r.pipeline.canon.Canonicalize(node.URL)
	if err != nil {
		return &ParseError{Line: node.Line, Err: err}
	}

	folderID, err := r.resolveFolder(ctx, path)
	if err != nil {
		return err
	}

	canonicalID, err := r.resolveCanonical(ctx, res)
	if err != nil {
		return err
	}

	title := node.Title
	if title == "" {
		title = node.URL
	}

	instance := &entities.LinkInstance{
		UserID:      r.userID,
		CanonicalID: canonicalID,
		FolderID:    folderID,
		Title:       title,
		Description: node.Description,
		URL:         res.OriginalURL,
		FaviconURL:  node.IconURL,
		CoverURL:    node.CoverURL,
		SourceType:  string(r.format),
		ImportJobID: r.jobID,
		Position:    position,
		AddedAt:     node.AddedAt,
	}

	created, err := r.pipeline.store.CreateInstance(ctx, instance, node.Tags)
	if err != nil {
		return storageError("create link", err)
	}
	if created {
		r.result.LinksCreated++
	} else {
		r.result.LinksSkipped++
	}
	return nil
}

// resolveFolder creates the folders along path on first use. A path that
// holds only malformed bookmarks therefore never reaches storage.
func (r *importRun) resolveFolder(ctx context.Context, path []folderRef) (uint, error) {
	if len(path) == 0 {
		return entities.NoFolder, nil
	}

	key := pathKey(path)
	if id, ok := r.folders[key]; ok {
		return id, nil
	}

	parentID, err := r.resolveFolder(ctx, path[:len(path)-1])
	if err != nil {
		return 0, err
	}

	last := path[len(path)-1]
	id, err := r.pipeline.store.GetOrCreateFolder(ctx, r.userID, parentID, last.name, last.position)
	if err != nil {
		return 0, storageError("create folder", err)
	}
	r.folders[key] = id
	return id, nil
}

func (r *importRun) resolveCanonical(ctx context.Context, res canonical.Result) (uint, error) {
	cache := r.pipeline.cache
	if cache != nil {
		if id, ok := cache.Get(ctx, res.URLKey); ok {
			return id, nil
		}
	}

	id, err := r.pipeline.store.UpsertCanonical(ctx, &entities.LinkCanonical{
		URLKey:      res.URLKey,
		OriginalURL: res.OriginalURL,
		Domain:      res.Domain,
		Pathname:    res.Pathname,
	})
	if err != nil {
		return 0, storageError("upsert canonical", err)
	}

	if cache != nil {
		cache.Set(ctx, res.URLKey, id)
	}
	return id, nil
}

func pathKey(path []folderRef) string {
	names := make([]string, len(path))
	for i, f := range path {
		names[i] = f.name
	}
	return strings.Join(names, "\x00")
}

func joinPath(path []folderRef) string {
	names := make([]string, len(path))
	for i, f := range path {
		names[i] = f.name
	}
	return strings.Join(names, "/")
}

