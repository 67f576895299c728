package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/marked/internal/audit"
	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/database"
	auditrepo "github.com/mrlokans/marked/internal/database/audit"
	"github.com/mrlokans/marked/internal/database/folders"
	"github.com/mrlokans/marked/internal/database/jobs"
	"github.com/mrlokans/marked/internal/database/links"
	"github.com/mrlokans/marked/internal/database/tags"
	"github.com/mrlokans/marked/internal/logger"
	"github.com/mrlokans/marked/internal/ratelimit"
)

const chromeExport = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<META HTTP-EQUIV="Content-Type" CONTENT="text/html; charset=UTF-8">
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3 PERSONAL_TOOLBAR_FOLDER="true">Bookmarks bar</H3>
    <DL><p>
        <DT><A HREF="https://example.com/a">A</A>
    </DL><p>
</DL><p>
`

// recordingDispatcher remembers dispatched job ids without running them.
type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.ids = append(d.ids, jobID)
	return nil
}

func (d *recordingDispatcher) dispatched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ids...)
}

type testServer struct {
	router     *gin.Engine
	db         *database.Database
	jobs       *jobs.Repository
	links      *links.Repository
	folders    *folders.Repository
	audit      *audit.Service
	dispatcher *recordingDispatcher
}

type serverOption func(*RouterConfig)

func setupServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "marked.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := &testServer{
		db:         db,
		jobs:       jobs.NewRepository(db.DB),
		links:      links.NewRepository(db.DB),
		folders:    folders.NewRepository(db.DB),
		audit:      audit.NewService(auditrepo.NewRepository(db.DB), logger.Nop()),
		dispatcher: &recordingDispatcher{},
	}
	// Runs before db.Close.
	t.Cleanup(s.audit.Wait)

	importCfg := config.Import{
		MaxUploadBytes:    config.DefaultMaxUploadBytes,
		DefaultWrapFolder: "Imported bookmarks",
	}
	cfg := RouterConfig{
		Database:   db,
		Jobs:       s.jobs,
		Links:      s.links,
		Folders:    s.folders,
		Tags:       tags.NewRepository(db.DB),
		Auditor:    s.audit,
		Dispatcher: s.dispatcher,
		Import:     importCfg,
		Logger:     logger.Nop(),
		Version:    "test",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	s.router = NewRouter(cfg)
	return s
}

func withUploadLimit(maxBytes int64) serverOption {
	return func(cfg *RouterConfig) { cfg.Import.MaxUploadBytes = maxBytes }
}

func withRateLimiter(l *ratelimit.KeyedRateLimiter) serverOption {
	return func(cfg *RouterConfig) { cfg.UploadLimiter = l }
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

// uploadRequest builds a multipart request carrying filename and extra form fields.
func uploadRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
