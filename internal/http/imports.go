package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/marked/internal/config"
	"github.com/mrlokans/marked/internal/database/sqlerr"
	"github.com/mrlokans/marked/internal/entities"
	"github.com/mrlokans/marked/internal/importers"
	"github.com/mrlokans/marked/internal/logger"
	"github.com/mrlokans/marked/internal/tasks"
	"github.com/mrlokans/marked/internal/utils"
)

const (
	uploadFormField = "file"
	// multipartOverhead leaves room for boundaries and the other form fields.
	multipartOverhead = 1 << 20
)

type ImportsController struct {
	jobs       ImportJobStore
	dispatcher tasks.Dispatcher
	config     config.Import
}

func NewImportsController(jobs ImportJobStore, dispatcher tasks.Dispatcher, cfg config.Import) *ImportsController {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	return &ImportsController{jobs: jobs, dispatcher: dispatcher, config: cfg}
}

// ImportJobResponse is a job together with its decoded failures and progress.
type ImportJobResponse struct {
	entities.ImportJob
	Progress float64                   `json:"progress"`
	Failed   []entities.FailedBookmark `json:"failed_bookmarks"`
}

func newImportJobResponse(job *entities.ImportJob) ImportJobResponse {
	failed, err := job.FailedList()
	if err != nil {
		failed = []entities.FailedBookmark{}
	}
	return ImportJobResponse{ImportJob: *job, Progress: job.Progress(), Failed: failed}
}

// Upload stores the file as a queued job and hands it to the dispatcher.
// POST /api/imports
func (ic *ImportsController) Upload(c *gin.Context) {
	filename, content, ok := ic.readUpload(c)
	if !ok {
		return
	}

	format, ok := ic.resolveFormat(c, filename, content)
	if !ok {
		return
	}

	wrap, ok := parseBoolForm(c, "wrap_in_folder")
	if !ok {
		return
	}
	wrapName := strings.TrimSpace(c.PostForm("wrap_folder_name"))
	if wrap && wrapName == "" {
		wrapName = ic.config.DefaultWrapFolder
	}

	job := &entities.ImportJob{
		UserID:         GetUserID(c),
		SourceType:     string(format),
		FileName:       filename,
		WrapInFolder:   wrap,
		WrapFolderName: wrapName,
		SourceContent:  content,
	}
	if err := ic.jobs.Create(c.Request.Context(), job); err != nil {
		respondInternalError(c, err, "create import job")
		return
	}

	if err := ic.dispatcher.Dispatch(c.Request.Context(), job.ID); err != nil {
		requestLogger(c).Error("failed to dispatch import job",
			logger.String("job_id", job.ID),
			logger.Error(err))
		if failErr := ic.jobs.Fail(c.Request.Context(), job.ID, "import could not be scheduled"); failErr != nil {
			respondInternalError(c, errors.Join(err, failErr), "dispatch import job")
			return
		}
		respondError(c, http.StatusServiceUnavailable, codeUnavailable, "import could not be scheduled, try again later")
		return
	}

	job.SourceContent = ""
	respondAccepted(c, "import queued", newImportJobResponse(job))
}

// Detect reports which export format a file looks like without importing it.
// POST /api/imports/detect
func (ic *ImportsController) Detect(c *gin.Context) {
	filename, content, ok := ic.readUpload(c)
	if !ok {
		return
	}

	detection, err := importers.DetectFormat(filename, content)
	if err != nil {
		respondImportValidation(c, err)
		return
	}
	c.JSON(http.StatusOK, detection)
}

// Get returns one of the user's jobs with its failures and progress.
// GET /api/imports/:id
func (ic *ImportsController) Get(c *gin.Context) {
	job, err := ic.jobs.GetForUser(c.Request.Context(), GetUserID(c), c.Param("id"))
	if sqlerr.IsNotFound(err) {
		respondNotFound(c, "import job")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get import job")
		return
	}
	c.JSON(http.StatusOK, newImportJobResponse(job))
}

// List returns the user's jobs, newest first.
// GET /api/imports
func (ic *ImportsController) List(c *gin.Context) {
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	jobs, total, err := ic.jobs.ListForUser(c.Request.Context(), GetUserID(c), limit, offset)
	if err != nil {
		respondInternalError(c, err, "list import jobs")
		return
	}

	data := make([]ImportJobResponse, len(jobs))
	for i := range jobs {
		data[i] = newImportJobResponse(&jobs[i])
	}
	c.JSON(http.StatusOK, newPaginatedResponse(data, total, limit, offset))
}

// readUpload reads the multipart file, enforcing the extension and size limits.
func (ic *ImportsController) readUpload(c *gin.Context) (string, string, bool) {
	maxBytes := ic.config.MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	file, header, err := c.Request.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondFileTooLarge(c, maxBytes)
			return "", "", false
		}
		respondBadRequest(c, "file is required")
		return "", "", false
	}
	defer file.Close()

	if !importers.IsValidImportExtension(header.Filename) {
		respondImportValidation(c, &importers.ValidationError{Field: "file", Err: importers.ErrUnsupportedExtension})
		return "", "", false
	}
	if header.Size > maxBytes {
		respondFileTooLarge(c, maxBytes)
		return "", "", false
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		respondInternalError(c, err, "read upload")
		return "", "", false
	}
	if int64(len(data)) > maxBytes {
		respondFileTooLarge(c, maxBytes)
		return "", "", false
	}
	return utils.SanitizeFilename(header.Filename), string(data), true
}

// resolveFormat uses the explicit format field when given, otherwise detection.
// Either way the content must carry a matching signature.
func (ic *ImportsController) resolveFormat(c *gin.Context, filename, content string) (importers.ImportFormat, bool) {
	detection, err := importers.ResolveFormat(filename, content, c.PostForm("format"))
	if err != nil {
		respondImportValidation(c, err)
		return "", false
	}
	return detection.Format, true
}

func respondFileTooLarge(c *gin.Context, maxBytes int64) {
	respondError(c, http.StatusRequestEntityTooLarge, codeTooLarge,
		fmt.Sprintf("file is too large (max %d bytes)", maxBytes))
}

func respondImportValidation(c *gin.Context, err error) {
	switch {
	case errors.Is(err, importers.ErrUnrecognizedFormat):
		respondError(c, http.StatusBadRequest, codeUnrecognized, err.Error())
	case errors.Is(err, importers.ErrFileTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, codeTooLarge, err.Error())
	default:
		var validation *importers.ValidationError
		if errors.As(err, &validation) {
			respondBadRequest(c, validation.Error())
			return
		}
		respondInternalError(c, err, "validate upload")
	}
}
