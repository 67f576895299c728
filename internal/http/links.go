package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/marked/internal/canonical"
	"github.com/mrlokans/marked/internal/database/links"
	"github.com/mrlokans/marked/internal/database/sqlerr"
	"github.com/mrlokans/marked/internal/entities"
)

// sourceManual marks links saved through the API rather than an import.
const sourceManual = "manual"

type LinksController struct {
	links   LinkStore
	folders FolderStore
	canon   *canonical.Canonicalizer
	auditor Auditor
}

func NewLinksController(links LinkStore, folders FolderStore, canon *canonical.Canonicalizer, auditor Auditor) *LinksController {
	if canon == nil {
		canon = canonical.Default()
	}
	return &LinksController{links: links, folders: folders, canon: canon, auditor: auditor}
}

type createLinkRequest struct {
	URL         string   `json:"url" binding:"required"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	FolderID    *uint    `json:"folder_id"`
	Tags        []string `json:"tags"`
}

// List returns a page of the user's links. folder_id=0 lists the root.
// GET /api/links
func (lc *LinksController) List(c *gin.Context) {
	folderID, ok := parseOptionalQueryID(c, "folder_id")
	if !ok {
		return
	}
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	instances, total, err := lc.links.ListInstances(c.Request.Context(), GetUserID(c), folderID, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list links")
		return
	}
	c.JSON(http.StatusOK, newPaginatedResponse(instances, total, limit, offset))
}

// Get returns one link.
// GET /api/links/:id
func (lc *LinksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	instance, err := lc.links.GetInstance(c.Request.Context(), GetUserID(c), id)
	if sqlerr.IsNotFound(err) {
		respondNotFound(c, "link")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get link")
		return
	}
	c.JSON(http.StatusOK, instance)
}

// Create saves a single URL for the user.
// POST /api/links
func (lc *LinksController) Create(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "url is required")
		return
	}

	res, err := lc.canon.Canonicalize(req.URL)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := GetUserID(c)

	folderID := entities.NoFolder
	if req.FolderID != nil {
		folderID = *req.FolderID
	}
	if folderID != entities.NoFolder {
		exists, err := lc.folders.Exists(ctx, userID, folderID)
		if err != nil {
			respondInternalError(c, err, "check folder")
			return
		}
		if !exists {
			respondNotFound(c, "folder")
			return
		}
	}

	canonicalID, err := lc.links.UpsertCanonical(ctx, &entities.LinkCanonical{
		URLKey:      res.URLKey,
		OriginalURL: res.OriginalURL,
		Domain:      res.Domain,
		Pathname:    res.Pathname,
	})
	if err != nil {
		respondInternalError(c, err, "upsert canonical")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = res.OriginalURL
	}
	instance := &entities.LinkInstance{
		UserID:      userID,
		CanonicalID: canonicalID,
		FolderID:    folderID,
		Title:       title,
		Description: req.Description,
		URL:         res.OriginalURL,
		SourceType:  sourceManual,
	}

	created, err := lc.links.CreateInstance(ctx, instance, req.Tags)
	if err != nil {
		respondInternalError(c, err, "create link")
		return
	}
	if !created {
		respondConflict(c, links.ErrDuplicate.Error())
		return
	}

	if lc.auditor != nil {
		lc.auditor.LogLinkCreate(userID, instance.ID, res.OriginalURL)
	}

	saved, err := lc.links.GetInstance(ctx, userID, instance.ID)
	if err != nil {
		respondInternalError(c, err, "reload link")
		return
	}
	respondCreated(c, saved)
}

// Update applies a partial update. Omitted fields are left untouched and
// "folder_id": null moves the link to the root.
// PATCH /api/links/:id
func (lc *LinksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var update entities.LinkInstanceUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if update.IsEmpty() {
		respondBadRequest(c, "no fields to update")
		return
	}

	userID := GetUserID(c)
	instance, err := lc.links.UpdateInstance(c.Request.Context(), userID, id, update)
	switch {
	case sqlerr.IsNotFound(err):
		respondNotFound(c, "link")
		return
	case errors.Is(err, links.ErrFolderNotFound):
		respondNotFound(c, "folder")
		return
	case errors.Is(err, links.ErrDuplicate):
		respondConflict(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "update link")
		return
	}

	if lc.auditor != nil {
		lc.auditor.LogLinkUpdate(userID, id, describeLinkUpdate(update))
	}
	c.JSON(http.StatusOK, instance)
}

func describeLinkUpdate(u entities.LinkInstanceUpdate) string {
	var changed []string
	if u.Title.Set {
		changed = append(changed, "title")
	}
	if u.Description.Set {
		changed = append(changed, "description")
	}
	if u.FolderID.Set {
		changed = append(changed, "folder")
	}
	if u.Position.Set {
		changed = append(changed, "position")
	}
	return "Updated " + strings.Join(changed, ", ")
}
