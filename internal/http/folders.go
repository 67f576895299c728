package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/marked/internal/database/folders"
	"github.com/mrlokans/marked/internal/database/sqlerr"
	"github.com/mrlokans/marked/internal/entities"
)

type FoldersController struct {
	folders FolderStore
	auditor Auditor
}

func NewFoldersController(folders FolderStore, auditor Auditor) *FoldersController {
	return &FoldersController{folders: folders, auditor: auditor}
}

// List returns the user's folders as a flat list ordered by parent and position.
// GET /api/folders
func (fc *FoldersController) List(c *gin.Context) {
	list, err := fc.folders.ListForUser(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list folders")
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": list})
}

// Update renames, moves or reorders a folder. "parent_id": null moves it to the root.
// PATCH /api/folders/:id
func (fc *FoldersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var update entities.FolderUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if update.IsEmpty() {
		respondBadRequest(c, "no fields to update")
		return
	}

	userID := GetUserID(c)
	folder, err := fc.folders.Update(c.Request.Context(), userID, id, update)
	switch {
	case sqlerr.IsNotFound(err):
		respondNotFound(c, "folder")
		return
	case errors.Is(err, folders.ErrParentNotFound):
		respondNotFound(c, "parent folder")
		return
	case errors.Is(err, folders.ErrCycle), errors.Is(err, folders.ErrInvalidName):
		respondBadRequest(c, err.Error())
		return
	case errors.Is(err, folders.ErrDuplicateName):
		respondConflict(c, err.Error())
		return
	case err != nil:
		respondInternalError(c, err, "update folder")
		return
	}

	if fc.auditor != nil {
		fc.auditor.LogFolderUpdate(userID, id, describeFolderUpdate(update))
	}
	c.JSON(http.StatusOK, folder)
}

func describeFolderUpdate(u entities.FolderUpdate) string {
	var changed []string
	if u.Name.Set {
		changed = append(changed, "name")
	}
	if u.ParentID.Set {
		changed = append(changed, "parent")
	}
	if u.Position.Set {
		changed = append(changed, "position")
	}
	return "Updated " + strings.Join(changed, ", ")
}
