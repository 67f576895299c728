package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/marked/internal/entities"
)

type TagsController struct {
	store TagStore
}

func NewTagsController(store TagStore) *TagsController {
	return &TagsController{store: store}
}

// List returns the current user's tags, filtered by substring when q is set.
// GET /api/tags
func (tc *TagsController) List(c *gin.Context) {
	var (
		tags []entities.Tag
		err  error
	)
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		tags, err = tc.store.SearchTags(c.Request.Context(), GetUserID(c), q)
	} else {
		tags, err = tc.store.GetTagsForUser(c.Request.Context(), GetUserID(c))
	}
	if err != nil {
		respondInternalError(c, err, "list tags")
		return
	}
	c.JSON(http.StatusOK, tags)
}
