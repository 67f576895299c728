package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/marked/internal/canonical"
)

type URLsController struct {
	canon *canonical.Canonicalizer
}

func NewURLsController(canon *canonical.Canonicalizer) *URLsController {
	if canon == nil {
		canon = canonical.Default()
	}
	return &URLsController{canon: canon}
}

// Canonical returns the canonical form of a URL.
// GET /api/urls/canonical?url=
func (uc *URLsController) Canonical(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		respondBadRequest(c, "url is required")
		return
	}

	res, err := uc.canon.Canonicalize(raw)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

// Equivalent reports whether two URLs share a canonical key. Unparseable
// input is never equivalent to anything.
// GET /api/urls/equivalent?a=&b=
func (uc *URLsController) Equivalent(c *gin.Context) {
	a, b := c.Query("a"), c.Query("b")
	if a == "" || b == "" {
		respondBadRequest(c, "a and b are required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"equivalent": uc.canon.Equivalent(a, b)})
}
