package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	solutionapp "bizit/internal/solution/application"
)

// GenerateSolutions handler pour POST /api/solution/generate
func (h *Handler) GenerateSolutions(c *gin.Context) {
	solutions, err := h.services.Solutions.Generate(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": solutions})
}

// ListSolutions handler pour GET /api/solution/list
func (h *Handler) ListSolutions(c *gin.Context) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = solutionapp.DefaultListLimit
	}
	solutions, err := h.services.Solutions.List(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, solutions)
}
