package v1

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	exportdomain "bizit/internal/export/domain"
)

// RunAnalysis handler pour POST /api/analysis/run
func (h *Handler) RunAnalysis(c *gin.Context) {
	metrics, err := h.services.Analyses.Run(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": metrics})
}

// GetAnalysis handler pour GET /api/analysis/me
func (h *Handler) GetAnalysis(c *gin.Context) {
	metrics, err := h.services.Analyses.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": metrics})
}

// ExportAnalysis handler pour GET /api/analysis/export?format=csv|xlsx&type=trend|sales
func (h *Handler) ExportAnalysis(c *gin.Context) {
	job, err := exportdomain.NewExportJob(
		exportdomain.ExportFormat(c.DefaultQuery("format", "csv")),
		exportdomain.ExportType(c.DefaultQuery("type", "trend")),
		currentUser(c),
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.services.Exports.Export(c.Request.Context(), job)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.Filename+"\"; filename*=UTF-8''"+url.PathEscape(result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
