package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	storedomain "bizit/internal/store/domain"
)

// maxUploadSize taille maximale d'un fichier de ventes importé
const maxUploadSize = 10 << 20

// ParseSalesFile handler pour POST /api/store/parse-file (multipart "file")
func (h *Handler) ParseSalesFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, err)
		return
	}
	f, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadSize))
	if err != nil {
		h.fail(c, err)
		return
	}

	logs, err := h.services.Stores.ParseSalesFile(header.Filename, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "file parsed successfully",
		"suggested_data": gin.H{"sales_logs": logs},
	})
}

// SubmitStore handler pour POST /api/store/submit
func (h *Handler) SubmitStore(c *gin.Context) {
	var profile storedomain.StoreProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.services.Stores.Submit(c.Request.Context(), currentUser(c), &profile)
	if err != nil {
		h.fail(c, err)
		return
	}

	message := "store profile updated"
	if result.Created {
		message = "store profile created"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         message,
		"user_id":         result.UserID,
		"analysis_status": result.AnalysisStatus,
		"warning":         result.Warning,
		"surrounding":     result.Surrounding.Summary(),
	})
}

// GetStore handler pour GET /api/store/me
func (h *Handler) GetStore(c *gin.Context) {
	profile, err := h.services.Stores.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
