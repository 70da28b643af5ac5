package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	analyticsapp "bizit/internal/analytics/application"
	analyticsdomain "bizit/internal/analytics/domain"
	chatapp "bizit/internal/chat/application"
	chatdomain "bizit/internal/chat/domain"
	exportapp "bizit/internal/export/application"
	exportdomain "bizit/internal/export/domain"
	geodomain "bizit/internal/geo/domain"
	sharedinfra "bizit/internal/shared/infrastructure"
	solutionapp "bizit/internal/solution/application"
	solutiondomain "bizit/internal/solution/domain"
	storeapp "bizit/internal/store/application"
	storedomain "bizit/internal/store/domain"
	storeinfra "bizit/internal/store/infrastructure"
	userapp "bizit/internal/user/application"
	userdomain "bizit/internal/user/domain"
)

// userIDKey clé du commerçant authentifié dans le contexte gin
const userIDKey = "user_id"

// Services services applicatifs exposés par l'API
type Services struct {
	Users     *userapp.UserService
	Stores    *storeapp.StoreService
	Analyses  *analyticsapp.AnalysisService
	Solutions *solutionapp.SolutionService
	Chat      *chatapp.ChatService
	Exports   *exportapp.ExportService
}

// Handler handlers de l'API V1
type Handler struct {
	services Services
	logger   *zap.Logger
}

// NewHandler crée une nouvelle instance des handlers V1
func NewHandler(services Services, logger *zap.Logger) *Handler {
	return &Handler{services: services, logger: logger}
}

// RegisterRoutes enregistre les routes sous /api
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)

	// comptes
	router.POST("/user/signup", h.Signup)
	router.POST("/user/signin", h.Signin)

	auth := router.Group("", h.Authenticate)
	auth.POST("/user/signout", h.Signout)

	// fiche magasin
	auth.POST("/store/parse-file", h.ParseSalesFile)
	auth.POST("/store/parse-csv", h.ParseSalesFile)
	auth.POST("/store/submit", h.SubmitStore)
	auth.GET("/store/me", h.GetStore)

	// analyse comparative
	auth.POST("/analysis/run", h.RunAnalysis)
	auth.GET("/analysis/me", h.GetAnalysis)
	auth.GET("/analysis/export", h.ExportAnalysis)

	// recommandations
	auth.POST("/solution/generate", h.GenerateSolutions)
	auth.GET("/solution/list", h.ListSolutions)

	// conversation
	auth.POST("/chat/conversation", h.Converse)
	auth.POST("/chat/reset", h.ResetChat)
}

// Health handler pour GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Authenticate middleware: jeton dans l'en-tête "token" ou "Authorization: Bearer"
func (h *Handler) Authenticate(c *gin.Context) {
	token := c.GetHeader("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	userID, err := h.services.Users.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.fail(c, err)
		c.Abort()
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// fail traduit une erreur applicative en réponse HTTP
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"detail": err.Error()}

	switch {
	case analyticsdomain.IsNotReady(err):
		status = http.StatusConflict
		body["status"] = "pending"
	case analyticsdomain.IsSystemic(err):
		status = http.StatusServiceUnavailable
		body["status"] = "unavailable"
	case errors.Is(err, analyticsdomain.ErrMalformedDate),
		errors.Is(err, analyticsdomain.ErrInvalidRevenue):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, userdomain.ErrUnauthorized),
		errors.Is(err, userdomain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, userdomain.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, storedomain.ErrStoreNotFound),
		errors.Is(err, sharedinfra.ErrNotFound),
		errors.Is(err, geodomain.ErrAddressNotFound):
		status = http.StatusNotFound
	case errors.Is(err, userdomain.ErrInvalidSignup),
		errors.Is(err, storedomain.ErrInvalidProfile),
		errors.Is(err, storeinfra.ErrUnsupportedFile),
		errors.Is(err, chatdomain.ErrEmptyMessage),
		errors.Is(err, exportdomain.ErrInvalidExport):
		status = http.StatusBadRequest
	case errors.Is(err, sharedinfra.ErrLLMNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, solutiondomain.ErrNoSolutions),
		errors.Is(err, sharedinfra.ErrLLMEmptyResponse):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", currentUser(c)),
			zap.Int("status", status),
			zap.Error(err))
		if status == http.StatusInternalServerError {
			body["detail"] = "internal server error"
		}
	}
	c.JSON(status, body)
}

// badRequest corps de requête illisible
func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
}
