package enrichmentstub

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"moderator/internal/constants"
	"moderator/internal/logger"
	"moderator/pkg/errors"
)

type Handler struct {
	service Service
	logger  logger.Logger
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")
	{
		clients := v1.Group("/clients")
		{
			clients.GET("/health", h.Health)
			clients.GET("/:clientId/enrichment", h.GetEnrichment)
		}
	}
}

func (h *Handler) GetEnrichment(c *gin.Context) {
	clientID := c.Param("clientId")
	h.logger.InfowCtx(c.Request.Context(), "Received enrichment request", "client_id", clientID)

	data, err := h.service.Enrich(c.Request.Context(), clientID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, constants.StubHealthMessage)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}
