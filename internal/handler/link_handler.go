package handler

import (
	"net/http"
	"strconv"

	"github.com/SergeiKhy/shrinkurl/internal/models"
	"github.com/SergeiKhy/shrinkurl/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LinkHandler struct {
	service service.LinkService
	baseURL string
	logger  *zap.Logger
}

func NewLinkHandler(service service.LinkService, baseURL string, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		logger:  logger,
	}
}

type CreateLinkResponse struct {
	Message   string `json:"message"`
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

type ListLinksResponse struct {
	Message string        `json:"message"`
	Links   []models.Link `json:"links"`
}

// CreateLink POST /api/v1/links
func (h *LinkHandler) CreateLink(c *gin.Context) {
	owner, ok := ownerOrAbort(c)
	if !ok {
		return
	}

	var input models.CreateLinkInput
	if !bindJSON(c, &input) {
		return
	}

	code, err := h.service.CreateLink(c.Request.Context(), owner, &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, CreateLinkResponse{
		Message:   "Short URL created successfully",
		ShortCode: code,
		ShortURL:  h.baseURL + "/" + code,
	})
}

// Redirect GET /:code
func (h *LinkHandler) Redirect(c *gin.Context) {
	event := &models.ClickEvent{
		ShortCode: c.Param("code"),
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}

	target, err := h.service.Resolve(c.Request.Context(), event)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

// ListLinks GET /api/v1/links
func (h *LinkHandler) ListLinks(c *gin.Context) {
	owner, ok := ownerOrAbort(c)
	if !ok {
		return
	}

	links, err := h.service.ListLinks(c.Request.Context(), owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if len(links) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, ListLinksResponse{
		Message: "URLs retrieved successfully",
		Links:   links,
	})
}

// EditLink PUT /api/v1/links/:code
func (h *LinkHandler) EditLink(c *gin.Context) {
	owner, ok := ownerOrAbort(c)
	if !ok {
		return
	}

	var input models.EditLinkInput
	if !bindJSON(c, &input) {
		return
	}

	if err := h.service.EditLink(c.Request.Context(), owner, c.Param("code"), &input); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "URL updated successfully"})
}

// DeleteLink DELETE /api/v1/links/:code
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	owner, ok := ownerOrAbort(c)
	if !ok {
		return
	}

	if err := h.service.DeleteLink(c.Request.Context(), owner, c.Param("code")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "URL deleted successfully"})
}

// QRCode GET /api/v1/links/:code/qr?size=256
func (h *LinkHandler) QRCode(c *gin.Context) {
	owner, ok := ownerOrAbort(c)
	if !ok {
		return
	}

	size := service.DefaultQRSize
	if s := c.Query("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "size must be an integer"})
			return
		}
		size = n
	}

	png, err := h.service.QRCode(c.Request.Context(), owner, c.Param("code"), size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
