package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-session/internal/app"
)

// AuthoredHandler manages the quotes the caller wrote.
type AuthoredHandler struct {
	service *app.AuthoredService
}

// NewAuthoredHandler creates a new authored quote handler.
func NewAuthoredHandler(service *app.AuthoredService) *AuthoredHandler {
	return &AuthoredHandler{service: service}
}

func bindAuthored(c *gin.Context) (app.AuthoredQuote, bool) {
	var req dto.AuthoredQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithValidationErrors(c, err)
		return app.AuthoredQuote{}, false
	}

	return app.AuthoredQuote{Content: req.Content, Author: req.Author, Tags: req.Tags}, true
}

// List handles GET /api/v1/me/quotes.
//
// @Summary List the caller's own quotes
// @Tags authored
// @Produce json
// @Success 200 {object} dto.ListResponse[dto.QuoteResponse]
// @Router /api/v1/me/quotes [get]
func (h *AuthoredHandler) List(c *gin.Context) {
	quotes, err := h.service.List(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListResponse[dto.QuoteResponse]{Items: dto.NewQuoteResponses(quotes)})
}

// Create handles POST /api/v1/me/quotes.
//
// @Summary Write a quote
// @Tags authored
// @Accept json
// @Produce json
// @Param body body dto.AuthoredQuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.Problem
// @Failure 409 {object} dto.Problem
// @Router /api/v1/me/quotes [post]
func (h *AuthoredHandler) Create(c *gin.Context) {
	in, ok := bindAuthored(c)
	if !ok {
		return
	}

	q, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", c.FullPath()+"/"+q.ID)
	c.JSON(http.StatusCreated, dto.NewQuoteResponse(q))
}

// Update handles PUT /api/v1/me/quotes/:id.
func (h *AuthoredHandler) Update(c *gin.Context) {
	in, ok := bindAuthored(c)
	if !ok {
		return
	}

	q, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// Delete handles DELETE /api/v1/me/quotes/:id.
func (h *AuthoredHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterAuthoredRoutes registers the authored quote routes on rg.
func (h *AuthoredHandler) RegisterAuthoredRoutes(rg *gin.RouterGroup) {
	mine := rg.Group("/me/quotes")
	mine.GET("", h.List)
	mine.POST("", h.Create)
	mine.PUT("/:id", h.Update)
	mine.DELETE("/:id", h.Delete)
}
