package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-session/internal/app"
)

// QuoteHandler serves read-only views of the caller's quote collection.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// List handles GET /api/v1/quotes.
// Returns one page of the collection, optionally fuzzy-filtered with ?q=.
//
// @Summary List quotes of the session collection
// @Tags quotes
// @Produce json
// @Param q query string false "Fuzzy filter on content and author"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.Problem
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) List(c *gin.Context) {
	var req dto.PaginationRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.RespondWithValidationErrors(c, err)
		return
	}

	after, err := req.After()
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	page, err := h.service.List(c.Request.Context(), app.QuoteQuery{
		Search: req.Query,
		After:  after,
		Limit:  req.Limit,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PaginatedResponse[dto.QuoteResponse]{
		Items:      dto.NewQuoteResponses(page.Quotes),
		NextCursor: dto.EncodeCursor(page.Next),
		HasMore:    page.HasMore,
		Total:      page.Total,
	})
}

// GetQuoteByID handles GET /api/v1/quotes/:id.
//
// @Summary Get a quote by ID
// @Description Looks the quote up in the session collection, then upstream
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.Problem
// @Failure 503 {object} dto.Problem
// @Router /api/v1/quotes/{id} [get]
func (h *QuoteHandler) GetQuoteByID(c *gin.Context) {
	q, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(q))
}

// RegisterQuoteRoutes registers quote routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.List)
	quotes.GET("/:id", h.GetQuoteByID)
}
