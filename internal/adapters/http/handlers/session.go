package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-session/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-session/internal/app"
)

// SessionHandler exposes the caller's quote session.
type SessionHandler struct {
	sessions *app.SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *app.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get handles GET /api/v1/session.
//
// @Summary Get the session state
// @Tags session
// @Produce json
// @Success 200 {object} dto.SessionResponse
// @Router /api/v1/session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSessionResponse(h.sessions.Snapshot(c.Request.Context())))
}

// Load handles POST /api/v1/session/load.
// The load runs in the background and the call answers 202 with its
// ticket; with ?wait=true it answers once the load has finished.
//
// @Summary Load the quote collection
// @Tags session
// @Produce json
// @Param wait query bool false "Wait for the load to finish"
// @Success 200 {object} dto.SessionResponse
// @Success 202 {object} dto.LoadResponse
// @Failure 409 {object} dto.Problem
// @Failure 422 {object} dto.Problem
// @Failure 502 {object} dto.Problem
// @Router /api/v1/session/load [post]
func (h *SessionHandler) Load(c *gin.Context) {
	wait, err := strconv.ParseBool(c.DefaultQuery("wait", "false"))
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeBadRequest, "wait must be a boolean")
		return
	}

	ctx := c.Request.Context()

	pending, err := h.sessions.RequestLoad(ctx)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	if !wait {
		c.Header("Location", strings.TrimSuffix(c.FullPath(), "/load"))
		c.JSON(http.StatusAccepted, dto.LoadResponse{Ticket: pending.Ticket.Seq, Status: "loading"})

		return
	}

	res, err := pending.Wait(ctx)
	if err != nil {
		dto.RespondWithCode(c, dto.ErrorCodeTimeout, "load still in progress")
		return
	}

	if res.Err != nil {
		dto.HandleError(c, res.Err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(res.Snapshot))
}

// Next handles POST /api/v1/session/next.
func (h *SessionHandler) Next(c *gin.Context) {
	q, err := h.sessions.Next(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NavigationResponse{Quote: dto.NewQuoteResponse(q), Moved: true})
}

// Previous handles POST /api/v1/session/previous.
func (h *SessionHandler) Previous(c *gin.Context) {
	q, moved, err := h.sessions.Previous(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NavigationResponse{Quote: dto.NewQuoteResponse(q), Moved: moved})
}

// LikeCurrent handles POST /api/v1/session/like.
func (h *SessionHandler) LikeCurrent(c *gin.Context) {
	id, liked, err := h.sessions.LikeCurrent(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LikeResponse{ID: id, Liked: liked})
}

// ToggleLike handles PUT /api/v1/session/likes/:id.
func (h *SessionHandler) ToggleLike(c *gin.Context) {
	id := c.Param("id")

	liked, err := h.sessions.ToggleLike(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LikeResponse{ID: id, Liked: liked})
}

// Likes handles GET /api/v1/session/likes.
func (h *SessionHandler) Likes(c *gin.Context) {
	quotes := h.sessions.LikedQuotes(c.Request.Context())

	c.JSON(http.StatusOK, dto.ListResponse[dto.QuoteResponse]{Items: dto.NewQuoteResponses(quotes)})
}

// SetError handles POST /api/v1/session/error.
func (h *SessionHandler) SetError(c *gin.Context) {
	var req dto.SetErrorRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithValidationErrors(c, err)
		return
	}

	var msg string
	if req.Message != nil {
		msg = *req.Message
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(h.sessions.SetError(c.Request.Context(), msg)))
}

// SetLoading handles POST /api/v1/session/loading.
func (h *SessionHandler) SetLoading(c *gin.Context) {
	var req dto.SetLoadingRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithValidationErrors(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(h.sessions.SetLoading(c.Request.Context(), *req.Loading)))
}

// ReplaceQuotes handles PUT /api/v1/session/quotes.
//
// @Summary Replace the collection with caller-supplied quotes
// @Tags session
// @Accept json
// @Produce json
// @Param body body dto.ReplaceQuotesRequest true "Quotes"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} dto.Problem
// @Failure 422 {object} dto.Problem
// @Router /api/v1/session/quotes [put]
func (h *SessionHandler) ReplaceQuotes(c *gin.Context) {
	var req dto.ReplaceQuotesRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithValidationErrors(c, err)
		return
	}

	snap, err := h.sessions.ReplaceQuotes(c.Request.Context(), req.DomainQuotes())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSessionResponse(snap))
}

// SignOut handles DELETE /api/v1/session.
func (h *SessionHandler) SignOut(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context()); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterSessionRoutes registers session routes on the given router group.
func (h *SessionHandler) RegisterSessionRoutes(rg *gin.RouterGroup) {
	session := rg.Group("/session")
	session.GET("", h.Get)
	session.DELETE("", h.SignOut)
	session.POST("/load", h.Load)
	session.POST("/next", h.Next)
	session.POST("/previous", h.Previous)
	session.POST("/like", h.LikeCurrent)
	session.GET("/likes", h.Likes)
	session.PUT("/likes/:id", h.ToggleLike)
	session.POST("/error", h.SetError)
	session.POST("/loading", h.SetLoading)
	session.PUT("/quotes", h.ReplaceQuotes)
}
