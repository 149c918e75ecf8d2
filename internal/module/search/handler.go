package search

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/searchmux/server/internal/module/search/credit"
	"github.com/searchmux/server/internal/module/search/engine"
	"github.com/searchmux/server/internal/module/search/history"
	"github.com/searchmux/server/internal/module/search/strategy"
	"github.com/searchmux/server/internal/shared/response"
)

// Handler exposes the search module over HTTP.
type Handler struct {
	service  *Service
	credits  *credit.Manager
	registry *engine.Registry
	history  history.Repository
}

// NewHandler creates a search handler.
func NewHandler(service *Service, credits *credit.Manager, registry *engine.Registry, hist history.Repository) *Handler {
	return &Handler{
		service:  service,
		credits:  credits,
		registry: registry,
		history:  hist,
	}
}

// RegisterRoutes registers search routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/search", h.Search)
	r.GET("/engines", h.Engines)
	r.GET("/credits", h.Credits)
	r.GET("/credits/:engine", h.EngineCredits)
	r.POST("/credits/save", h.SaveCredits)
	if h.history != nil {
		r.GET("/history", h.History)
	}
}

// Search dispatches a meta-search request.
func (h *Handler) Search(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.Search(c.Request.Context(), &req)
	if err != nil {
		handleSearchError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Engines lists static engine metadata.
func (h *Handler) Engines(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"engines": h.registry.Metadata()})
}

// Credits lists credit snapshots for every configured engine.
func (h *Handler) Credits(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"credits": h.credits.Snapshots()})
}

// EngineCredits returns the credit snapshot for one engine.
func (h *Handler) EngineCredits(c *gin.Context) {
	snap, err := h.credits.Snapshot(engine.ID(c.Param("engine")))
	if err != nil {
		handleSearchError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// SaveCredits persists the credit ledger on demand.
func (h *Handler) SaveCredits(c *gin.Context) {
	if err := h.credits.SaveState(c.Request.Context()); err != nil {
		response.InternalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved"})
}

// History lists recent search history records.
func (h *Handler) History(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	records, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

// searchErrorMappings maps domain errors onto HTTP responses.
var searchErrorMappings = []response.ErrorMapping{
	{Err: ErrEmptyQuery, Status: http.StatusBadRequest, Code: "EMPTY_QUERY"},
	{Err: strategy.ErrUnknownPolicy, Status: http.StatusBadRequest, Code: "UNKNOWN_POLICY"},
	{Err: credit.ErrUnknownEngine, Status: http.StatusNotFound, Code: "UNKNOWN_ENGINE"},
	{Err: credit.ErrNoCreditRecord, Status: http.StatusServiceUnavailable, Code: "NO_CREDIT_RECORD"},
	{Err: credit.ErrInsufficientCredits, Status: http.StatusPaymentRequired, Code: "INSUFFICIENT_CREDITS"},
	{Err: strategy.ErrNoEligibleEngine, Status: http.StatusPaymentRequired, Code: "NO_ELIGIBLE_ENGINE"},
	{Err: engine.ErrMissingCredential, Status: http.StatusBadGateway, Code: "MISSING_CREDENTIAL"},
	{Err: engine.ErrTransport, Status: http.StatusBadGateway, Code: "TRANSPORT_ERROR"},
	{Err: engine.ErrMalformedResponse, Status: http.StatusBadGateway, Code: "MALFORMED_RESPONSE"},
	{Err: engine.ErrEmptyResult, Status: http.StatusNotFound, Code: "EMPTY_RESULT"},
}

// handleSearchError resolves an error to an HTTP response, including the
// typed backend error which carries the upstream status code.
func handleSearchError(c *gin.Context, err error) {
	var backendErr *engine.BackendError
	if errors.As(err, &backendErr) {
		response.ErrorWithCode(c, http.StatusBadGateway, "BACKEND_HTTP_ERROR", backendErr.Error())
		return
	}
	response.HandleErrorWithDefault(c, err, searchErrorMappings)
}
