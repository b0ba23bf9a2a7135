package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pantrylens/backend/internal/domain"
	"github.com/pantrylens/backend/internal/logging"
	"github.com/pantrylens/backend/internal/usecase"
)

const (
	serviceName   = "pantrylens-backend"
	maxBatchItems = 100
)

// MatchService is the matching engine seen by the HTTP layer
type MatchService interface {
	Sources() []domain.SourceID
	MatchIngredient(ctx context.Context, req *domain.MatchRequest) (*domain.ProductMatch, error)
	MatchGroceryItems(ctx context.Context, items []*domain.GroceryItem, sources []domain.SourceID) ([]domain.ProductMatch, error)
	ParseIngredientLine(line string) (*domain.MatchRequest, bool)
	SourceHealth(ctx context.Context, source domain.SourceID) (domain.HealthStatus, error)
	AllSourceHealth(ctx context.Context) []domain.HealthStatus
	Promotions(ctx context.Context, source domain.SourceID) ([]domain.Product, error)
	InvalidateSourceCache(ctx context.Context, source domain.SourceID, prefix string) (int, error)
}

var _ MatchService = (*usecase.MatchingService)(nil)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matching MatchService
	version  string
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(matching MatchService, version string, logger *zap.Logger) *Handler {
	return &Handler{
		matching: matching,
		version:  version,
		logger:   logging.OrNop(logger).Named("http"),
	}
}

// errorResponse is the body of every failed request
type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// matchLineRequest accepts a single free-text ingredient line such as "2 cups flour"
type matchLineRequest struct {
	Line          string            `json:"line" binding:"required"`
	Sources       []domain.SourceID `json:"sources,omitempty"`
	InStockOnly   bool              `json:"inStockOnly,omitempty"`
	OrganicOnly   bool              `json:"organicOnly,omitempty"`
	MaxPriceCents *int64            `json:"maxPriceCents,omitempty"`
}

// batchRequest is a shopping list to match
type batchRequest struct {
	Items   []*domain.GroceryItem `json:"items" binding:"required"`
	Sources []domain.SourceID     `json:"sources,omitempty"`
}

type batchResponse struct {
	Items   []*domain.GroceryItem `json:"items"`
	Matches []domain.ProductMatch `json:"matches"`
	Summary batchSummary          `json:"summary"`
}

type batchSummary struct {
	Total          int   `json:"total"`
	Matched        int   `json:"matched"`
	NotFound       int   `json:"notFound"`
	TotalCostCents int64 `json:"totalCostCents"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": h.version,
		"sources": h.matching.Sources(),
	})
}

// MatchIngredient handles single ingredient match requests
func (h *Handler) MatchIngredient(c *gin.Context) {
	var req domain.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, domain.ErrInvalidRequest, "invalid request body")
		return
	}

	match, err := h.matching.MatchIngredient(c.Request.Context(), &req)
	if err != nil {
		h.abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, match)
}

// MatchLine parses a free-text ingredient line and matches it
func (h *Handler) MatchLine(c *gin.Context) {
	var body matchLineRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.abortWithError(c, domain.ErrInvalidRequest, "a non-empty line is required")
		return
	}

	req, ok := h.matching.ParseIngredientLine(body.Line)
	if !ok {
		// no leading amount: treat the whole line as the ingredient
		req = &domain.MatchRequest{IngredientName: strings.TrimSpace(body.Line), Quantity: 1, Unit: domain.UnitPiece}
	}
	req.Sources = body.Sources
	req.InStockOnly = body.InStockOnly
	req.OrganicOnly = body.OrganicOnly
	req.MaxPriceCents = body.MaxPriceCents

	match, err := h.matching.MatchIngredient(c.Request.Context(), req)
	if err != nil {
		h.abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, match)
}

// MatchBatch handles shopping list match requests
func (h *Handler) MatchBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, domain.ErrInvalidRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 || len(req.Items) > maxBatchItems {
		h.abortWithError(c, domain.ErrInvalidRequest, "items must contain between 1 and 100 entries")
		return
	}

	matches, err := h.matching.MatchGroceryItems(c.Request.Context(), req.Items, req.Sources)
	if err != nil {
		h.abortWithError(c, err, "")
		return
	}

	resp := batchResponse{Items: req.Items, Matches: matches, Summary: batchSummary{Total: len(matches)}}
	for _, m := range matches {
		if m.MatchType == domain.MatchTypeNotFound {
			resp.Summary.NotFound++
			continue
		}
		resp.Summary.Matched++
		resp.Summary.TotalCostCents += m.TotalCostCents
	}
	c.JSON(http.StatusOK, resp)
}

// AllSourcesHealth probes every registered source
func (h *Handler) AllSourcesHealth(c *gin.Context) {
	statuses := h.matching.AllSourceHealth(c.Request.Context())
	code := http.StatusOK
	for _, s := range statuses {
		if !s.Healthy {
			code = http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(code, gin.H{"sources": statuses})
}

// SourceHealth probes one source
func (h *Handler) SourceHealth(c *gin.Context) {
	source, ok := h.sourceParam(c)
	if !ok {
		return
	}

	status, err := h.matching.SourceHealth(c.Request.Context(), source)
	if err != nil {
		h.abortWithError(c, err, "")
		return
	}
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// Promotions lists the current offers of one source
func (h *Handler) Promotions(c *gin.Context) {
	source, ok := h.sourceParam(c)
	if !ok {
		return
	}

	products, err := h.matching.Promotions(c.Request.Context(), source)
	if err != nil {
		h.abortWithError(c, err, "")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "products": products, "count": len(products)})
}

// InvalidateCache drops cached catalog responses of one source
func (h *Handler) InvalidateCache(c *gin.Context) {
	source, ok := h.sourceParam(c)
	if !ok {
		return
	}

	prefix := c.Query("prefix")
	removed, err := h.matching.InvalidateSourceCache(c.Request.Context(), source, prefix)
	if err != nil {
		h.abortWithError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"source": source, "prefix": prefix, "removed": removed})
}

func (h *Handler) sourceParam(c *gin.Context) (domain.SourceID, bool) {
	source, err := domain.NewSourceID(c.Param("source"))
	if err != nil {
		h.abortWithError(c, err, "")
		return "", false
	}
	return source, true
}

// abortWithError maps domain errors onto HTTP statuses; message overrides the client-facing text
func (h *Handler) abortWithError(c *gin.Context, err error, message string) {
	status, code := statusFor(err)
	if message == "" {
		message = err.Error()
		if status >= http.StatusInternalServerError {
			message = http.StatusText(status)
		}
	}

	fields := []zap.Field{
		zap.Error(err),
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request rejected", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: message, Code: code, RequestID: requestid.Get(c)})
}

// statusFor returns the HTTP status and error code for an error
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, domain.ErrSourceNotRegistered):
		return http.StatusNotFound, "SOURCE_NOT_REGISTERED"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "UPSTREAM_RATE_LIMITED"
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, domain.ErrCircuitOpen):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrUpstreamStatus), errors.Is(err, domain.ErrDecode):
		return http.StatusBadGateway, "UPSTREAM_ERROR"
	case errors.Is(err, context.Canceled):
		return 499, "CLIENT_CLOSED_REQUEST"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
