package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/exportlens/backend/internal/domain"
	"github.com/exportlens/backend/internal/usecase"
)

const apiVersion = "1.0.0"

// Handler holds dependencies for HTTP handlers
type Handler struct {
	extraction *usecase.ExtractionService
	analysis   *usecase.AnalysisService
}

// NewHandler creates a new HTTP handler
func NewHandler(extraction *usecase.ExtractionService, analysis *usecase.AnalysisService) *Handler {
	return &Handler{
		extraction: extraction,
		analysis:   analysis,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exportlens-backend",
		"version": apiVersion,
	})
}

// ExtractProduct fetches a product page URL and returns the product name and
// ingredient declaration found on it, plus the declaration pre-split into
// raw materials and additives so the extension can render the label
// structure without a second call
func (h *Handler) ExtractProduct(c *gin.Context) {
	if h.extraction == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Extraction service not configured",
		})
		return
	}

	var req domain.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	data, err := h.extraction.ExtractFromURL(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": data,
		"split":   domain.SplitIngredients(data.Ingredients),
	})
}

// SplitIngredients splits a declaration into raw materials and additives
// without calling anything external, so the extension can preview the split
// while the user edits
func (h *Handler) SplitIngredients(c *gin.Context) {
	var req domain.SplitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, domain.SplitIngredients(req.Ingredients))
}

// AnalyzeProduct requests an EU export compliance verdict for the submitted
// product and ingredient declaration
func (h *Handler) AnalyzeProduct(c *gin.Context) {
	if h.analysis == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analysis service not configured",
		})
		return
	}

	var req domain.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.analysis.AnalyzeProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondError maps domain errors onto HTTP statuses. Upstream failures
// surface as 502 so clients can tell our bugs from their outages.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request parameters"})
	case errors.Is(err, domain.ErrMissingAPIKey):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Gemini API key not provided"})
	case errors.Is(err, domain.ErrIngredientsNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No ingredient declaration found on the page"})
	case errors.Is(err, domain.ErrFetchFailed):
		// The detail lists every fetch strategy's failure.
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "Could not fetch the product page",
			"detail": err.Error(),
		})
	case errors.Is(err, domain.ErrGeminiAPIFailure):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "Gemini API temporarily unavailable",
			"detail": err.Error(),
		})
	case errors.Is(err, domain.ErrVerdictFormat):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  "Model reply did not contain a verdict",
			"detail": err.Error(),
		})
	default:
		log.Printf("[HTTP] Unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
