package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openride/backend/internal/api/dto"
	"github.com/openride/backend/internal/service/matching"
	"github.com/openride/backend/pkg/logger"
)

// Search handles POST /v1/search. Results are recomputed on every call so
// scores always reflect current seat availability; nothing here is cached.
func (h *Handlers) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "Invalid request payload", "details": err.Error()})
		return
	}

	windowStart, err := time.Parse(time.RFC3339, req.WindowStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "window_start must be RFC 3339"})
		return
	}
	windowEnd, err := time.Parse(time.RFC3339, req.WindowEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "window_end must be RFC 3339"})
		return
	}
	if !windowEnd.After(windowStart) {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "window_end must be after window_start"})
		return
	}

	started := time.Now()
	candidates, err := h.Store.ListOpenRoutes(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	query := matching.Query{
		Origin:      req.Origin,
		Destination: req.Destination,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		RequestedAt: started,
	}
	results := h.Ranker.Rank(query, candidates)
	if len(results) > h.MaxResults {
		results = results[:h.MaxResults]
	}

	latency := float64(time.Since(started).Milliseconds())
	h.Logger.Info("Search ranked",
		logger.String("origin", req.Origin),
		logger.String("destination", req.Destination),
		logger.Int("candidates", len(candidates)),
		logger.Int("results", len(results)),
	)
	h.Monitoring.RecordSearchRanked(req.Origin, req.Destination, len(results), latency)

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ListRoutes handles GET /v1/routes
func (h *Handlers) ListRoutes(c *gin.Context) {
	routes, err := h.Store.ListOpenRoutes(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes, "count": len(routes)})
}
