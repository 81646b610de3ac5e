package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/parkwatch/internal/metrics"
	"github.com/02loveslollipop/parkwatch/internal/query"
)

// handleZonesInBBox returns zones inside a bounding box
// GET /api/zones?bbox=min_lon,min_lat,max_lon,max_lat
func (s *Server) handleZonesInBBox(c *gin.Context) {
	bbox, err := query.ParseBBox(c.Query("bbox"))
	if err != nil {
		metrics.ZoneQueriesTotal.WithLabelValues("bad_request").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := s.query.ZonesInBBox(ctx, bbox)
	if err != nil {
		metrics.ZoneQueriesTotal.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.ZoneQueriesTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handleStatus reports data freshness
// GET /api/status
func (s *Server) handleStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	st, err := s.query.Status(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, st)
}
