package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleData serves the aggregate snapshot. It always answers 200.
func (s *Server) handleData(c *gin.Context) {
	// Queries run to completion or timeout even if the client goes away.
	ctx := context.WithoutCancel(c.Request.Context())

	c.JSON(http.StatusOK, s.aggregator.Snapshot(ctx))
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
