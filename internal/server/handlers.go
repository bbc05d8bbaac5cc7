package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/medialoom/loom/internal/engine"
	"github.com/medialoom/loom/internal/settings"
	"github.com/medialoom/loom/pkg/models"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleResolve implements POST /api/resolve.
//
// Status mapping: 400 missing/malformed URL, 200 success (either origin),
// 500 when both the external API and the local engine failed.
func (s *Server) handleResolve(c *gin.Context) {
	var req models.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "URL is required",
			"message": "Please provide a valid URL",
		})
		return
	}

	item := s.queue.Add(req.URL)
	s.queue.MarkProcessing(item.ID)

	result, err := s.resolver.Resolve(c.Request.Context(), req.URL)
	if err != nil {
		if engine.IsInputError(err) {
			s.queue.Fail(item.ID, err.Error())
			msg := "The provided URL is not valid"
			label := "Invalid URL format"
			if engine.CodeOf(err) == engine.ErrCodeMissingURL {
				msg = "Please provide a valid URL"
				label = "URL is required"
			}
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   label,
				"message": msg,
			})
			return
		}

		log.Error().Err(err).Str("url", req.URL).Msg("Resolution failed on both paths")
		s.queue.Fail(item.ID, err.Error())

		failure := engine.FailureResult(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Both external API and internal engine failed",
			"message": failure.Error,
			"origin":  failure.Origin,
		})
		return
	}

	s.queue.Complete(item.ID, result)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleQueueList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": s.queue.List()})
}

func (s *Server) handleQueueRemove(c *gin.Context) {
	if !s.queue.Remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "queue item not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleQueueClear(c *gin.Context) {
	removed := s.queue.ClearFinished()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings.Get())
}

func (s *Server) handleSetSettings(c *gin.Context) {
	var state settings.State
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings body"})
		return
	}

	if err := s.settings.Set(state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.settings.Get())
}
