package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"inkstudio/internal/domain"
	"inkstudio/internal/store"
)

func (s *Server) putAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var week domain.WeekSchedule
	if err := c.BindJSON(&week); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := s.availability.Put(c.Request.Context(), id, week)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) getAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	week, err := s.availability.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no availability published"})
			return
		}
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, week)
}
