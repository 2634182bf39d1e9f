package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inkstudio/internal/domain"
	"inkstudio/internal/service/scheduling"
)

type createReservationRequest struct {
	ProfessionalID uuid.UUID `json:"professional_id" binding:"required"`
	ServiceType    string    `json:"service_type" binding:"required"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"start_time" binding:"required"`
	Price          float64   `json:"price"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func (s *Server) createReservation(c *gin.Context) {
	callerID, _, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}

	var req createReservationRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.scheduling.Create(c.Request.Context(), scheduling.CreateInput{
		ClientID:       callerID,
		ProfessionalID: req.ProfessionalID,
		ServiceType:    req.ServiceType,
		Description:    req.Description,
		StartTime:      req.StartTime,
		Price:          req.Price,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) getReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	summary, err := s.scheduling.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type updateReservationRequest struct {
	ServiceType string    `json:"service_type" binding:"required"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" binding:"required"`
}

func (s *Server) updateReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, _, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}

	var req updateReservationRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.scheduling.Update(c.Request.Context(), scheduling.UpdateInput{
		ReservationID: id,
		CallerUserID:  callerID,
		ServiceType:   req.ServiceType,
		Description:   req.Description,
		StartTime:     req.StartTime,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) removeReservation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	_, roles, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}
	if err := s.scheduling.Remove(c.Request.Context(), roles, id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) updateReservationStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, roles, ok := callerIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "caller identity required"})
		return
	}

	var req statusRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.scheduling.UpdateStatus(c.Request.Context(), scheduling.StatusInput{
		ReservationID: id,
		CallerUserID:  callerID,
		CallerRoles:   roles,
		Status:        req.Status,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) listClientReservations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	var (
		page scheduling.Page
		err  error
	)
	switch c.DefaultQuery("scope", "upcoming") {
	case "history":
		page, err = s.scheduling.ListClientHistory(c.Request.Context(), id, offset, limit)
	case "upcoming":
		page, err = s.scheduling.ListClientUpcoming(c.Request.Context(), id, offset, limit)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be upcoming or history"})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) listProfessionalReservations(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	offset, limit := pagination(c)

	var (
		page scheduling.Page
		err  error
	)
	switch c.DefaultQuery("scope", "upcoming") {
	case "history":
		page, err = s.scheduling.ListProfessionalHistory(c.Request.Context(), id, offset, limit)
	case "upcoming":
		page, err = s.scheduling.ListProfessionalUpcoming(c.Request.Context(), id, offset, limit)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "scope must be upcoming or history"})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type serviceTypeView struct {
	Name          domain.ServiceType `json:"name"`
	Label         string             `json:"label"`
	DurationHours int                `json:"duration_hours"`
}

func (s *Server) listServiceTypes(c *gin.Context) {
	types := domain.ServiceTypes()
	out := make([]serviceTypeView, 0, len(types))
	for _, t := range types {
		out = append(out, serviceTypeView{
			Name:          t,
			Label:         t.Label(),
			DurationHours: t.DurationHours(),
		})
	}
	c.JSON(http.StatusOK, out)
}
