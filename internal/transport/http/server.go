package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"inkstudio/internal/service/availability"
	"inkstudio/internal/service/scheduling"
)

// Server wires the scheduling engine and the availability service into a gin
// router. It stays thin: parse, delegate, map errors.
type Server struct {
	scheduling   *scheduling.Service
	availability *availability.Service
	log          *slog.Logger
}

func NewServer(sched *scheduling.Service, avail *availability.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		scheduling:   sched,
		availability: avail,
		log:          log.With(slog.String("component", "http")),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/service-types", s.listServiceTypes)

	r.POST("/reservations", s.createReservation)
	r.GET("/reservations/:id", s.getReservation)
	r.PATCH("/reservations/:id", s.updateReservation)
	r.DELETE("/reservations/:id", s.removeReservation)
	r.PATCH("/reservations/:id/status", s.updateReservationStatus)

	r.GET("/clients/:id/reservations", s.listClientReservations)
	r.GET("/professionals/:id/reservations", s.listProfessionalReservations)

	r.PUT("/professionals/:id/availability", s.putAvailability)
	r.GET("/professionals/:id/availability", s.getAvailability)

	return r
}

// callerIdentity reads the opaque identity the upstream auth layer injects.
func callerIdentity(c *gin.Context) (uuid.UUID, []string, bool) {
	id, err := uuid.Parse(c.GetHeader("X-User-ID"))
	if err != nil {
		return uuid.Nil, nil, false
	}
	var roles []string
	if raw := c.GetHeader("X-User-Roles"); raw != "" {
		for _, role := range strings.Split(raw, ",") {
			roles = append(roles, strings.TrimSpace(role))
		}
	}
	return id, roles, true
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return offset, limit
}

// respondError maps engine error kinds to HTTP statuses.
func (s *Server) respondError(c *gin.Context, err error) {
	var availErr *availability.ValidationError
	if errors.As(err, &availErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": availErr.Error()})
		return
	}

	var engineErr *scheduling.Error
	if !errors.As(err, &engineErr) {
		s.log.Error("request failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	status := http.StatusInternalServerError
	switch engineErr.Kind {
	case scheduling.KindNotFound:
		status = http.StatusNotFound
	case scheduling.KindInvalidInput, scheduling.KindInvalidDate:
		status = http.StatusBadRequest
	case scheduling.KindSelfBooking,
		scheduling.KindClientConflict,
		scheduling.KindProfessionalConflict,
		scheduling.KindCancellationNotAllowed,
		scheduling.KindCancellationWindowExpired:
		status = http.StatusConflict
	case scheduling.KindProfessionalUnavailable:
		status = http.StatusUnprocessableEntity
	case scheduling.KindNotAuthorized:
		status = http.StatusForbidden
	case scheduling.KindStorageFailure:
		s.log.Error("storage failure", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": engineErr.Error(), "kind": engineErr.Kind.String()})
}
