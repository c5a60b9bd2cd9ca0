// Package handlers exposes the service as a JSON API.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hipaa-compliance/internal/middleware"
	"hipaa-compliance/internal/service"
)

type Handler struct {
	svc       *service.Service
	log       *slog.Logger
	maxUpload int64
}

func New(svc *service.Service, log *slog.Logger, maxUpload int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log, maxUpload: maxUpload}
}

func actor(c *gin.Context) service.Actor {
	a := service.Actor{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	if u, ok := middleware.CurrentUser(c); ok {
		a.UserID = u.ID
	}
	return a
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return false
	}
	return true
}

// fail maps service errors onto status codes. Missing onboarding tells the
// client where to go next.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNoOrganization):
		c.JSON(http.StatusNotFound, gin.H{"error": "organization not set up", "redirect": "/onboarding"})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.log.ErrorContext(c.Request.Context(), "request failed",
			"path", c.FullPath(), "request_id", middleware.GetRequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) Catalog(c *gin.Context) {
	cat := h.svc.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"version":   cat.Version(),
		"max_score": cat.MaxScore(),
		"tiers":     cat.Tiers(),
		"questions": cat.Questions(),
	})
}
