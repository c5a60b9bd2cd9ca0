package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hipaa-compliance/internal/service"
)

type onboardingRequest struct {
	Organization service.OrgInput  `json:"organization"`
	Answers      map[string]string `json:"answers"`
}

func (h *Handler) CompleteOnboarding(c *gin.Context) {
	var req onboardingRequest
	if !h.bind(c, &req) {
		return
	}
	v, err := h.svc.CompleteOnboarding(c.Request.Context(), actor(c), req.Organization, req.Answers)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) Assessment(c *gin.Context) {
	v, err := h.svc.Assessment(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type answersRequest struct {
	Answers map[string]string `json:"answers"`
}

func (h *Handler) SubmitAnswers(c *gin.Context) {
	var req answersRequest
	if !h.bind(c, &req) {
		return
	}
	v, err := h.svc.SubmitAnswers(c.Request.Context(), actor(c), req.Answers)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) RetakeAssessment(c *gin.Context) {
	v, err := h.svc.RetakeAssessment(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) Dashboard(c *gin.Context) {
	p, err := h.svc.Posture(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
