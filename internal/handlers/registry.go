package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/service"
)

func (h *Handler) ListVendors(c *gin.Context) {
	vendors, err := h.svc.ListVendors(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

func (h *Handler) CreateVendor(c *gin.Context) {
	var in service.VendorInput
	if !h.bind(c, &in) {
		return
	}
	v, err := h.svc.CreateVendor(c.Request.Context(), actor(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdateVendor(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.VendorInput
	if !h.bind(c, &in) {
		return
	}
	v, err := h.svc.UpdateVendor(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVendor(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteVendor(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListIncidents(c *gin.Context) {
	incidents, err := h.svc.ListIncidents(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"incidents": incidents})
}

func (h *Handler) CreateIncident(c *gin.Context) {
	var in service.IncidentInput
	if !h.bind(c, &in) {
		return
	}
	inc, err := h.svc.CreateIncident(c.Request.Context(), actor(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, inc)
}

func (h *Handler) UpdateIncident(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.IncidentInput
	if !h.bind(c, &in) {
		return
	}
	inc, err := h.svc.UpdateIncident(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, inc)
}

func (h *Handler) DeleteIncident(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteIncident(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListActionItems(c *gin.Context) {
	items, err := h.svc.ListActionItems(c.Request.Context(), actor(c), models.ActionStatus(c.Query("status")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action_items": items})
}

func (h *Handler) GenerateActionItems(c *gin.Context) {
	created, err := h.svc.GenerateActionItems(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

type actionStatusRequest struct {
	Status models.ActionStatus `json:"status"`
}

func (h *Handler) UpdateActionItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req actionStatusRequest
	if !h.bind(c, &req) {
		return
	}
	item, err := h.svc.UpdateActionItemStatus(c.Request.Context(), actor(c), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
