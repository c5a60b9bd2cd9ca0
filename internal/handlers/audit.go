package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hipaa-compliance/internal/middleware"
	"hipaa-compliance/internal/models"
)

// ListAuditLogs returns the journal of the caller's organization. Admins get
// every organization.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := h.svc.AuditLogs(c.Request.Context(), actor(c), user.Role == models.RoleAdmin, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

func (h *Handler) ExportAudit(c *gin.Context) {
	r, name, err := h.svc.ExportAudit(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.JSON(http.StatusOK, r)
}
