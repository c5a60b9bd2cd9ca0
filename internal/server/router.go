package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"hipaa-compliance/internal/handlers"
	"hipaa-compliance/internal/metrics"
	"hipaa-compliance/internal/middleware"
	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/ratelimit"
	"hipaa-compliance/internal/service"
)

const sessionName = "hipaa_session"

type Deps struct {
	Service        *service.Service
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	SessionSecret  string
	SecureCookies  bool
	MaxUploadBytes int64
	// AuthLimiter throttles login and registration per client IP. Optional.
	AuthLimiter ratelimit.Limiter
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	h := handlers.New(d.Service, log, d.MaxUploadBytes)

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery())

	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   8 * 60 * 60,
		HttpOnly: true,
		Secure:   d.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(middleware.RequestScope())
	r.Use(middleware.InjectUser(d.Service, log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// AUTH
	authForms := r.Group("/")
	if d.AuthLimiter != nil {
		authForms.Use(middleware.RateLimit(d.AuthLimiter, "auth", log))
	}
	authForms.POST("/register", h.Register)
	authForms.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth())

	owners := middleware.RequireRole(models.RoleAdmin, models.RoleOfficer)
	editors := middleware.RequireRole(models.RoleAdmin, models.RoleOfficer, models.RoleStaff)

	api.GET("/me", h.Me)
	api.GET("/catalog", h.Catalog)

	// ASSESSMENT
	api.POST("/onboarding", owners, h.CompleteOnboarding)
	api.GET("/assessment", h.Assessment)
	api.PUT("/assessment/answers", owners, h.SubmitAnswers)
	api.POST("/assessment/retake", owners, h.RetakeAssessment)
	api.GET("/dashboard", h.Dashboard)

	// EVIDENCE
	api.GET("/evidence", h.EvidenceRecords)
	api.GET("/evidence/requirements", h.EvidenceRequirements)
	api.POST("/evidence/:question_id/upload", editors, h.UploadEvidence)
	api.POST("/evidence/:question_id/items", editors, h.AddEvidenceItem)
	api.DELETE("/evidence/:question_id/items/:item_id", editors, h.RemoveEvidenceItem)

	api.GET("/export/audit", h.ExportAudit)

	// VENDORS
	api.GET("/vendors", h.ListVendors)
	api.POST("/vendors", editors, h.CreateVendor)
	api.PUT("/vendors/:id", editors, h.UpdateVendor)
	api.DELETE("/vendors/:id", owners, h.DeleteVendor)

	// INCIDENTS
	api.GET("/incidents", h.ListIncidents)
	api.POST("/incidents", editors, h.CreateIncident)
	api.PUT("/incidents/:id", editors, h.UpdateIncident)
	api.DELETE("/incidents/:id", owners, h.DeleteIncident)

	// ACTION ITEMS
	api.GET("/action-items", h.ListActionItems)
	api.POST("/action-items/generate", editors, h.GenerateActionItems)
	api.PATCH("/action-items/:id", editors, h.UpdateActionItem)

	api.GET("/audit",
		middleware.RequireRole(models.RoleAdmin, models.RoleOfficer, models.RoleViewer),
		h.ListAuditLogs,
	)

	return r
}
