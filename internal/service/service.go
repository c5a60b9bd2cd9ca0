// Package service implements the compliance workflows on top of the pure
// catalog, evidence, scoring, report and actions packages and the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hipaa-compliance/internal/catalog"
	"hipaa-compliance/internal/evidence"
	"hipaa-compliance/internal/metrics"
	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/ratelimit"
	"hipaa-compliance/internal/scoring"
	"hipaa-compliance/internal/storage"
	"hipaa-compliance/internal/store"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrRateLimited = errors.New("too many requests")

	// ErrNoOrganization means the user has not finished onboarding.
	ErrNoOrganization = fmt.Errorf("%w: complete onboarding first", ErrNotFound)
)

// ValidationError carries a message meant for the user.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Actor is the authenticated user behind a call, with request metadata for
// the audit trail.
type Actor = evidence.Actor

type Options struct {
	Store          store.Store
	Catalog        *catalog.Catalog
	Objects        storage.ObjectStore
	Limiter        ratelimit.Limiter
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	MaxUploadBytes int64
	Now            func() time.Time
	NewID          func() string
}

type Service struct {
	store     store.Store
	catalog   *catalog.Catalog
	engine    *scoring.Engine
	objects   storage.ObjectStore
	limiter   ratelimit.Limiter
	metrics   *metrics.Metrics
	log       *slog.Logger
	maxUpload int64
	now       func() time.Time
	newID     func() string
}

func New(opts Options) *Service {
	s := &Service{
		store:     opts.Store,
		catalog:   opts.Catalog,
		engine:    scoring.NewEngine(opts.Catalog),
		objects:   opts.Objects,
		limiter:   opts.Limiter,
		metrics:   opts.Metrics,
		log:       opts.Logger,
		maxUpload: opts.MaxUploadBytes,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.maxUpload <= 0 {
		s.maxUpload = evidence.MaxUploadBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.NewString() }
	}
	return s
}

func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// mapStoreErr turns store misses into the service's ErrNotFound.
func mapStoreErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// organization loads the actor's organization or ErrNoOrganization.
func (s *Service) organization(ctx context.Context, actor Actor) (*models.Organization, error) {
	org, err := s.store.OrganizationByOwner(ctx, actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoOrganization
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// workspace loads the actor's organization and its assessment. Both must
// exist.
func (s *Service) workspace(ctx context.Context, actor Actor) (*models.Organization, *models.RiskAssessment, error) {
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.store.Assessment(ctx, org.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNoOrganization
	}
	if err != nil {
		return nil, nil, err
	}
	return org, a, nil
}

// audit appends to the application journal. Failures are logged, not
// returned: the change itself already happened.
func (s *Service) audit(ctx context.Context, actor Actor, orgID uint, entity string, entityID uint, action, details string) {
	entry := &models.AuditLog{
		UserID:         actor.UserID,
		OrganizationID: orgID,
		Entity:         entity,
		EntityID:       entityID,
		Action:         action,
		Details:        details,
		IPAddress:      actor.IP,
	}
	if err := s.store.AppendAuditLog(ctx, entry); err != nil {
		s.log.WarnContext(ctx, "failed to write audit log",
			"entity", entity, "entity_id", entityID, "action", action, "error", err)
	}
}

// AuditLogs lists journal entries. Admins see every organization.
func (s *Service) AuditLogs(ctx context.Context, actor Actor, all bool, limit int) ([]models.AuditLog, error) {
	if all {
		return s.store.ListAuditLogs(ctx, 0, limit)
	}
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.store.ListAuditLogs(ctx, org.ID, limit)
}
