package service

import (
	"context"
	"strings"
	"time"

	"hipaa-compliance/internal/models"
)

type IncidentInput struct {
	Title               string                  `json:"title"`
	Description         string                  `json:"description"`
	Severity            models.IncidentSeverity `json:"severity"`
	Status              models.IncidentStatus   `json:"status"`
	DateDiscovered      *time.Time              `json:"date_discovered"`
	IndividualsAffected int                     `json:"individuals_affected"`
	IsBreach            bool                    `json:"is_breach"`
	NotifiedHHSAt       *time.Time              `json:"notified_hhs_at"`
	NotifiedPatientsAt  *time.Time              `json:"notified_patients_at"`
}

func (in *IncidentInput) normalize(now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return invalid("title", "is required")
	}
	switch in.Severity {
	case models.SeverityLow, models.SeverityMedium, models.SeverityHigh:
	default:
		return invalid("severity", "must be low, medium or high")
	}
	if in.Status == "" {
		in.Status = models.IncidentOpen
	}
	switch in.Status {
	case models.IncidentOpen, models.IncidentInvestigating, models.IncidentResolved, models.IncidentClosed:
	default:
		return invalid("status", "unknown status %q", in.Status)
	}
	if in.DateDiscovered == nil {
		in.DateDiscovered = &now
	}
	if in.DateDiscovered.After(now) {
		return invalid("date_discovered", "is in the future")
	}
	if in.IndividualsAffected < 0 {
		return invalid("individuals_affected", "must not be negative")
	}
	return nil
}

func (in IncidentInput) apply(inc *models.Incident, now time.Time) {
	wasOpen := inc.ID == 0 || inc.IsOpen()

	inc.Title = in.Title
	inc.Description = in.Description
	inc.Severity = in.Severity
	inc.Status = in.Status
	inc.DateDiscovered = *in.DateDiscovered
	inc.IndividualsAffected = in.IndividualsAffected
	inc.IsBreach = in.IsBreach
	inc.NotifiedHHSAt = in.NotifiedHHSAt
	inc.NotifiedPatientsAt = in.NotifiedPatientsAt

	switch {
	case inc.IsOpen():
		inc.ResolvedAt = nil
	case wasOpen:
		inc.ResolvedAt = &now
	}
}

func (s *Service) ListIncidents(ctx context.Context, actor Actor) ([]models.Incident, error) {
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.store.ListIncidents(ctx, org.ID)
}

func (s *Service) CreateIncident(ctx context.Context, actor Actor, in IncidentInput) (*models.Incident, error) {
	now := s.now()
	if err := in.normalize(now); err != nil {
		return nil, err
	}
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	inc := &models.Incident{OrganizationID: org.ID}
	in.apply(inc, now)
	if err := s.store.CreateIncident(ctx, inc); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, org.ID, "incident", inc.ID, "create", string(inc.Severity)+": "+inc.Title)
	return inc, nil
}

func (s *Service) UpdateIncident(ctx context.Context, actor Actor, id uint, in IncidentInput) (*models.Incident, error) {
	now := s.now()
	if err := in.normalize(now); err != nil {
		return nil, err
	}
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	inc, err := s.store.Incident(ctx, org.ID, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	in.apply(inc, now)
	if err := s.store.UpdateIncident(ctx, inc); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, org.ID, "incident", inc.ID, "update", string(inc.Status))
	return inc, nil
}

func (s *Service) DeleteIncident(ctx context.Context, actor Actor, id uint) error {
	org, err := s.organization(ctx, actor)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIncident(ctx, org.ID, id); err != nil {
		return mapStoreErr(err)
	}
	s.audit(ctx, actor, org.ID, "incident", id, "delete", "")
	return nil
}
