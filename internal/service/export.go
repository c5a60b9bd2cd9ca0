package service

import (
	"context"
	"errors"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/report"
)

// ExportAudit assembles the audit package and its download file name.
func (s *Service) ExportAudit(ctx context.Context, actor Actor) (*report.AuditReport, string, error) {
	org, a, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, "", err
	}

	recs, err := s.store.EvidenceRecords(ctx, org.ID)
	if err != nil {
		return nil, "", err
	}
	vendors, err := s.store.ListVendors(ctx, org.ID)
	if err != nil {
		return nil, "", err
	}
	incidents, err := s.store.ListIncidents(ctx, org.ID)
	if err != nil {
		return nil, "", err
	}
	pending, err := s.store.CountActionItems(ctx, org.ID, models.ActionPending)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	r, err := report.Assemble(report.Input{
		Organization:       org,
		Assessment:         a,
		Evidence:           recs,
		Vendors:            vendors,
		Incidents:          incidents,
		PendingActionItems: int(pending),
		Catalog:            s.catalog,
		GeneratedAt:        now,
	})
	if errors.Is(err, report.ErrNotFound) {
		return nil, "", ErrNoOrganization
	}
	if err != nil {
		return nil, "", err
	}

	s.metrics.ExportGenerated()
	s.audit(ctx, actor, org.ID, "export", a.ID, "export", r.ContentHash)
	s.log.InfoContext(ctx, "audit package exported",
		"organization_id", org.ID, "evidence_records", len(recs), "content_hash", r.ContentHash)
	return r, report.Filename(org, now), nil
}
