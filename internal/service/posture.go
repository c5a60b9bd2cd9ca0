package service

import (
	"context"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/report"
	"hipaa-compliance/internal/scoring"
)

type EvidenceProgress struct {
	Required       int    `json:"required"`
	Provided       int    `json:"provided"`
	Items          int    `json:"items"`
	CompletionRate string `json:"completion_rate"`
}

// Posture is the dashboard summary of an organization.
type Posture struct {
	Organization       *models.Organization `json:"organization"`
	Score              scoring.Result       `json:"score"`
	QuestionsTotal     int                  `json:"questions_total"`
	Evidence           EvidenceProgress     `json:"evidence"`
	PendingActionItems int64                `json:"pending_action_items"`
	VendorsWithoutBAA  int                  `json:"vendors_without_baa"`
	OpenIncidents      int                  `json:"open_incidents"`
	CatalogVersion     string               `json:"catalog_version"`
}

// Posture recomputes the score from the stored answers instead of trusting
// the persisted percentage.
func (s *Service) Posture(ctx context.Context, actor Actor) (*Posture, error) {
	org, a, err := s.workspace(ctx, actor)
	if err != nil {
		return nil, err
	}

	reqs, err := s.EvidenceRequirements(ctx, actor)
	if err != nil {
		return nil, err
	}
	var ev EvidenceProgress
	for _, r := range reqs {
		ev.Items += r.ItemCount
		if !r.Required {
			continue
		}
		ev.Required++
		if r.Provided {
			ev.Provided++
		}
	}
	ev.CompletionRate = report.CompletionRate(ev.Provided, ev.Required)

	pending, err := s.store.CountActionItems(ctx, org.ID, models.ActionPending)
	if err != nil {
		return nil, err
	}
	vendors, err := s.store.ListVendors(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	incidents, err := s.store.ListIncidents(ctx, org.ID)
	if err != nil {
		return nil, err
	}

	p := &Posture{
		Organization:       org,
		Score:              s.engine.Score(a.AnswerMap()),
		QuestionsTotal:     s.catalog.Len(),
		Evidence:           ev,
		PendingActionItems: pending,
		CatalogVersion:     s.catalog.Version(),
	}
	for _, v := range vendors {
		if !v.BAASigned {
			p.VendorsWithoutBAA++
		}
	}
	for _, inc := range incidents {
		if inc.IsOpen() {
			p.OpenIncidents++
		}
	}
	return p, nil
}
