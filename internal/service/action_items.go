package service

import (
	"context"
	"fmt"

	"hipaa-compliance/internal/actions"
	"hipaa-compliance/internal/models"
)

// GenerateActionItems runs the vendor and incident rules and returns only
// the items created by this run.
func (s *Service) GenerateActionItems(ctx context.Context, actor Actor) ([]models.ActionItem, error) {
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	created, err := s.SyncActionItems(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, actor, org.ID, "action_item", 0, "generate", fmt.Sprintf("%d created", len(created)))
	return created, nil
}

// SyncActionItems is GenerateActionItems without an acting user, for the CLI.
func (s *Service) SyncActionItems(ctx context.Context, orgID uint) ([]models.ActionItem, error) {
	created, err := actions.Sync(ctx, s.store, orgID, s.now())
	for _, it := range created {
		s.metrics.ActionItemCreated(string(it.Priority))
	}
	if err != nil {
		return created, err
	}
	s.log.InfoContext(ctx, "action items generated", "organization_id", orgID, "created", len(created))
	return created, nil
}

func (s *Service) ListActionItems(ctx context.Context, actor Actor, status models.ActionStatus) ([]models.ActionItem, error) {
	if status != "" && !models.ValidActionStatus(status) {
		return nil, invalid("status", "unknown status %q", status)
	}
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.store.ListActionItems(ctx, org.ID, status)
}

func (s *Service) UpdateActionItemStatus(ctx context.Context, actor Actor, id uint, status models.ActionStatus) (*models.ActionItem, error) {
	if !models.ValidActionStatus(status) {
		return nil, invalid("status", "unknown status %q", status)
	}
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	item, err := s.store.ActionItem(ctx, org.ID, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	item.Status = status
	if status == models.ActionCompleted {
		now := s.now()
		item.CompletedAt = &now
	} else {
		item.CompletedAt = nil
	}
	if err := s.store.UpdateActionItem(ctx, item); err != nil {
		return nil, mapStoreErr(err)
	}
	s.audit(ctx, actor, org.ID, "action_item", item.ID, "status", string(status))
	return item, nil
}
