package actions

import (
	"context"
	"fmt"
	"time"

	"hipaa-compliance/internal/models"
)

// Store is the persistence Sync needs.
type Store interface {
	ListVendors(ctx context.Context, orgID uint) ([]models.Vendor, error)
	ListIncidents(ctx context.Context, orgID uint) ([]models.Incident, error)
	HasPendingActionItem(ctx context.Context, orgID uint, key string) (bool, error)
	CreateActionItem(ctx context.Context, item *models.ActionItem) error
}

// Sync runs the rules for an organization and inserts every candidate that
// has no pending item with the same key. Completed or dismissed items do not
// block a new pending one, so a recurring risk is flagged again.
func Sync(ctx context.Context, st Store, orgID uint, now time.Time) ([]models.ActionItem, error) {
	vendors, err := st.ListVendors(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	incidents, err := st.ListIncidents(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	var created []models.ActionItem
	for _, c := range Generate(now, vendors, incidents) {
		pending, err := st.HasPendingActionItem(ctx, orgID, c.Key)
		if err != nil {
			return created, fmt.Errorf("check %s: %w", c.Key, err)
		}
		if pending {
			continue
		}
		item := c.Item(orgID)
		if err := st.CreateActionItem(ctx, &item); err != nil {
			return created, fmt.Errorf("create %s: %w", c.Key, err)
		}
		created = append(created, item)
	}
	return created, nil
}
