package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hipaa-compliance/internal/models"
)

type memStore struct {
	vendors   []models.Vendor
	incidents []models.Incident
	items     []models.ActionItem
	createErr error
}

func (m *memStore) ListVendors(context.Context, uint) ([]models.Vendor, error) {
	return m.vendors, nil
}

func (m *memStore) ListIncidents(context.Context, uint) ([]models.Incident, error) {
	return m.incidents, nil
}

func (m *memStore) HasPendingActionItem(_ context.Context, orgID uint, key string) (bool, error) {
	for _, it := range m.items {
		if it.OrganizationID == orgID && it.ItemKey == key && it.Status == models.ActionPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateActionItem(_ context.Context, item *models.ActionItem) error {
	if m.createErr != nil {
		return m.createErr
	}
	item.ID = uint(len(m.items) + 1)
	m.items = append(m.items, *item)
	return nil
}

func (m *memStore) pending() []string {
	var keys []string
	for _, it := range m.items {
		if it.Status == models.ActionPending {
			keys = append(keys, it.ItemKey)
		}
	}
	return keys
}

func TestSync_Idempotent(t *testing.T) {
	st := &memStore{
		vendors: []models.Vendor{vendor(1, false, nil)},
		incidents: []models.Incident{
			incident(2, models.SeverityHigh, models.IncidentOpen, now.AddDate(0, 0, -10)),
		},
	}
	ctx := context.Background()

	created, err := Sync(ctx, st, 1, now)
	require.NoError(t, err)
	assert.Len(t, created, 3)
	first := st.pending()

	created, err = Sync(ctx, st, 1, now)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Equal(t, first, st.pending())
	assert.Len(t, st.items, 3)
}

func TestSync_CompletedItemIsFlaggedAgain(t *testing.T) {
	st := &memStore{vendors: []models.Vendor{vendor(1, false, nil)}}
	ctx := context.Background()

	_, err := Sync(ctx, st, 1, now)
	require.NoError(t, err)
	st.items[0].Status = models.ActionCompleted

	created, err := Sync(ctx, st, 1, now)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "vendor-baa-missing-1", created[0].ItemKey)
	assert.Len(t, st.items, 2)
	assert.Equal(t, []string{"vendor-baa-missing-1"}, st.pending())
}

func TestSync_PendingItemsAreScopedByOrganization(t *testing.T) {
	st := &memStore{vendors: []models.Vendor{vendor(1, false, nil)}}
	ctx := context.Background()

	_, err := Sync(ctx, st, 1, now)
	require.NoError(t, err)
	created, err := Sync(ctx, st, 2, now)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestSync_CreateError(t *testing.T) {
	boom := errors.New("boom")
	st := &memStore{vendors: []models.Vendor{vendor(1, false, nil)}, createErr: boom}

	_, err := Sync(context.Background(), st, 1, now)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "vendor-baa-missing-1")
}
