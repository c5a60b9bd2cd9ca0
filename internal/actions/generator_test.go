package actions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hipaa-compliance/internal/models"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func vendor(id uint, signed bool, exp *time.Time) models.Vendor {
	return models.Vendor{Model: gorm.Model{ID: id}, Name: "Acme Billing", BAASigned: signed, BAAExpiration: exp}
}

func incident(id uint, sev models.IncidentSeverity, status models.IncidentStatus, discovered time.Time) models.Incident {
	return models.Incident{
		Model:          gorm.Model{ID: id},
		Title:          "Lost laptop",
		Severity:       sev,
		Status:         status,
		DateDiscovered: discovered,
	}
}

func at(t time.Time) *time.Time { return &t }

func TestGenerate_VendorWithoutBAA(t *testing.T) {
	got := Generate(now, []models.Vendor{vendor(4, false, nil)}, nil)

	require.Len(t, got, 1)
	assert.Equal(t, "vendor-baa-missing-4", got[0].Key)
	assert.Equal(t, models.PriorityCritical, got[0].Priority)
	assert.Equal(t, CategoryContracts, got[0].Category)
	assert.Equal(t, SourceVendor, got[0].Source)
	assert.Equal(t, uint(4), got[0].SourceID)
}

func TestGenerate_VendorRulesAreExclusive(t *testing.T) {
	tests := []struct {
		name string
		v    models.Vendor
		key  string
		prio models.ActionPriority
	}{
		{"missing wins over past expiry", vendor(1, false, at(now.AddDate(0, 0, -3))), "vendor-baa-missing-1", models.PriorityCritical},
		{"expired", vendor(2, true, at(now.AddDate(0, 0, -1))), "vendor-baa-expired-2", models.PriorityCritical},
		{"expiring tomorrow", vendor(3, true, at(now.AddDate(0, 0, 1))), "vendor-baa-expiring-3", models.PriorityHigh},
		{"expiring on day 30", vendor(4, true, at(now.Add(ExpiringWindow))), "vendor-baa-expiring-4", models.PriorityHigh},
		{"expiring now", vendor(5, true, at(now)), "vendor-baa-expiring-5", models.PriorityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(now, []models.Vendor{tt.v}, nil)
			require.Len(t, got, 1)
			assert.Equal(t, tt.key, got[0].Key)
			assert.Equal(t, tt.prio, got[0].Priority)
		})
	}
}

func TestGenerate_HealthyVendors(t *testing.T) {
	vendors := []models.Vendor{
		vendor(1, true, nil),
		vendor(2, true, at(now.Add(ExpiringWindow+time.Hour))),
		vendor(3, true, at(now.AddDate(1, 0, 0))),
	}
	assert.Empty(t, Generate(now, vendors, nil))
}

func TestGenerate_HighSeverityStaleIncident(t *testing.T) {
	got := Generate(now, nil, []models.Incident{
		incident(9, models.SeverityHigh, models.IncidentOpen, now.AddDate(0, 0, -10)),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "incident-high-severity-9", got[0].Key)
	assert.Equal(t, models.PriorityCritical, got[0].Priority)
	assert.Equal(t, CategoryAdministrative, got[0].Category)
	assert.Equal(t, "incident-stale-9", got[1].Key)
	assert.Equal(t, models.PriorityHigh, got[1].Priority)
	assert.Contains(t, got[1].Description, "10 days")
}

func TestGenerate_IncidentRules(t *testing.T) {
	tests := []struct {
		name string
		inc  models.Incident
		keys []string
	}{
		{"fresh high", incident(1, models.SeverityHigh, models.IncidentInvestigating, now.AddDate(0, 0, -2)), []string{"incident-high-severity-1"}},
		{"stale low", incident(2, models.SeverityLow, models.IncidentOpen, now.AddDate(0, 0, -8)), []string{"incident-stale-2"}},
		{"exactly seven days", incident(3, models.SeverityMedium, models.IncidentOpen, now.Add(-StaleAfter)), nil},
		{"resolved high and stale", incident(4, models.SeverityHigh, models.IncidentResolved, now.AddDate(0, 0, -30)), nil},
		{"closed", incident(5, models.SeverityHigh, models.IncidentClosed, now.AddDate(0, 0, -30)), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var keys []string
			for _, c := range Generate(now, nil, []models.Incident{tt.inc}) {
				keys = append(keys, c.Key)
			}
			assert.Equal(t, tt.keys, keys)
		})
	}
}

func TestCandidate_Item(t *testing.T) {
	c := Generate(now, []models.Vendor{vendor(7, false, nil)}, nil)[0]
	item := c.Item(42)

	assert.Equal(t, uint(42), item.OrganizationID)
	assert.Equal(t, "vendor-baa-missing-7", item.ItemKey)
	assert.Equal(t, models.ActionPending, item.Status)
	require.NotNil(t, item.DueDate)
	assert.True(t, item.DueDate.After(now))
}
