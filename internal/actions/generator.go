// Package actions derives advisory follow-up tasks from vendor and incident
// records. Rule evaluation is pure; Sync persists the result idempotently.
package actions

import (
	"fmt"
	"time"

	"hipaa-compliance/internal/models"
)

const (
	CategoryContracts        = "Contracts"
	CategoryAdministrative   = "Administrative"
	CategoryIncidentResponse = "Incident Response"

	SourceVendor   = "vendor"
	SourceIncident = "incident"
)

const (
	// ExpiringWindow is how far ahead a BAA expiry is flagged.
	ExpiringWindow = 30 * 24 * time.Hour
	// StaleAfter is how long an incident may stay open before it is flagged.
	StaleAfter = 7 * 24 * time.Hour
)

// Candidate is an action item the rules want to exist.
type Candidate struct {
	Key         string
	Title       string
	Description string
	Priority    models.ActionPriority
	Category    string
	Source      string
	SourceID    uint
	DueDate     *time.Time
}

func VendorBAAMissingKey(id uint) string  { return fmt.Sprintf("vendor-baa-missing-%d", id) }
func VendorBAAExpiredKey(id uint) string  { return fmt.Sprintf("vendor-baa-expired-%d", id) }
func VendorBAAExpiringKey(id uint) string { return fmt.Sprintf("vendor-baa-expiring-%d", id) }
func IncidentHighSeverityKey(id uint) string {
	return fmt.Sprintf("incident-high-severity-%d", id)
}
func IncidentStaleKey(id uint) string { return fmt.Sprintf("incident-stale-%d", id) }

// Generate evaluates the vendor and incident rules at now. Vendors come first,
// each source in input order.
func Generate(now time.Time, vendors []models.Vendor, incidents []models.Incident) []Candidate {
	var out []Candidate
	for _, v := range vendors {
		if c, ok := vendorCandidate(now, v); ok {
			out = append(out, c)
		}
	}
	for _, inc := range incidents {
		out = append(out, incidentCandidates(now, inc)...)
	}
	return out
}

// vendorCandidate returns at most one item: a BAA is either missing, expired,
// expiring or fine.
func vendorCandidate(now time.Time, v models.Vendor) (Candidate, bool) {
	switch {
	case !v.BAASigned:
		due := now.AddDate(0, 0, 7)
		return Candidate{
			Key:         VendorBAAMissingKey(v.ID),
			Title:       fmt.Sprintf("Sign a BAA with %s", v.Name),
			Description: fmt.Sprintf("No signed Business Associate Agreement is on file for %s.", v.Name),
			Priority:    models.PriorityCritical,
			Category:    CategoryContracts,
			Source:      SourceVendor,
			SourceID:    v.ID,
			DueDate:     &due,
		}, true

	case v.BAAExpiration == nil:
		return Candidate{}, false

	case v.BAAExpiration.Before(now):
		due := now.AddDate(0, 0, 7)
		return Candidate{
			Key:   VendorBAAExpiredKey(v.ID),
			Title: fmt.Sprintf("Renew expired BAA with %s", v.Name),
			Description: fmt.Sprintf("The Business Associate Agreement with %s expired on %s.",
				v.Name, v.BAAExpiration.Format(time.DateOnly)),
			Priority: models.PriorityCritical,
			Category: CategoryContracts,
			Source:   SourceVendor,
			SourceID: v.ID,
			DueDate:  &due,
		}, true

	case !v.BAAExpiration.After(now.Add(ExpiringWindow)):
		due := *v.BAAExpiration
		return Candidate{
			Key:   VendorBAAExpiringKey(v.ID),
			Title: fmt.Sprintf("Renew BAA with %s before it expires", v.Name),
			Description: fmt.Sprintf("The Business Associate Agreement with %s expires on %s.",
				v.Name, v.BAAExpiration.Format(time.DateOnly)),
			Priority: models.PriorityHigh,
			Category: CategoryContracts,
			Source:   SourceVendor,
			SourceID: v.ID,
			DueDate:  &due,
		}, true
	}
	return Candidate{}, false
}

// incidentCandidates may return two items for the same incident.
func incidentCandidates(now time.Time, inc models.Incident) []Candidate {
	if !inc.IsOpen() {
		return nil
	}

	var out []Candidate
	if inc.Severity == models.SeverityHigh {
		due := now.AddDate(0, 0, 1)
		out = append(out, Candidate{
			Key:         IncidentHighSeverityKey(inc.ID),
			Title:       fmt.Sprintf("Investigate high severity incident: %s", inc.Title),
			Description: "A high severity incident is open. Assess whether it is a reportable breach.",
			Priority:    models.PriorityCritical,
			Category:    CategoryAdministrative,
			Source:      SourceIncident,
			SourceID:    inc.ID,
			DueDate:     &due,
		})
	}
	if age := now.Sub(inc.DateDiscovered); age > StaleAfter {
		due := now.AddDate(0, 0, 3)
		out = append(out, Candidate{
			Key:   IncidentStaleKey(inc.ID),
			Title: fmt.Sprintf("Resolve stale incident: %s", inc.Title),
			Description: fmt.Sprintf("Incident has been open for %d days since discovery on %s.",
				int(age.Hours()/24), inc.DateDiscovered.Format(time.DateOnly)),
			Priority: models.PriorityHigh,
			Category: CategoryIncidentResponse,
			Source:   SourceIncident,
			SourceID: inc.ID,
			DueDate:  &due,
		})
	}
	return out
}

// Item turns a candidate into a pending action item for an organization.
func (c Candidate) Item(orgID uint) models.ActionItem {
	return models.ActionItem{
		OrganizationID: orgID,
		ItemKey:        c.Key,
		Title:          c.Title,
		Description:    c.Description,
		Priority:       c.Priority,
		Category:       c.Category,
		Status:         models.ActionPending,
		Source:         c.Source,
		SourceID:       c.SourceID,
		DueDate:        c.DueDate,
	}
}
