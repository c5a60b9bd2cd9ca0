// Package store persists the compliance data of organizations. Every query
// is scoped to one organization.
package store

import (
	"context"
	"errors"

	"hipaa-compliance/internal/models"
)

var ErrNotFound = errors.New("record not found")

// EvidenceMutation edits an evidence record inside the store's transaction.
// isNew is true when the record does not exist yet; it then arrives with
// only its keys set.
type EvidenceMutation func(rec *models.EvidenceRecord, isNew bool) error

type Store interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error

	OrganizationByOwner(ctx context.Context, ownerID uint) (*models.Organization, error)
	Organization(ctx context.Context, id uint) (*models.Organization, error)
	CreateOrganization(ctx context.Context, org *models.Organization) error
	UpdateOrganization(ctx context.Context, org *models.Organization) error

	Assessment(ctx context.Context, orgID uint) (*models.RiskAssessment, error)
	SaveAssessment(ctx context.Context, a *models.RiskAssessment) error
	// RetakeAssessment deletes the organization's evidence records, action
	// items and assessment, then creates fresh, all in one transaction.
	RetakeAssessment(ctx context.Context, orgID uint, fresh *models.RiskAssessment) error

	EvidenceRecords(ctx context.Context, orgID uint) ([]models.EvidenceRecord, error)
	EvidenceRecord(ctx context.Context, orgID uint, questionID string) (*models.EvidenceRecord, error)
	// UpdateEvidence locks the organization's assessment and the record,
	// creating the record when missing, and saves whatever fn leaves in it.
	UpdateEvidence(ctx context.Context, orgID uint, questionID string, fn EvidenceMutation) (*models.EvidenceRecord, error)

	ListVendors(ctx context.Context, orgID uint) ([]models.Vendor, error)
	Vendor(ctx context.Context, orgID, id uint) (*models.Vendor, error)
	CreateVendor(ctx context.Context, v *models.Vendor) error
	UpdateVendor(ctx context.Context, v *models.Vendor) error
	DeleteVendor(ctx context.Context, orgID, id uint) error

	ListIncidents(ctx context.Context, orgID uint) ([]models.Incident, error)
	Incident(ctx context.Context, orgID, id uint) (*models.Incident, error)
	CreateIncident(ctx context.Context, inc *models.Incident) error
	UpdateIncident(ctx context.Context, inc *models.Incident) error
	DeleteIncident(ctx context.Context, orgID, id uint) error

	ListActionItems(ctx context.Context, orgID uint, status models.ActionStatus) ([]models.ActionItem, error)
	ActionItem(ctx context.Context, orgID, id uint) (*models.ActionItem, error)
	CountActionItems(ctx context.Context, orgID uint, status models.ActionStatus) (int64, error)
	HasPendingActionItem(ctx context.Context, orgID uint, key string) (bool, error)
	CreateActionItem(ctx context.Context, item *models.ActionItem) error
	UpdateActionItem(ctx context.Context, item *models.ActionItem) error

	AppendAuditLog(ctx context.Context, entry *models.AuditLog) error
	ListAuditLogs(ctx context.Context, orgID uint, limit int) ([]models.AuditLog, error)
}
