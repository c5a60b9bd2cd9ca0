package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hipaa-compliance/internal/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// first loads one row or maps "no rows" to ErrNotFound.
func first[T any](db *gorm.DB, what string, query any, args ...any) (*T, error) {
	var out T
	if err := db.Where(query, args...).First(&out).Error; err != nil {
		return nil, notFound(err, what)
	}
	return &out, nil
}

// --- users ---

func (s *GormStore) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return first[models.User](s.db.WithContext(ctx), "user", "id = ?", id)
}

func (s *GormStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return first[models.User](s.db.WithContext(ctx), "user", "username = ?", username)
}

func (s *GormStore) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// --- organizations ---

func (s *GormStore) OrganizationByOwner(ctx context.Context, ownerID uint) (*models.Organization, error) {
	return first[models.Organization](s.db.WithContext(ctx), "organization", "owner_id = ?", ownerID)
}

func (s *GormStore) Organization(ctx context.Context, id uint) (*models.Organization, error) {
	return first[models.Organization](s.db.WithContext(ctx), "organization", "id = ?", id)
}

func (s *GormStore) CreateOrganization(ctx context.Context, org *models.Organization) error {
	if err := s.db.WithContext(ctx).Create(org).Error; err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	if err := s.db.WithContext(ctx).Save(org).Error; err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

// --- risk assessments ---

func (s *GormStore) Assessment(ctx context.Context, orgID uint) (*models.RiskAssessment, error) {
	return first[models.RiskAssessment](s.db.WithContext(ctx), "risk assessment", "organization_id = ?", orgID)
}

// SaveAssessment inserts a new assessment or overwrites every column of an
// existing one.
func (s *GormStore) SaveAssessment(ctx context.Context, a *models.RiskAssessment) error {
	db := s.db.WithContext(ctx)
	if a.ID == 0 {
		if err := db.Create(a).Error; err != nil {
			return fmt.Errorf("create risk assessment: %w", err)
		}
		return nil
	}
	res := db.Model(a).Select("*").Omit("id", "created_at").Updates(a)
	if res.Error != nil {
		return fmt.Errorf("update risk assessment: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("risk assessment %d: %w", a.ID, ErrNotFound)
	}
	return nil
}

func (s *GormStore) RetakeAssessment(ctx context.Context, orgID uint, fresh *models.RiskAssessment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.RiskAssessment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("organization_id = ?", orgID).
			First(&current).Error; err != nil {
			return notFound(err, "risk assessment")
		}

		if err := tx.Where("organization_id = ?", orgID).Delete(&models.EvidenceRecord{}).Error; err != nil {
			return fmt.Errorf("delete evidence records: %w", err)
		}
		if err := tx.Where("organization_id = ?", orgID).Delete(&models.ActionItem{}).Error; err != nil {
			return fmt.Errorf("delete action items: %w", err)
		}
		if err := tx.Delete(&models.RiskAssessment{}, current.ID).Error; err != nil {
			return fmt.Errorf("delete risk assessment: %w", err)
		}

		fresh.ID = 0
		fresh.OrganizationID = orgID
		if err := tx.Create(fresh).Error; err != nil {
			return fmt.Errorf("create risk assessment: %w", err)
		}
		return nil
	})
}

// --- evidence records ---

func (s *GormStore) EvidenceRecords(ctx context.Context, orgID uint) ([]models.EvidenceRecord, error) {
	var recs []models.EvidenceRecord
	if err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("question_sequence asc").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list evidence records: %w", err)
	}
	return recs, nil
}

func (s *GormStore) EvidenceRecord(ctx context.Context, orgID uint, questionID string) (*models.EvidenceRecord, error) {
	return first[models.EvidenceRecord](s.db.WithContext(ctx), "evidence record",
		"organization_id = ? AND question_id = ?", orgID, questionID)
}

// UpdateEvidence holds the assessment row lock for the whole change, so a
// concurrent retake either runs before (and the change fails with
// ErrNotFound) or after (and deletes the record).
func (s *GormStore) UpdateEvidence(ctx context.Context, orgID uint, questionID string, fn EvidenceMutation) (*models.EvidenceRecord, error) {
	var out models.EvidenceRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lock := clause.Locking{Strength: "UPDATE"}

		var a models.RiskAssessment
		if err := tx.Clauses(lock).Where("organization_id = ?", orgID).First(&a).Error; err != nil {
			return notFound(err, "risk assessment")
		}

		var rec models.EvidenceRecord
		err := tx.Clauses(lock).
			Where("organization_id = ? AND question_id = ?", orgID, questionID).
			First(&rec).Error
		isNew := errors.Is(err, gorm.ErrRecordNotFound)
		if err != nil && !isNew {
			return fmt.Errorf("load evidence record: %w", err)
		}
		if isNew {
			rec = models.EvidenceRecord{
				OrganizationID:   orgID,
				RiskAssessmentID: a.ID,
				QuestionID:       questionID,
			}
		}

		if err := fn(&rec, isNew); err != nil {
			return err
		}

		if isNew {
			err = tx.Create(&rec).Error
		} else {
			err = tx.Save(&rec).Error
		}
		if err != nil {
			return fmt.Errorf("save evidence record: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// --- vendors ---

func (s *GormStore) ListVendors(ctx context.Context, orgID uint) ([]models.Vendor, error) {
	var vs []models.Vendor
	if err := s.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("name asc").Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vs, nil
}

func (s *GormStore) Vendor(ctx context.Context, orgID, id uint) (*models.Vendor, error) {
	return first[models.Vendor](s.db.WithContext(ctx), "vendor", "organization_id = ? AND id = ?", orgID, id)
}

func (s *GormStore) CreateVendor(ctx context.Context, v *models.Vendor) error {
	if err := s.db.WithContext(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("create vendor: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateVendor(ctx context.Context, v *models.Vendor) error {
	if err := s.db.WithContext(ctx).Save(v).Error; err != nil {
		return fmt.Errorf("update vendor: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteVendor(ctx context.Context, orgID, id uint) error {
	return deleteScoped(s.db.WithContext(ctx), &models.Vendor{}, "vendor", orgID, id)
}

// --- incidents ---

func (s *GormStore) ListIncidents(ctx context.Context, orgID uint) ([]models.Incident, error) {
	var is []models.Incident
	if err := s.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("date_discovered desc").Find(&is).Error; err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	return is, nil
}

func (s *GormStore) Incident(ctx context.Context, orgID, id uint) (*models.Incident, error) {
	return first[models.Incident](s.db.WithContext(ctx), "incident", "organization_id = ? AND id = ?", orgID, id)
}

func (s *GormStore) CreateIncident(ctx context.Context, inc *models.Incident) error {
	if err := s.db.WithContext(ctx).Create(inc).Error; err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateIncident(ctx context.Context, inc *models.Incident) error {
	if err := s.db.WithContext(ctx).Save(inc).Error; err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	return nil
}

func (s *GormStore) DeleteIncident(ctx context.Context, orgID, id uint) error {
	return deleteScoped(s.db.WithContext(ctx), &models.Incident{}, "incident", orgID, id)
}

func deleteScoped(db *gorm.DB, model any, what string, orgID, id uint) error {
	res := db.Where("organization_id = ? AND id = ?", orgID, id).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", what, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

// --- action items ---

// ListActionItems filters by status unless it is empty.
func (s *GormStore) ListActionItems(ctx context.Context, orgID uint, status models.ActionStatus) ([]models.ActionItem, error) {
	q := s.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []models.ActionItem
	if err := q.Order("created_at desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list action items: %w", err)
	}
	return items, nil
}

func (s *GormStore) ActionItem(ctx context.Context, orgID, id uint) (*models.ActionItem, error) {
	return first[models.ActionItem](s.db.WithContext(ctx), "action item", "organization_id = ? AND id = ?", orgID, id)
}

func (s *GormStore) CountActionItems(ctx context.Context, orgID uint, status models.ActionStatus) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.ActionItem{}).Where("organization_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count action items: %w", err)
	}
	return n, nil
}

func (s *GormStore) HasPendingActionItem(ctx context.Context, orgID uint, key string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.ActionItem{}).
		Where("organization_id = ? AND item_key = ? AND status = ?", orgID, key, models.ActionPending).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("check action item %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *GormStore) CreateActionItem(ctx context.Context, item *models.ActionItem) error {
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create action item: %w", err)
	}
	return nil
}

func (s *GormStore) UpdateActionItem(ctx context.Context, item *models.ActionItem) error {
	res := s.db.WithContext(ctx).Model(&models.ActionItem{}).
		Where("organization_id = ? AND id = ?", item.OrganizationID, item.ID).
		Updates(map[string]any{
			"status":       item.Status,
			"completed_at": item.CompletedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update action item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("action item %d: %w", item.ID, ErrNotFound)
	}
	return nil
}

// --- audit log ---

func (s *GormStore) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func (s *GormStore) ListAuditLogs(ctx context.Context, orgID uint, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 200
	}
	q := s.db.WithContext(ctx).Preload("User")
	if orgID != 0 {
		q = q.Where("organization_id = ?", orgID)
	}
	var logs []models.AuditLog
	if err := q.Order("created_at desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
