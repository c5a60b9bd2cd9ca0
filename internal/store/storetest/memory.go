// Package storetest provides an in-memory store for tests of the packages
// built on top of store.Store.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/store"
)

var _ store.Store = (*Memory)(nil)

// Memory is an in-memory store.Store. It copies values in and out so tests
// catch code that relies on pointer aliasing with the store.
type Memory struct {
	mu     sync.Mutex
	nextID uint

	users       map[uint]models.User
	orgs        map[uint]models.Organization
	assessments map[uint]models.RiskAssessment // by organization
	evidence    map[string]models.EvidenceRecord
	vendors     map[uint]models.Vendor
	incidents   map[uint]models.Incident
	actionItems map[uint]models.ActionItem
	auditLogs   []models.AuditLog
}

func NewMemory() *Memory {
	return &Memory{
		users:       map[uint]models.User{},
		orgs:        map[uint]models.Organization{},
		assessments: map[uint]models.RiskAssessment{},
		evidence:    map[string]models.EvidenceRecord{},
		vendors:     map[uint]models.Vendor{},
		incidents:   map[uint]models.Incident{},
		actionItems: map[uint]models.ActionItem{},
	}
}

func (m *Memory) id() uint {
	m.nextID++
	return m.nextID
}

func evidenceKey(orgID uint, questionID string) string {
	return fmt.Sprintf("%d/%s", orgID, questionID)
}

func (m *Memory) UserByID(_ context.Context, id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.id()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) OrganizationByOwner(_ context.Context, ownerID uint) (*models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orgs {
		if o.OwnerID == ownerID {
			return &o, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Memory) Organization(_ context.Context, id uint) (*models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &o, nil
}

func (m *Memory) CreateOrganization(_ context.Context, org *models.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	org.ID = m.id()
	m.orgs[org.ID] = *org
	return nil
}

func (m *Memory) UpdateOrganization(_ context.Context, org *models.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orgs[org.ID]; !ok {
		return store.ErrNotFound
	}
	m.orgs[org.ID] = *org
	return nil
}

func (m *Memory) Assessment(_ context.Context, orgID uint) (*models.RiskAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[orgID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) SaveAssessment(_ context.Context, a *models.RiskAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == 0 {
		a.ID = m.id()
	} else if cur, ok := m.assessments[a.OrganizationID]; !ok || cur.ID != a.ID {
		return store.ErrNotFound
	}
	m.assessments[a.OrganizationID] = *a
	return nil
}

func (m *Memory) RetakeAssessment(_ context.Context, orgID uint, fresh *models.RiskAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[orgID]; !ok {
		return store.ErrNotFound
	}
	for k, rec := range m.evidence {
		if rec.OrganizationID == orgID {
			delete(m.evidence, k)
		}
	}
	for id, it := range m.actionItems {
		if it.OrganizationID == orgID {
			delete(m.actionItems, id)
		}
	}
	fresh.ID = m.id()
	fresh.OrganizationID = orgID
	m.assessments[orgID] = *fresh
	return nil
}

func (m *Memory) EvidenceRecords(_ context.Context, orgID uint) ([]models.EvidenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EvidenceRecord
	for _, rec := range m.evidence {
		if rec.OrganizationID == orgID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionSequence < out[j].QuestionSequence })
	return out, nil
}

func (m *Memory) EvidenceRecord(_ context.Context, orgID uint, questionID string) (*models.EvidenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.evidence[evidenceKey(orgID, questionID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (m *Memory) UpdateEvidence(_ context.Context, orgID uint, questionID string, fn store.EvidenceMutation) (*models.EvidenceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[orgID]
	if !ok {
		return nil, store.ErrNotFound
	}
	key := evidenceKey(orgID, questionID)
	rec, exists := m.evidence[key]
	if !exists {
		rec = models.EvidenceRecord{OrganizationID: orgID, QuestionID: questionID, RiskAssessmentID: a.ID}
	}
	if err := fn(&rec, !exists); err != nil {
		return nil, err
	}
	if !exists {
		rec.ID = m.id()
	}
	m.evidence[key] = rec
	return &rec, nil
}

func (m *Memory) ListVendors(_ context.Context, orgID uint) ([]models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Vendor
	for _, v := range m.vendors {
		if v.OrganizationID == orgID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Vendor(_ context.Context, orgID, id uint) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok || v.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return &v, nil
}

func (m *Memory) CreateVendor(_ context.Context, v *models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.id()
	m.vendors[v.ID] = *v
	return nil
}

func (m *Memory) UpdateVendor(_ context.Context, v *models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vendors[v.ID] = *v
	return nil
}

func (m *Memory) DeleteVendor(_ context.Context, orgID, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vendors[id]
	if !ok || v.OrganizationID != orgID {
		return store.ErrNotFound
	}
	delete(m.vendors, id)
	return nil
}

func (m *Memory) ListIncidents(_ context.Context, orgID uint) ([]models.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Incident
	for _, inc := range m.incidents {
		if inc.OrganizationID == orgID {
			out = append(out, inc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Incident(_ context.Context, orgID, id uint) (*models.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok || inc.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return &inc, nil
}

func (m *Memory) CreateIncident(_ context.Context, inc *models.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc.ID = m.id()
	m.incidents[inc.ID] = *inc
	return nil
}

func (m *Memory) UpdateIncident(_ context.Context, inc *models.Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents[inc.ID] = *inc
	return nil
}

func (m *Memory) DeleteIncident(_ context.Context, orgID, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc, ok := m.incidents[id]
	if !ok || inc.OrganizationID != orgID {
		return store.ErrNotFound
	}
	delete(m.incidents, id)
	return nil
}

func (m *Memory) ListActionItems(_ context.Context, orgID uint, status models.ActionStatus) ([]models.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ActionItem
	for _, it := range m.actionItems {
		if it.OrganizationID == orgID && (status == "" || it.Status == status) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ActionItem(_ context.Context, orgID, id uint) (*models.ActionItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.actionItems[id]
	if !ok || it.OrganizationID != orgID {
		return nil, store.ErrNotFound
	}
	return &it, nil
}

func (m *Memory) CountActionItems(ctx context.Context, orgID uint, status models.ActionStatus) (int64, error) {
	items, err := m.ListActionItems(ctx, orgID, status)
	return int64(len(items)), err
}

func (m *Memory) HasPendingActionItem(ctx context.Context, orgID uint, key string) (bool, error) {
	items, _ := m.ListActionItems(ctx, orgID, models.ActionPending)
	for _, it := range items {
		if it.ItemKey == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) CreateActionItem(_ context.Context, item *models.ActionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.id()
	m.actionItems[item.ID] = *item
	return nil
}

func (m *Memory) UpdateActionItem(_ context.Context, item *models.ActionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.actionItems[item.ID]; !ok {
		return store.ErrNotFound
	}
	m.actionItems[item.ID] = *item
	return nil
}

func (m *Memory) AppendAuditLog(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.id()
	m.auditLogs = append(m.auditLogs, *entry)
	return nil
}

func (m *Memory) ListAuditLogs(_ context.Context, orgID uint, limit int) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditLog
	for i := len(m.auditLogs) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if orgID == 0 || m.auditLogs[i].OrganizationID == orgID {
			out = append(out, m.auditLogs[i])
		}
	}
	return out, nil
}

// AuditActions lists the journal as entity:action pairs, oldest first.
func (m *Memory) AuditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.auditLogs))
	for i, l := range m.auditLogs {
		out[i] = l.Entity + ":" + l.Action
	}
	return out
}

func (m *Memory) OrganizationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orgs)
}

func (m *Memory) EvidenceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.evidence)
}
