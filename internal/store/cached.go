package store

import (
	"context"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/reqcache"
)

const (
	kindUser       = "user"
	kindOrgByOwner = "organization:owner"
	kindOrg        = "organization"
	kindAssessment = "assessment"
)

// Cached memoizes the reads every request repeats (current user, its
// organization and assessment) in the request scope carried by ctx.
type Cached struct {
	Store
}

func NewCached(s Store) *Cached {
	return &Cached{Store: s}
}

func (c *Cached) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return reqcache.Do(ctx, kindUser, id, func() (*models.User, error) {
		return c.Store.UserByID(ctx, id)
	})
}

func (c *Cached) OrganizationByOwner(ctx context.Context, ownerID uint) (*models.Organization, error) {
	return reqcache.Do(ctx, kindOrgByOwner, ownerID, func() (*models.Organization, error) {
		return c.Store.OrganizationByOwner(ctx, ownerID)
	})
}

func (c *Cached) Organization(ctx context.Context, id uint) (*models.Organization, error) {
	return reqcache.Do(ctx, kindOrg, id, func() (*models.Organization, error) {
		return c.Store.Organization(ctx, id)
	})
}

func (c *Cached) CreateOrganization(ctx context.Context, org *models.Organization) error {
	defer c.forgetOrg(ctx, org)
	return c.Store.CreateOrganization(ctx, org)
}

func (c *Cached) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	defer c.forgetOrg(ctx, org)
	return c.Store.UpdateOrganization(ctx, org)
}

func (c *Cached) forgetOrg(ctx context.Context, org *models.Organization) {
	reqcache.Invalidate(ctx, kindOrgByOwner, org.OwnerID)
	reqcache.Invalidate(ctx, kindOrg, org.ID)
}

func (c *Cached) Assessment(ctx context.Context, orgID uint) (*models.RiskAssessment, error) {
	return reqcache.Do(ctx, kindAssessment, orgID, func() (*models.RiskAssessment, error) {
		return c.Store.Assessment(ctx, orgID)
	})
}

func (c *Cached) SaveAssessment(ctx context.Context, a *models.RiskAssessment) error {
	defer reqcache.Invalidate(ctx, kindAssessment, a.OrganizationID)
	return c.Store.SaveAssessment(ctx, a)
}

func (c *Cached) RetakeAssessment(ctx context.Context, orgID uint, fresh *models.RiskAssessment) error {
	defer reqcache.Invalidate(ctx, kindAssessment, orgID)
	return c.Store.RetakeAssessment(ctx, orgID, fresh)
}
