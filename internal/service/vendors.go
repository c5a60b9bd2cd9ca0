package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"hipaa-compliance/internal/actions"
	"hipaa-compliance/internal/models"
)

type VendorInput struct {
	Name          string     `json:"name"`
	Service       string     `json:"service"`
	ContactEmail  string     `json:"contact_email"`
	HasPHIAccess  bool       `json:"has_phi_access"`
	BAASigned     bool       `json:"baa_signed"`
	BAASignedAt   *time.Time `json:"baa_signed_at"`
	BAAExpiration *time.Time `json:"baa_expiration"`
	Notes         string     `json:"notes"`
}

func (in VendorInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if in.ContactEmail != "" {
		if _, err := mail.ParseAddress(in.ContactEmail); err != nil {
			return invalid("contact_email", "is not a valid address")
		}
	}
	if in.BAASignedAt != nil && in.BAAExpiration != nil && in.BAAExpiration.Before(*in.BAASignedAt) {
		return invalid("baa_expiration", "is before the signing date")
	}
	return nil
}

func (in VendorInput) apply(v *models.Vendor) {
	v.Name = strings.TrimSpace(in.Name)
	v.Service = in.Service
	v.ContactEmail = in.ContactEmail
	v.HasPHIAccess = in.HasPHIAccess
	v.BAASigned = in.BAASigned
	v.BAASignedAt = in.BAASignedAt
	v.BAAExpiration = in.BAAExpiration
	v.Notes = in.Notes
}

func (s *Service) ListVendors(ctx context.Context, actor Actor) ([]models.Vendor, error) {
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.store.ListVendors(ctx, org.ID)
}

func (s *Service) CreateVendor(ctx context.Context, actor Actor, in VendorInput) (*models.Vendor, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	v := &models.Vendor{OrganizationID: org.ID}
	in.apply(v)
	if err := s.store.CreateVendor(ctx, v); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, org.ID, "vendor", v.ID, "create", v.Name)
	return v, nil
}

func (s *Service) UpdateVendor(ctx context.Context, actor Actor, id uint, in VendorInput) (*models.Vendor, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	org, err := s.organization(ctx, actor)
	if err != nil {
		return nil, err
	}
	v, err := s.store.Vendor(ctx, org.ID, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	in.apply(v)
	if err := s.store.UpdateVendor(ctx, v); err != nil {
		return nil, err
	}
	s.audit(ctx, actor, org.ID, "vendor", v.ID, "update", fmt.Sprintf("%s baa_signed=%t", v.Name, v.BAASigned))
	return v, nil
}

func (s *Service) DeleteVendor(ctx context.Context, actor Actor, id uint) error {
	org, err := s.organization(ctx, actor)
	if err != nil {
		return err
	}
	if err := s.store.DeleteVendor(ctx, org.ID, id); err != nil {
		return mapStoreErr(err)
	}
	s.audit(ctx, actor, org.ID, "vendor", id, "delete", "")

	// Sync never sees a deleted vendor again, so its open BAA items would
	// stay pending forever.
	if err := s.dismissVendorItems(ctx, org.ID, id); err != nil {
		s.log.WarnContext(ctx, "failed to dismiss action items of deleted vendor",
			"organization_id", org.ID, "vendor_id", id, "error", err)
	}
	return nil
}

func (s *Service) dismissVendorItems(ctx context.Context, orgID, vendorID uint) error {
	items, err := s.store.ListActionItems(ctx, orgID, "")
	if err != nil {
		return err
	}
	for i := range items {
		it := &items[i]
		if it.Source != actions.SourceVendor || it.SourceID != vendorID {
			continue
		}
		if it.Status != models.ActionPending && it.Status != models.ActionInProgress {
			continue
		}
		it.Status = models.ActionDismissed
		if err := s.store.UpdateActionItem(ctx, it); err != nil {
			return err
		}
	}
	return nil
}
