package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/store"
)

// ErrBadCredentials is returned for an unknown user or a wrong password alike.
var ErrBadCredentials = errors.New("invalid username or password")

// Register creates an account. Admins are seeded, never registered.
func (s *Service) Register(ctx context.Context, username, password string, role models.UserRole) (*models.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return nil, invalid("username", "must be at least 3 characters")
	}
	if len(password) < 8 {
		return nil, invalid("password", "must be at least 8 characters")
	}
	if role == "" {
		role = models.RoleOfficer
	}
	switch role {
	case models.RoleOfficer, models.RoleStaff, models.RoleViewer:
	default:
		return nil, invalid("role", "%q cannot be registered", role)
	}

	if _, err := s.store.UserByUsername(ctx, username); err == nil {
		return nil, invalid("username", "already taken")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &models.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.store.UserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

func (s *Service) User(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.store.UserByID(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return u, nil
}
