package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/siplan/siplan-skills/internal/core/domain"
	"github.com/siplan/siplan-skills/internal/core/ports"
)

// AdminService manages tenants, login tokens, access grants, and the
// administrator roster. Roster membership checks go through a per-email cache
// so repeated lookups within a session hit Redis, not Mongo.
type AdminService struct {
	cartorios ports.CartorioRepository
	users     ports.TenantUserRepository
	tokens    ports.LoginTokenRepository
	grants    ports.GrantRepository
	admins    ports.AdminRepository
	status    ports.AdminStatusCache
	now       func() time.Time
	log       zerolog.Logger
}

func NewAdminService(
	cartorios ports.CartorioRepository,
	users ports.TenantUserRepository,
	tokens ports.LoginTokenRepository,
	grants ports.GrantRepository,
	admins ports.AdminRepository,
	status ports.AdminStatusCache,
	log zerolog.Logger,
) *AdminService {
	return &AdminService{
		cartorios: cartorios,
		users:     users,
		tokens:    tokens,
		grants:    grants,
		admins:    admins,
		status:    status,
		now:       time.Now,
		log:       log,
	}
}

func (s *AdminService) CreateCartorio(ctx context.Context, nome, cidade, estado string) (*domain.Cartorio, error) {
	if strings.TrimSpace(nome) == "" {
		return nil, domain.ErrInvalidInput
	}
	now := s.now().UTC()
	return s.cartorios.Create(ctx, &domain.Cartorio{
		Nome:      nome,
		Cidade:    cidade,
		Estado:    estado,
		Ativo:     true,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *AdminService) ListCartorios(ctx context.Context) ([]*domain.Cartorio, error) {
	return s.cartorios.List(ctx)
}

func (s *AdminService) SetCartorioActive(ctx context.Context, id string, active bool) error {
	return s.cartorios.SetActive(ctx, id, active)
}

func (s *AdminService) CreateTenantUser(ctx context.Context, cartorioID, username, displayName, email string) (*domain.TenantUser, error) {
	if strings.TrimSpace(username) == "" || cartorioID == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.cartorios.FindByID(ctx, cartorioID); err != nil {
		return nil, fmt.Errorf("create tenant user: %w", err)
	}
	username = strings.ToLower(strings.TrimSpace(username))
	if displayName == "" {
		displayName = username
	}
	return s.users.Create(ctx, &domain.TenantUser{
		CartorioID:  cartorioID,
		Username:    username,
		DisplayName: displayName,
		Email:       email,
		Ativo:       true,
		CreatedAt:   s.now().UTC(),
	})
}

// IssueLoginToken mints a new opaque "CART-..." token for the cartorio.
func (s *AdminService) IssueLoginToken(ctx context.Context, cartorioID string, expiresAt *time.Time) (*domain.LoginToken, error) {
	if _, err := s.cartorios.FindByID(ctx, cartorioID); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return s.tokens.Create(ctx, &domain.LoginToken{
		CartorioID: cartorioID,
		Token:      generateLoginToken(),
		Ativo:      true,
		ExpiresAt:  expiresAt,
		CreatedAt:  s.now().UTC(),
	})
}

func (s *AdminService) RevokeLoginToken(ctx context.Context, tokenID string) error {
	return s.tokens.SetActive(ctx, tokenID, false)
}

func (s *AdminService) GrantAccess(ctx context.Context, cartorioID, systemID, productID string, level domain.AccessLevel) (*domain.AccessGrant, error) {
	if cartorioID == "" || (systemID == "" && productID == "") {
		return nil, domain.ErrInvalidInput
	}
	if level == "" {
		level = domain.AccessFull
	}
	return s.grants.Create(ctx, &domain.AccessGrant{
		CartorioID:  cartorioID,
		SystemID:    systemID,
		ProductID:   productID,
		AccessLevel: level,
		Active:      true,
		CreatedAt:   s.now().UTC(),
	})
}

func (s *AdminService) ListGrants(ctx context.Context, cartorioID string) ([]*domain.AccessGrant, error) {
	return s.grants.ListByCartorio(ctx, cartorioID)
}

func (s *AdminService) RevokeGrant(ctx context.Context, grantID string) error {
	return s.grants.Revoke(ctx, grantID)
}

// IsAdmin reports roster membership for an email, memoised in the status
// cache. Cache failures fall through to the roster lookup.
func (s *AdminService) IsAdmin(ctx context.Context, email string) (bool, error) {
	if cached, err := s.status.Get(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("admin-status cache read failed")
	} else if cached != nil {
		return *cached, nil
	}

	isAdmin := true
	if _, err := s.admins.FindByEmail(ctx, email); err != nil {
		if !errors.Is(err, domain.ErrAdminNotFound) {
			return false, fmt.Errorf("roster lookup: %w", err)
		}
		isAdmin = false
	}

	if err := s.status.Set(ctx, email, isAdmin); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("admin-status cache write failed")
	}
	return isAdmin, nil
}

func (s *AdminService) FindAdmin(ctx context.Context, email string) (*domain.AdminProfile, error) {
	return s.admins.FindByEmail(ctx, email)
}

func (s *AdminService) AddAdmin(ctx context.Context, email, displayName string) (*domain.AdminProfile, error) {
	if strings.TrimSpace(email) == "" {
		return nil, domain.ErrInvalidInput
	}
	profile, err := s.admins.Create(ctx, &domain.AdminProfile{
		Email:       strings.ToLower(email),
		DisplayName: displayName,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.status.Invalidate(ctx, profile.Email); err != nil {
		s.log.Warn().Err(err).Str("email", profile.Email).Msg("admin-status cache invalidate failed")
	}
	return profile, nil
}

func (s *AdminService) RemoveAdmin(ctx context.Context, email string) error {
	if err := s.admins.Delete(ctx, email); err != nil {
		return err
	}
	if err := s.status.Invalidate(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("admin-status cache invalidate failed")
	}
	return nil
}

const loginTokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// generateLoginToken returns an opaque token of the form CART-XXXX-XXXXXXXX.
func generateLoginToken() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = loginTokenAlphabet[int(b)%len(loginTokenAlphabet)]
	}
	return fmt.Sprintf("CART-%s-%s", buf[:4], buf[4:])
}
