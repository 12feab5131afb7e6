package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
)

// Store abstracts persistence for the service.
type Store interface {
	Sync(ctx context.Context, snap Snapshot) error
	ListRoles(ctx context.Context, offset, limit int) ([]Role, error)
	CountRoles(ctx context.Context) (int, error)
	GetRole(ctx context.Context, name string) (Role, error)
	ListPermissions(ctx context.Context, offset, limit int) ([]Permission, error)
	CountPermissions(ctx context.Context) (int, error)
	GetPermission(ctx context.Context, name string) (Permission, error)
	UserRoles(ctx context.Context, userID string) ([]string, error)
	AssignRole(ctx context.Context, userID, role string) error
	RevokeRole(ctx context.Context, userID, role string) error
}

// Invalidator drops cached role lookups for a user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Service exposes the catalogue mirror and user role assignments.
type Service struct {
	store       Store
	catalogue   *authz.Catalogue
	invalidator Invalidator
	logger      *slog.Logger
}

// NewService constructs a Service. invalidator may be nil.
func NewService(store Store, catalogue *authz.Catalogue, invalidator Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, catalogue: catalogue, invalidator: invalidator, logger: logger}
}

// SyncCatalogue mirrors the in-memory catalogue into the database.
func (s *Service) SyncCatalogue(ctx context.Context) error {
	var snap Snapshot
	for _, p := range s.catalogue.Permissions() {
		snap.Permissions = append(snap.Permissions, Permission{Name: string(p), Description: s.catalogue.PermissionDescription(p)})
	}
	for _, r := range s.catalogue.Roles() {
		snap.Roles = append(snap.Roles, Role{Name: string(r), Description: s.catalogue.RoleDescription(r)})
		for _, p := range s.catalogue.PermissionsFor(r) {
			snap.Grants = append(snap.Grants, Grant{Role: string(r), Permission: string(p)})
		}
	}
	if err := s.store.Sync(ctx, snap); err != nil {
		return err
	}
	s.logger.Info("catalogue synced",
		slog.Int("roles", len(snap.Roles)),
		slog.Int("permissions", len(snap.Permissions)),
		slog.Int("grants", len(snap.Grants)),
	)
	return nil
}

// ListRoles returns one page of roles.
func (s *Service) ListRoles(ctx context.Context, page shared.Page) (RolePage, error) {
	out := RolePage{Page: page.Page, Limit: page.Limit}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.store.ListRoles(ctx, page.Offset(), page.Limit)
		out.Items = items
		return err
	})
	g.Go(func() error {
		total, err := s.store.CountRoles(ctx)
		out.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return RolePage{}, err
	}
	if out.Items == nil {
		out.Items = []Role{}
	}
	return out, nil
}

// GetRole fetches a role by name; names are matched case-insensitively.
func (s *Service) GetRole(ctx context.Context, name string) (Role, error) {
	role, ok := s.catalogue.ParseRole(name)
	if !ok {
		return Role{}, httpx.Errorf(httpx.ErrNotFound, "Role '%s' not found", name)
	}
	found, err := s.store.GetRole(ctx, string(role))
	if errors.Is(err, ErrNotFound) {
		return Role{}, httpx.Errorf(httpx.ErrNotFound, "Role '%s' not found", name)
	}
	return found, err
}

// ListPermissions returns one page of permissions.
func (s *Service) ListPermissions(ctx context.Context, page shared.Page) (PermissionPage, error) {
	out := PermissionPage{Page: page.Page, Limit: page.Limit}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.store.ListPermissions(ctx, page.Offset(), page.Limit)
		out.Items = items
		return err
	})
	g.Go(func() error {
		total, err := s.store.CountPermissions(ctx)
		out.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return PermissionPage{}, err
	}
	if out.Items == nil {
		out.Items = []Permission{}
	}
	return out, nil
}

// GetPermission fetches a permission by name.
func (s *Service) GetPermission(ctx context.Context, name string) (Permission, error) {
	perm, ok := s.catalogue.ParsePermission(name)
	if !ok {
		return Permission{}, httpx.Errorf(httpx.ErrNotFound, "Permission '%s' not found", name)
	}
	found, err := s.store.GetPermission(ctx, string(perm))
	if errors.Is(err, ErrNotFound) {
		return Permission{}, httpx.Errorf(httpx.ErrNotFound, "Permission '%s' not found", name)
	}
	return found, err
}

// UserRoles returns the role names stored for a user. It passes
// ErrUserNotFound through so callers can tell a deleted account apart.
func (s *Service) UserRoles(ctx context.Context, userID string) ([]string, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, ErrUserNotFound
	}
	return s.store.UserRoles(ctx, userID)
}

// AssignRole grants a catalogue role to a user and returns the user's roles.
func (s *Service) AssignRole(ctx context.Context, userID, roleName string) ([]string, error) {
	role, ok := s.catalogue.ParseRole(roleName)
	if !ok {
		return nil, httpx.Errorf(httpx.ErrValidation, "Role '%s' does not exist", roleName)
	}
	if err := s.store.AssignRole(ctx, userID, string(role)); err != nil {
		return nil, s.userError(userID, err)
	}
	s.invalidate(ctx, userID)
	return s.rolesAfterChange(ctx, userID)
}

// RevokeRole removes a role from a user and returns the remaining roles.
func (s *Service) RevokeRole(ctx context.Context, userID, roleName string) ([]string, error) {
	role, ok := s.catalogue.ParseRole(roleName)
	if !ok {
		return nil, httpx.Errorf(httpx.ErrValidation, "Role '%s' does not exist", roleName)
	}
	if err := s.store.RevokeRole(ctx, userID, string(role)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, httpx.Errorf(httpx.ErrNotFound, "User with ID '%s' does not have role '%s'", userID, role)
		}
		return nil, err
	}
	s.invalidate(ctx, userID)
	return s.rolesAfterChange(ctx, userID)
}

func (s *Service) rolesAfterChange(ctx context.Context, userID string) ([]string, error) {
	roles, err := s.store.UserRoles(ctx, userID)
	if err != nil {
		return nil, s.userError(userID, err)
	}
	return roles, nil
}

func (s *Service) userError(userID string, err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return httpx.Errorf(httpx.ErrNotFound, "User with ID '%s' not found", userID)
	}
	return err
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, userID); err != nil {
		s.logger.Warn("invalidate role cache", slog.String("user_id", userID), slog.Any("error", err))
	}
}
