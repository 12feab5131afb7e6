package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
)

// Store defines data access methods for users.
type Store interface {
	Create(ctx context.Context, u NewUser) (User, error)
	List(ctx context.Context, offset, limit int) ([]User, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, id string, c Changes) (User, error)
	Delete(ctx context.Context, id string) (string, error)
}

// RoleManager changes role assignments; implemented by the rbac service.
type RoleManager interface {
	AssignRole(ctx context.Context, userID, role string) ([]string, error)
	RevokeRole(ctx context.Context, userID, role string) ([]string, error)
}

// Invalidator drops cached role lookups for a user.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Service handles user business logic.
type Service struct {
	store       Store
	roles       RoleManager
	catalogue   *authz.Catalogue
	invalidator Invalidator
	validate    *validator.Validate
	logger      *slog.Logger
	hashCost    int
}

// Option customises a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithInvalidator sets the role cache invalidated when a user is deleted.
func WithInvalidator(inv Invalidator) Option {
	return func(s *Service) { s.invalidator = inv }
}

// NewService builds Service instance.
func NewService(store Store, roles RoleManager, catalogue *authz.Catalogue, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:     store,
		roles:     roles,
		catalogue: catalogue,
		validate:  httpx.NewValidator(),
		logger:    logger,
		hashCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a user. Users created without roles receive USER.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := s.validate.Struct(in); err != nil {
		return User{}, httpx.ValidationError(err)
	}
	roles := []string{string(authz.RoleUser)}
	if len(in.Roles) > 0 {
		roles = roles[:0]
		for _, name := range in.Roles {
			role, ok := s.catalogue.ParseRole(name)
			if !ok {
				return User{}, httpx.Errorf(httpx.ErrValidation, "Role '%s' does not exist", name)
			}
			roles = append(roles, string(role))
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return User{}, err
	}
	user, err := s.store.Create(ctx, NewUser{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		Roles:        roles,
	})
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", slog.String("user_id", user.ID), slog.Any("roles", user.Roles))
	return user, nil
}

// List returns one page of users.
func (s *Service) List(ctx context.Context, page shared.Page) (ListResult, error) {
	out := ListResult{Page: page.Page, Limit: page.Limit}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.store.List(ctx, page.Offset(), page.Limit)
		out.Items = items
		return err
	})
	g.Go(func() error {
		total, err := s.store.Count(ctx)
		out.Total = total
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}
	if out.Items == nil {
		out.Items = []User{}
	}
	return out, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if err := validateID(id); err != nil {
		return User{}, err
	}
	user, err := s.store.Get(ctx, id)
	return user, notFound(id, err)
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	if err := validateID(id); err != nil {
		return User{}, err
	}
	if in.IsEmpty() {
		return User{}, httpx.Errorf(httpx.ErrValidation, "Update data is required and cannot be empty")
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		in.Username = &username
	}
	if err := s.validate.Struct(in); err != nil {
		return User{}, httpx.ValidationError(err)
	}
	changes := Changes{Email: in.Email, Username: in.Username, FirstName: in.FirstName, LastName: in.LastName}
	if in.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.hashCost)
		if err != nil {
			return User{}, err
		}
		encoded := string(hash)
		changes.PasswordHash = &encoded
	}
	user, err := s.store.Update(ctx, id, changes)
	return user, notFound(id, err)
}

// Delete removes a user and returns its username.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	username, err := s.store.Delete(ctx, id)
	if err != nil {
		return "", notFound(id, err)
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, id); err != nil {
			s.logger.Warn("invalidate role cache", slog.String("user_id", id), slog.Any("error", err))
		}
	}
	s.logger.Info("user deleted", slog.String("user_id", id))
	return username, nil
}

// AssignRole grants a role to the user.
func (s *Service) AssignRole(ctx context.Context, id, role string) ([]string, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.roles.AssignRole(ctx, id, role)
}

// RevokeRole removes a role from the user.
func (s *Service) RevokeRole(ctx context.Context, id, role string) ([]string, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.roles.RevokeRole(ctx, id, role)
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return httpx.Errorf(httpx.ErrValidation, "User ID is required and cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return httpx.Errorf(httpx.ErrValidation, "User ID '%s' is not a valid UUID", id)
	}
	return nil
}

func notFound(id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return httpx.Errorf(httpx.ErrNotFound, "User with ID '%s' not found", id)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
