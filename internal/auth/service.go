package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookapi/book-api/internal/authz"
	"github.com/bookapi/book-api/internal/platform/httpx"
	"github.com/bookapi/book-api/internal/shared"
	"github.com/bookapi/book-api/internal/users"
)

// UserDirectory creates and loads user accounts.
type UserDirectory interface {
	Create(ctx context.Context, in users.CreateInput) (users.User, error)
	Get(ctx context.Context, id string) (users.User, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo      Repository
	users     UserDirectory
	tokens    *TokenIssuer
	catalogue *authz.Catalogue
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, directory UserDirectory, tokens *TokenIssuer, catalogue *authz.Catalogue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		users:     directory,
		tokens:    tokens,
		catalogue: catalogue,
		validate:  httpx.NewValidator(),
		logger:    logger,
	}
}

// Register creates an account holding the USER role and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if err := s.validate.Struct(in); err != nil {
		return Session{}, httpx.ValidationError(err)
	}
	user, err := s.users.Create(ctx, users.CreateInput{
		Email:     in.Email,
		Username:  in.Username,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Roles:     []string{string(authz.RoleUser)},
	})
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// Authenticate validates email/password credentials and returns the account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	creds, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, shared.ErrNotFound) {
		return users.User{}, shared.ErrInvalidCredentials
	}
	if err != nil {
		return users.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return users.User{}, shared.ErrInvalidCredentials
	}
	return s.users.Get(ctx, creds.UserID)
}

// Login checks credentials and issues an access token.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := s.validate.Struct(in); err != nil {
		return Session{}, httpx.ValidationError(err)
	}
	user, err := s.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			s.logger.Info("login rejected", slog.String("email", in.Email))
		}
		return Session{}, err
	}
	return s.session(user)
}

// Profile returns the caller's account and effective permissions.
func (s *Service) Profile(ctx context.Context, id *authz.Identity) (Profile, error) {
	if id == nil {
		return Profile{}, httpx.Errorf(httpx.ErrUnauthorized, "Authentication required. Please provide a valid token.")
	}
	user, err := s.users.Get(ctx, id.Subject)
	if err != nil {
		return Profile{}, err
	}
	return Profile{User: user, Permissions: s.catalogue.DerivePermissions(id.Roles)}, nil
}

func (s *Service) session(user users.User) (Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{AccessToken: token.Raw, TokenType: "Bearer", ExpiresAt: token.ExpiresAt, User: user}, nil
}
