package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/carolinavmo/PMR-atlas/internal/access"
	"github.com/carolinavmo/PMR-atlas/internal/apperr"
	"github.com/carolinavmo/PMR-atlas/internal/models"
	"github.com/carolinavmo/PMR-atlas/internal/tokens"
)

const defaultBcryptCost = 12

// Service encapsulates user-related business logic
type Service struct {
	repo UserRepository
	cost int
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, cost: defaultBcryptCost}
}

// WithBcryptCost lowers the hashing cost; tests use bcrypt.MinCost.
func (s *Service) WithBcryptCost(cost int) *Service {
	s.cost = cost
	return s
}

type RegisterInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(8, 128)),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
	)
}

// Register creates a local account with the student role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if existing, err := s.repo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrEmailTaken
	}
	return s.create(ctx, in.Email, in.Password, in.Name, models.RoleStudent)
}

func (s *Service) create(ctx context.Context, email, password, name string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	id := uuid.NewString()
	u := &models.User{
		ID:           id,
		Sub:          id,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a local account's password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil || u.PasswordHash == "" {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	}
	return u, nil
}

// UpsertFromClaims creates or updates a user using OIDC claims map
func (s *Service) UpsertFromClaims(ctx context.Context, claims map[string]interface{}) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, nil
	}
	u := &models.User{
		Sub:   sub,
		Email: normalizeEmail(email),
		Name:  name,
		Role:  models.RoleStudent,
	}
	return s.repo.UpsertBySub(ctx, u)
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}

// ResolveCaller maps verified token claims to the stored account. Roles
// always come from the store, so a role change applies to tokens already
// issued. Externally issued tokens provision a student account on first use.
func (s *Service) ResolveCaller(ctx context.Context, claims map[string]interface{}) (access.Caller, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return access.Caller{}, fmt.Errorf("%w: token has no subject", apperr.ErrUnauthorized)
	}
	u, err := s.repo.GetBySub(ctx, sub)
	if err != nil {
		return access.Caller{}, err
	}
	if u == nil {
		if iss, _ := claims["iss"].(string); iss == tokens.Issuer {
			return access.Caller{}, fmt.Errorf("%w: account no longer exists", apperr.ErrUnauthorized)
		}
		if u, err = s.UpsertFromClaims(ctx, claims); err != nil {
			return access.Caller{}, err
		}
	}
	if u == nil {
		return access.Caller{}, fmt.Errorf("%w: unknown user", apperr.ErrUnauthorized)
	}
	return access.Caller{ID: u.ID, Name: u.Name, Role: u.Role}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %w", apperr.ErrNotFound)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, caller access.Caller) ([]*models.User, error) {
	if err := access.Check(caller, access.ManageUsers); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// SetRole changes another user's role.
func (s *Service) SetRole(ctx context.Context, caller access.Caller, id, role string) (*models.User, error) {
	if err := access.Check(caller, access.ManageUsers); err != nil {
		return nil, err
	}
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: invalid role %q", apperr.ErrValidation, role)
	}
	u, err := s.repo.UpdateRole(ctx, id, r)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %w", apperr.ErrNotFound)
	}
	return u, nil
}

// EnsureAdmin creates the admin account if no user owns email yet. It
// reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (*models.User, bool, error) {
	email = normalizeEmail(email)
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	if len(password) < 8 {
		return nil, false, fmt.Errorf("%w: admin password must be at least 8 characters", apperr.ErrValidation)
	}
	u, err := s.create(ctx, email, password, name, models.RoleAdmin)
	if err != nil {
		return nil, false, err
	}
	return u, true, nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
