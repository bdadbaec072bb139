package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/talavis/OrderPortal/internal/apperr"
	"github.com/talavis/OrderPortal/internal/auth"
	"github.com/talavis/OrderPortal/internal/models"
)

type AuthService struct {
	users     UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *slog.Logger
}

func NewAuthService(users UserRepository, jwtSecret string, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger.With(slog.String("component", "auth_service")),
	}
}

type AuthResult struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// CreateAccount registers an account with the given role. Only admins may
// create accounts.
func (s *AuthService) CreateAccount(ctx context.Context, caller *auth.Claims, email, password, name, role string) (*models.UserResponse, error) {
	if err := auth.RequireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.create(ctx, email, password, name, role)
	if err != nil {
		return nil, err
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	token, err := auth.GenerateToken(s.jwtSecret, s.tokenTTL, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user.ToResponse()}, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}
	resp := user.ToResponse()
	return &resp, nil
}

// SeedAdmin creates the admin account unless an account with the email
// already exists.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	existing, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if _, err := s.create(ctx, email, password, "Admin", models.RoleAdmin); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "admin account seeded", slog.String("email", email))
	return nil
}

func (s *AuthService) create(ctx context.Context, email, password, name, role string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("invalid email")
	}
	if len(password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}
	switch role {
	case models.RoleUser, models.RoleStaff, models.RoleAdmin:
	default:
		return nil, apperr.Validation("invalid role")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           newIUID(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		CreatedAt:    models.Timestamp(time.Now()),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
