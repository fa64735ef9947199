package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeprep/internal/common"
	"codeprep/internal/common/security"
	"codeprep/internal/domain/model"
	"codeprep/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, logger *zap.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, logger: logger}
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	LoginField string `json:"login_field" validate:"required"` // Can be username or email
	Password   string `json:"password" validate:"required"`
}

// OAuthRequest comes from the trusted auth proxy after it has completed the
// provider handshake.
type OAuthRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"omitempty,max=50"`
	Provider string `json:"provider" validate:"required,oneof=google github"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashedPassword,
		AuthProvider:   model.AuthProviderCredentials,
		Role:           model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := common.Validate(req); err != nil {
		return nil, err
	}
	login := strings.TrimSpace(req.LoginField)

	// Try finding by email first, then by username
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(login))
	if errors.Is(err, common.ErrNotFound) {
		user, err = s.userRepo.FindByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// OAuth-only accounts are turned away before any hash comparison.
	if user.HashedPassword == "" {
		return nil, fmt.Errorf("this account signs in with %s: %w", user.AuthProvider, common.ErrUnauthorized)
	}
	if err := security.CheckPasswordHash(req.Password, user.HashedPassword); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}
	return s.issue(user)
}

// OAuthLogin finds the account for a verified provider identity or creates
// one without a password.
func (s *AuthService) OAuthLogin(ctx context.Context, req OAuthRequest) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.SplitN(req.Email, "@", 2)[0]
	}
	if _, err := s.userRepo.FindByUsername(ctx, username); err == nil {
		username = username + "-" + uuid.NewString()[:8]
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	user = &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        req.Email,
		AuthProvider: req.Provider,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("oauth user created", zap.String("user_id", user.ID), zap.String("provider", req.Provider))
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResponse, error) {
	token, err := security.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}
