package service

import (
	"context"
	"fmt"
	"strings"

	"codeprep/internal/app/access"
	"codeprep/internal/app/stats"
	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/domain/repository"
)

type UserService struct {
	userRepo       repository.UserRepository
	submissionRepo repository.SubmissionRepository
}

func NewUserService(userRepo repository.UserRepository, submissionRepo repository.SubmissionRepository) *UserService {
	return &UserService{userRepo: userRepo, submissionRepo: submissionRepo}
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

func (s *UserService) Profile(ctx context.Context, p access.Principal) (*model.User, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, p.UserID)
}

// UpdateProfile applies only the fields present in req.
func (s *UserService) UpdateProfile(ctx context.Context, p access.Principal, req UpdateProfileRequest) (*model.User, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	if req.Username != nil {
		v := strings.TrimSpace(*req.Username)
		req.Username = &v
	}
	if req.Email != nil {
		v := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &v
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.Update(ctx, p.UserID, model.UserUpdate{Username: req.Username, Email: req.Email})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

func (s *UserService) Stats(ctx context.Context, p access.Principal) (*model.UserStats, error) {
	if err := access.RequireUser(p); err != nil {
		return nil, err
	}
	counts, err := s.submissionRepo.CountsForUser(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission counts: %w", err)
	}
	out := stats.BuildUserStats(counts)
	return &out, nil
}
