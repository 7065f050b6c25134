package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	tokens    *auth.TokenManager
	logger    *slog.Logger
	validator *validator.Validator

	checkPassword func(hash, plain string) (bool, error)
}

func NewAuthService(repo repositories.Repository, tokens *auth.TokenManager, logger *slog.Logger, validator *validator.Validator) AuthService {
	return &authService{
		repo:      repo,
		tokens:    tokens,
		logger:    logger,
		validator: validator,

		checkPassword: auth.CheckPassword,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if errors := s.validator.GetBusinessValidator().ValidateRegister(req); len(errors) > 0 {
		return nil, errors
	}

	email := normalizeEmail(req.Email)
	exists, err := s.repo.User().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleStudent,
	}
	if err := s.repo.User().Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "User registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Unknown emails pay for a bcrypt comparison too
			_, _ = s.checkPassword(auth.DummyHash(), req.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.checkPassword(user.PasswordHash, req.Password)
	if err != nil {
		s.logger.ErrorContext(ctx, "Stored password hash is unusable", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error {
	if errors := s.validator.GetBusinessValidator().ValidatePasswordChange(req); len(errors) > 0 {
		return errors
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.User().UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.InfoContext(ctx, "Password changed", "user_id", userID)
	return nil
}

func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) (*models.User, bool, error) {
	req := &RegisterRequest{Name: name, Email: email, Password: password}
	if errors := s.validator.GetBusinessValidator().ValidateRegister(req); len(errors) > 0 {
		return nil, false, errors
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, false, err
	}

	email = normalizeEmail(email)
	user, err := s.repo.User().GetByEmail(ctx, email)
	switch {
	case err == nil:
		user.Name = strings.TrimSpace(name)
		user.Role = models.RoleAdmin
		if err := s.repo.User().Update(ctx, user); err != nil {
			return nil, false, fmt.Errorf("failed to promote user: %w", err)
		}
		if err := s.repo.User().UpdatePassword(ctx, user.ID, hash); err != nil {
			return nil, false, fmt.Errorf("failed to reset password: %w", err)
		}
		s.logger.InfoContext(ctx, "Existing user promoted to admin", "user_id", user.ID)
		return user, false, nil

	case repositories.IsNotFoundError(err):
		user = &models.User{
			Name:         strings.TrimSpace(name),
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		}
		if err := s.repo.User().Create(ctx, user); err != nil {
			return nil, false, fmt.Errorf("failed to create admin: %w", err)
		}
		s.logger.InfoContext(ctx, "Admin created", "user_id", user.ID)
		return user, true, nil

	default:
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResponse{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt.Unix(),
	}, nil
}
