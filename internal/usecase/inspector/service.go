package inspector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yardcheck/internal/config"
	domainInspector "yardcheck/internal/domain/inspector"
	"yardcheck/internal/logger"
	appErrors "yardcheck/pkg/errors"
	"yardcheck/pkg/utils"
)

// Service implements inspector account use cases
type Service struct {
	repo   domainInspector.Repository
	config *config.Config
}

// NewService creates a new inspector service
func NewService(repo domainInspector.Repository, cfg *config.Config) *Service {
	return &Service{repo: repo, config: cfg}
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	email, err := utils.ValidateAndSanitizeEmail(req.Email)
	if err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	insp, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainInspector.ErrInspectorNotFound) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !insp.IsActive {
		return nil, domainInspector.ErrInspectorInactive
	}
	if !utils.CheckPassword(insp.PasswordHashed, req.Password) {
		logger.Warn("Failed login attempt",
			zap.String("email", email),
			zap.String("event", "login_failed"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(
		insp.ID,
		insp.Name,
		insp.Email,
		string(insp.Role),
		s.config.JWT.Secret,
		time.Duration(s.config.JWT.ExpiryHours)*time.Hour,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info("Inspector logged in",
		zap.String("inspector_id", insp.ID.String()),
		zap.String("event", "login_succeeded"),
	)

	return &AuthResponse{
		Inspector: ToInspectorResponse(insp),
		Token:     token,
		ExpiresAt: time.Now().Add(time.Duration(s.config.JWT.ExpiryHours) * time.Hour),
	}, nil
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*InspectorResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, appErrors.NewAppError("WEAK_PASSWORD", err.Error(), nil)
	}

	email, err := utils.ValidateAndSanitizeEmail(req.Email)
	if err != nil {
		return nil, appErrors.ErrInvalidEmail
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domainInspector.ErrInspectorNotFound) {
		return nil, fmt.Errorf("failed to check existing inspector: %w", err)
	}
	if existing != nil {
		return nil, domainInspector.ErrInspectorAlreadyExists
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := domainInspector.Role(req.Role)
	if role == "" {
		role = domainInspector.RoleInspector
	}

	insp := &domainInspector.Inspector{
		Name:           req.Name,
		Email:          email,
		PasswordHashed: hashed,
		Role:           role,
		IsActive:       true,
		// Admin-created accounts start with a temporary password
		MustChangePassword: true,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
	if err := s.repo.Create(ctx, insp); err != nil {
		return nil, err
	}

	logger.Info("Inspector account created",
		zap.String("inspector_id", insp.ID.String()),
		zap.String("role", string(insp.Role)),
		zap.String("event", "inspector_registered"),
	)

	return ToInspectorResponse(insp), nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return appErrors.NewAppError("WEAK_PASSWORD", err.Error(), nil)
	}

	insp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(insp.PasswordHashed, req.CurrentPassword) {
		return appErrors.ErrInvalidCredentials
	}

	hashed, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, id, hashed)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*InspectorResponse, error) {
	insp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToInspectorResponse(insp), nil
}

func (s *Service) GetAll(ctx context.Context) ([]*InspectorResponse, error) {
	inspectors, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*InspectorResponse, len(inspectors))
	for i, insp := range inspectors {
		out[i] = ToInspectorResponse(insp)
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *UpdateRequest) (*InspectorResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError("VALIDATION_ERROR", "Invalid input", err)
	}

	insp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email, err := utils.ValidateAndSanitizeEmail(*req.Email)
		if err != nil {
			return nil, appErrors.ErrInvalidEmail
		}
		insp.Email = email
	}
	if req.Role != nil {
		insp.Role = domainInspector.Role(*req.Role)
	}
	if req.IsActive != nil {
		insp.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, insp); err != nil {
		return nil, err
	}
	return ToInspectorResponse(insp), nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
