package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
)

// AuthSubject identifies the caller when changing password.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// AuthService coordinates registration and login flows for citizens and
// officers.
type AuthService struct {
	citizens   repository.CitizenRepository
	officers   repository.OfficerRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	CitizenRepo       repository.CitizenRepository
	OfficerRepo       repository.OfficerRepository
	PasswordResetRepo repository.PasswordResetRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		citizens:   deps.CitizenRepo,
		officers:   deps.OfficerRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterCitizen creates a new citizen account.
func (s *AuthService) RegisterCitizen(ctx context.Context, name, email, password string) (*domain.Citizen, string, time.Time, error) {
	if _, err := s.citizens.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, errors.New("email already registered")
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, "", time.Time{}, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	citizen := &domain.Citizen{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       domain.CitizenStatusActive,
	}
	if err := s.citizens.Create(ctx, citizen); err != nil {
		return nil, "", time.Time{}, err
	}

	token, exp, err := s.tokenMgr.GenerateToken(citizen.ID, domain.SubjectTypeCitizen, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return citizen, token, exp, nil
}

// LoginCitizen authenticates a citizen.
func (s *AuthService) LoginCitizen(ctx context.Context, email, password string) (*domain.Citizen, string, time.Time, error) {
	citizen, err := s.citizens.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if citizen.Status != domain.CitizenStatusActive {
		return nil, "", time.Time{}, errors.New("account suspended")
	}
	if err := auth.ComparePassword(citizen.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(citizen.ID, domain.SubjectTypeCitizen, nil)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return citizen, token, exp, nil
}

// LoginOfficer authenticates an officer and returns a role-bearing token.
func (s *AuthService) LoginOfficer(ctx context.Context, email, password string) (*domain.Officer, string, time.Time, error) {
	officer, err := s.officers.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if !officer.Active {
		return nil, "", time.Time{}, errors.New("officer inactive")
	}
	if err := auth.ComparePassword(officer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, errors.New("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(officer.ID, domain.SubjectTypeOfficer, &officer.Role)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return officer, token, exp, nil
}

// RequestPasswordReset persists a reset token for either citizen or officer email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	subjectType := domain.SubjectTypeCitizen
	subjectID := ""

	if citizen, err := s.citizens.GetByEmail(ctx, email); err == nil {
		subjectID = citizen.ID
	} else if err == pgx.ErrNoRows {
		officer, officerErr := s.officers.GetByEmail(ctx, email)
		if officerErr != nil {
			return nil, officerErr
		}
		subjectType = domain.SubjectTypeOfficer
		subjectID = officer.ID
	} else {
		return nil, err
	}

	token := &repository.PasswordResetToken{
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return err
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return errors.New("token expired or used")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch domain.SubjectType(token.SubjectType) {
	case domain.SubjectTypeCitizen:
		citizen, err := s.citizens.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		citizen.PasswordHash = hash
		if err := s.citizens.Update(ctx, citizen); err != nil {
			return err
		}
	case domain.SubjectTypeOfficer:
		officer, err := s.officers.GetByID(ctx, token.SubjectID)
		if err != nil {
			return err
		}
		officer.PasswordHash = hash
		if err := s.officers.Update(ctx, officer); err != nil {
			return err
		}
	default:
		return errors.New("unknown subject type")
	}

	return s.resets.MarkUsed(ctx, token.ID)
}

// ChangePassword verifies the current password before updating to a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	switch subject.Type {
	case domain.SubjectTypeCitizen:
		citizen, err := s.citizens.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(citizen.PasswordHash, currentPassword); err != nil {
			return errors.New("invalid credentials")
		}
		citizen.PasswordHash = hash
		return s.citizens.Update(ctx, citizen)
	case domain.SubjectTypeOfficer:
		officer, err := s.officers.GetByID(ctx, subject.ID)
		if err != nil {
			return err
		}
		if err := auth.ComparePassword(officer.PasswordHash, currentPassword); err != nil {
			return errors.New("invalid credentials")
		}
		officer.PasswordHash = hash
		return s.officers.Update(ctx, officer)
	default:
		return errors.New("unknown subject")
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
