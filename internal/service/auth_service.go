package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"acadef/backend/config"
	"acadef/backend/internal/dto"
	"acadef/backend/internal/model"
	"acadef/backend/internal/repository"
	"acadef/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("identifiant ou mot de passe incorrect")
	ErrAccountDisabled    = errors.New("compte désactivé")
	ErrUserNotFound       = errors.New("utilisateur introuvable")
	ErrInvalidToken       = errors.New("jeton invalide ou expiré")
	ErrWrongPassword      = errors.New("mot de passe actuel incorrect")
)

// TokenBlacklist revoked token store (Redis in production)
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService authentication
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout revokes the token identified by jti until it would have expired.
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	// IssueTokens signs a token pair for an already authenticated user.
	IssueTokens(ctx context.Context, user *model.User, rememberMe bool) (*dto.TokenResponse, error)
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates an AuthService; blacklist may be nil
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("lookup user failed", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.IssueTokens(ctx, user, req.RememberMe)
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Error("check token blacklist failed", zap.Error(err))
			return nil, err
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("lookup user failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	// the old refresh token is single use
	if claims.ExpiresAt != nil {
		if err := s.Logout(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return nil, err
		}
	}

	return s.IssueTokens(ctx, user, claims.RememberMe)
}

// ────────────────────── Logout ──────────────────────

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("blacklist token failed", zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── GetCurrentUser ──────────────────────

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	resp := s.toUserResponse(ctx, user)
	return &resp, nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("lookup user failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error("hash password failed", zap.Error(err))
		return err
	}
	user.PasswordHash = hash
	user.MustChangePassword = false
	user.UpdatedBy = &userID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("update password failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── IssueTokens ──────────────────────

func (s *authService) IssueTokens(ctx context.Context, user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		s.logger.Error("generate access token failed", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, rememberMe)
	if err != nil {
		s.logger.Error("generate refresh token failed", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         s.toUserResponse(ctx, user),
	}, nil
}

func (s *authService) toUserResponse(ctx context.Context, user *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:                 user.UserID,
		Username:           user.Username,
		Email:              user.Email,
		Role:               user.Role,
		MustChangePassword: user.MustChangePassword,
	}
	if user.Role == model.RoleCandidate {
		if cand, err := s.repo.Candidate.GetByUserID(ctx, user.UserID); err == nil {
			resp.CandidateID = cand.CandidateID
		}
	}
	return resp
}
