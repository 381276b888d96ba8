package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"userdirectory/internal/auth"
	apperrors "userdirectory/internal/errors"
	"userdirectory/internal/metrics"
	"userdirectory/internal/model"
	"userdirectory/internal/repository"
)

// ErrTokenRevoked is returned for access tokens that were blacklisted on logout.
var ErrTokenRevoked = errors.New("token has been revoked")

// AuthService handles authentication operations.
type AuthService interface {
	// Login verifies the password of the user with userID and issues a token pair.
	Login(ctx context.Context, userID, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (accessToken string, err error)
	// Logout revokes refreshToken and, when access is non-nil, blacklists that access token.
	Logout(ctx context.Context, refreshToken string, access *auth.Claims) error
	// CheckAccess rejects refresh tokens and blacklisted access tokens.
	CheckAccess(ctx context.Context, access *auth.Claims) error
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     auth.PasswordHasher
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, hasher auth.PasswordHasher, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

func (s *authService) Login(ctx context.Context, userID, password string) (accessToken, refreshToken string, err error) {
	user, err := s.authenticate(ctx, userID, password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		} else {
			metrics.LoginAttempts.WithLabelValues("error").Inc()
		}
		return "", "", err
	}

	accessToken, err = s.jwtService.GenerateAccessToken(user.UserID)
	if err != nil {
		return "", "", fmt.Errorf("generate access token: %w", err)
	}

	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.UserID)
	if err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, user.UserID, s.jwtService.RefreshTTL()); err != nil {
		return "", "", fmt.Errorf("store refresh token: %w", err)
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return accessToken, refreshToken, nil
}

// authenticate loads the user and checks password against the stored digest.
func (s *authService) authenticate(ctx context.Context, userID, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAuthUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", apperrors.ErrInvalidRefreshToken
	}

	storedUserID, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil || storedUserID != claims.Subject {
		return "", apperrors.ErrInvalidRefreshToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string, access *auth.Claims) error {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return apperrors.ErrInvalidRefreshToken
	}
	if access != nil && access.Subject != claims.Subject {
		return apperrors.ErrInvalidRefreshToken
	}

	if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}

	if access != nil && access.ID != "" && access.ExpiresAt != nil {
		ttl := time.Until(access.ExpiresAt.Time)
		if ttl > 0 {
			if err := s.tokenStore.BlacklistAccessToken(ctx, access.ID, ttl); err != nil {
				return fmt.Errorf("blacklist access token: %w", err)
			}
		}
	}
	return nil
}

func (s *authService) CheckAccess(ctx context.Context, access *auth.Claims) error {
	if access == nil || !access.IsAccess() {
		return apperrors.ErrInvalidCredentials
	}
	revoked, err := s.tokenStore.IsAccessTokenBlacklisted(ctx, access.ID)
	if err != nil {
		return fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}
