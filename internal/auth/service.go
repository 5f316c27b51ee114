package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/communitylink/membership-api/internal/identity"
	"github.com/communitylink/membership-api/internal/shared/logger"
	"github.com/communitylink/membership-api/internal/shared/token"
)

type AuthService struct {
	authenticator identity.Authenticator
	tokenManager  token.Manager
}

func NewAuthService(authenticator identity.Authenticator, tokenManager token.Manager) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		tokenManager:  tokenManager,
	}
}

// Login verifies credentials with the identity provider. Accounts of members
// that are not yet approved, suspended or expired are disabled and cannot log in.
func (a *AuthService) Login(ctx context.Context, request *LoginRequest) (*LoginResponse, error) {
	log := logger.FromContext(ctx)

	account, err := a.authenticator.Authenticate(ctx, request.Email, request.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			log.Warn("로그인 실패 - invalid credentials", "email", logger.MaskEmail(request.Email))
		case errors.Is(err, identity.ErrAccountDisabled):
			log.Warn("로그인 실패 - account disabled", "email", logger.MaskEmail(request.Email))
		default:
			log.Error("로그인 실패 - 알 수 없는 오류", "error", err)
		}
		return nil, fmt.Errorf("로그인 실패: %w", err)
	}

	return a.issue(ctx, account)
}

// Refresh exchanges a refresh token for a new token pair. The account is
// looked up again so a member disabled since login cannot keep refreshing.
func (a *AuthService) Refresh(ctx context.Context, request *RefreshRequest) (*LoginResponse, error) {
	log := logger.FromContext(ctx)

	claims, err := a.tokenManager.ValidateToken(request.RefreshToken)
	if err != nil || claims == nil {
		log.Warn("토큰 갱신 실패 - invalid token", "error", err)
		return nil, fmt.Errorf("validate refresh token: %w", ErrInvalidRefreshToken)
	}
	if claims.TokenType != token.REFRESH {
		log.Warn("토큰 갱신 실패 - not a refresh token", "type", claims.TokenType)
		return nil, fmt.Errorf("token type %q: %w", claims.TokenType, ErrInvalidRefreshToken)
	}

	account, err := a.authenticator.Lookup(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, fmt.Errorf("account %s: %w", claims.AccountID, ErrInvalidRefreshToken)
		}
		return nil, fmt.Errorf("토큰 갱신 실패: %w", err)
	}
	if !account.Enabled {
		log.Warn("토큰 갱신 실패 - account disabled", "accountId", account.ID)
		return nil, fmt.Errorf("account %s: %w", account.ID, identity.ErrAccountDisabled)
	}

	return a.issue(ctx, account)
}

func (a *AuthService) issue(ctx context.Context, account *identity.Account) (*LoginResponse, error) {
	log := logger.FromContext(ctx)

	subject := token.Subject{
		AccountID: account.ID,
		Email:     account.Email,
		Groups:    account.Groups,
	}

	accessToken, err := a.tokenManager.GenerateAccessToken(subject)
	if err != nil {
		log.Error("access token 생성 실패", "error", err)
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := a.tokenManager.GenerateRefreshToken(subject)
	if err != nil {
		log.Error("refresh token 생성 실패", "error", err)
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	log.Info("로그인 성공", "accountId", account.ID)
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
