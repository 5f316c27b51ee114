package token

import (
	"errors"
	"slices"
	"time"

	"github.com/communitylink/membership-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("token: invalid token")
	ErrExpiredToken  = errors.New("token: expired token")
	ErrInvalidClaims = errors.New("token: invalid claims")
)

const (
	ACCESS  = "access"
	REFRESH = "refresh"
)

// Subject identifies the account a token is issued to.
type Subject struct {
	AccountID string
	Email     string
	Groups    []string
}

type Claims struct {
	AccountID string   `json:"account_id"`
	Email     string   `json:"email"`
	Groups    []string `json:"groups"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}

func (c *Claims) HasGroup(group string) bool {
	return slices.Contains(c.Groups, group)
}

type Manager interface {
	GenerateAccessToken(subject Subject) (string, error)
	GenerateRefreshToken(subject Subject) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTManager struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret:        []byte(cfg.JWT.Secret),
		issuer:        cfg.App.Name,
		accessExpiry:  cfg.JWT.Expiry,
		refreshExpiry: cfg.JWT.RefreshExpiry,
	}
}

func (m *JWTManager) GenerateAccessToken(subject Subject) (string, error) {
	return m.sign(subject, ACCESS, m.accessExpiry)
}

func (m *JWTManager) GenerateRefreshToken(subject Subject) (string, error) {
	return m.sign(subject, REFRESH, m.refreshExpiry)
}

func (m *JWTManager) sign(subject Subject, tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		AccountID: subject.AccountID,
		Email:     subject.Email,
		Groups:    subject.Groups,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject.AccountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(m.issuer),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.AccountID == "" {
		return nil, ErrInvalidClaims
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
