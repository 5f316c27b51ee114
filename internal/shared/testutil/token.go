package testutil

import (
	"testing"

	"github.com/communitylink/membership-api/internal/identity"
	"github.com/communitylink/membership-api/internal/shared/token"
)

// MockTokenManager is a mock implementation of token.Manager for testing
type MockTokenManager struct {
	GenerateAccessTokenFunc  func(subject token.Subject) (string, error)
	GenerateRefreshTokenFunc func(subject token.Subject) (string, error)
	ValidateTokenFunc        func(tokenString string) (*token.Claims, error)
}

func (m *MockTokenManager) GenerateAccessToken(subject token.Subject) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(subject)
	}
	return "mock-access-token", nil
}

func (m *MockTokenManager) GenerateRefreshToken(subject token.Subject) (string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(subject)
	}
	return "mock-refresh-token", nil
}

func (m *MockTokenManager) ValidateToken(tokenString string) (*token.Claims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	return nil, nil
}

// Ensure MockTokenManager implements token.Manager
var _ token.Manager = (*MockTokenManager)(nil)

// NewMockTokenManager creates a new mock token manager with default behavior
func NewMockTokenManager() *MockTokenManager {
	return &MockTokenManager{}
}

// AdminToken signs a real access token carrying the admin group.
func AdminToken(t *testing.T, manager token.Manager, accountID string) string {
	t.Helper()
	return signToken(t, manager, token.Subject{
		AccountID: accountID,
		Email:     "admin@example.org",
		Groups:    []string{identity.GroupAdmin},
	})
}

// MemberToken signs a real access token for a member account.
func MemberToken(t *testing.T, manager token.Manager, accountID, email string) string {
	t.Helper()
	return signToken(t, manager, token.Subject{
		AccountID: accountID,
		Email:     email,
		Groups:    []string{identity.GroupMember},
	})
}

func signToken(t *testing.T, manager token.Manager, subject token.Subject) string {
	t.Helper()
	signed, err := manager.GenerateAccessToken(subject)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}
