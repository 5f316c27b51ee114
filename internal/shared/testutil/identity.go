package testutil

import (
	"context"
	"testing"

	"github.com/communitylink/membership-api/internal/identity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewLocalIdentity returns a database-backed identity provider with a cheap hash cost
func NewLocalIdentity(db *gorm.DB) *identity.LocalProvider {
	return identity.NewLocalProvider(db, identity.NewAccountRepository()).WithHashCost(bcrypt.MinCost)
}

// FlakyIdentity delegates to a real provider unless a hook overrides the call.
type FlakyIdentity struct {
	identity.Provider

	CreateAccountFunc func(ctx context.Context, email, password string) (string, error)
	EnableFunc        func(ctx context.Context, accountID string) error
	DisableFunc       func(ctx context.Context, accountID string) error

	Creates int
}

func (f *FlakyIdentity) CreateAccount(ctx context.Context, email, password string) (string, error) {
	f.Creates++
	if f.CreateAccountFunc != nil {
		return f.CreateAccountFunc(ctx, email, password)
	}
	return f.Provider.CreateAccount(ctx, email, password)
}

func (f *FlakyIdentity) Enable(ctx context.Context, accountID string) error {
	if f.EnableFunc != nil {
		return f.EnableFunc(ctx, accountID)
	}
	return f.Provider.Enable(ctx, accountID)
}

func (f *FlakyIdentity) Disable(ctx context.Context, accountID string) error {
	if f.DisableFunc != nil {
		return f.DisableFunc(ctx, accountID)
	}
	return f.Provider.Disable(ctx, accountID)
}

// AccountEnabled reads the enabled flag straight from the identity table.
func AccountEnabled(t *testing.T, db *gorm.DB, accountID string) bool {
	t.Helper()

	var enabled bool
	err := db.Table("identity_account").Select("enabled").Where("id = ?", accountID).Scan(&enabled).Error
	if err != nil {
		t.Fatalf("Failed to read identity account %s: %v", accountID, err)
	}
	return enabled
}
