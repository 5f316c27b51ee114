// Package identity provisions and toggles portal login accounts.
package identity

import "context"

// Groups reported by GroupsOf
const (
	GroupMember = "member"
	GroupAdmin  = "admin"
)

// Provider is the identity system consumed by the membership lifecycle.
type Provider interface {
	// CreateAccount provisions a disabled account; Enable activates it.
	CreateAccount(ctx context.Context, email, password string) (string, error)
	Enable(ctx context.Context, accountID string) error
	Disable(ctx context.Context, accountID string) error
	GroupsOf(ctx context.Context, accountID string) ([]string, error)
	// FindByEmail returns the account ID registered for email, if any.
	FindByEmail(ctx context.Context, email string) (string, bool, error)
}

// Account is the authenticated view of an identity account.
type Account struct {
	ID      string
	Email   string
	Enabled bool
	Groups  []string
}

func (a *Account) HasGroup(group string) bool {
	return containsGroup(a.Groups, group)
}

// Authenticator verifies login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*Account, error)
	Lookup(ctx context.Context, accountID string) (*Account, error)
}
