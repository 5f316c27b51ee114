package identity_test

import (
	"context"
	"testing"

	"github.com/communitylink/membership-api/internal/identity"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupProvider(t *testing.T) *identity.LocalProvider {
	t.Helper()

	db := testutil.NewTestDB(t)
	return identity.NewLocalProvider(db, identity.NewAccountRepository()).WithHashCost(bcrypt.MinCost)
}

func TestCreateAccount_StartsDisabled(t *testing.T) {
	ctx := context.Background()
	provider := setupProvider(t)

	// When: Create account
	id, err := provider.CreateAccount(ctx, "Jane@Example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Then: Login is refused until enabled
	_, err = provider.Authenticate(ctx, "jane@example.com", "password123")
	assert.ErrorIs(t, err, identity.ErrAccountDisabled)

	require.NoError(t, provider.Enable(ctx, id))
	account, err := provider.Authenticate(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.True(t, account.HasGroup(identity.GroupMember))
	assert.False(t, account.HasGroup(identity.GroupAdmin))
}

func TestCreateAccount_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	provider := setupProvider(t)

	_, err := provider.CreateAccount(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	_, err = provider.CreateAccount(ctx, "JANE@example.com", "password456")
	assert.ErrorIs(t, err, identity.ErrAccountExists)
}

func TestCreateAccount_RequiresPassword(t *testing.T) {
	provider := setupProvider(t)

	_, err := provider.CreateAccount(context.Background(), "jane@example.com", "")
	assert.Error(t, err)
}

func TestDisable_UnknownAccount(t *testing.T) {
	provider := setupProvider(t)

	err := provider.Disable(context.Background(), "missing")
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)
}

func TestFindByEmail(t *testing.T) {
	ctx := context.Background()
	provider := setupProvider(t)

	_, found, err := provider.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, found)

	id, err := provider.CreateAccount(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	got, found, err := provider.FindByEmail(ctx, " Jane@example.com ")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, id, got)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	ctx := context.Background()
	provider := setupProvider(t)

	id, err := provider.CreateAccount(ctx, "jane@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, provider.Enable(ctx, id))

	_, err = provider.Authenticate(ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = provider.Authenticate(ctx, "other@example.com", "password123")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	provider := setupProvider(t)

	// Given: An existing member account
	id, err := provider.CreateAccount(ctx, "admin@example.com", "password123")
	require.NoError(t, err)

	// When: Promote to admin
	adminID, err := provider.EnsureAdmin(ctx, "admin@example.com", "ignored")
	require.NoError(t, err)
	assert.Equal(t, id, adminID)

	groups, err := provider.GroupsOf(ctx, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{identity.GroupMember, identity.GroupAdmin}, groups)

	// When: Fresh admin
	freshID, err := provider.EnsureAdmin(ctx, "root@example.com", "password123")
	require.NoError(t, err)
	account, err := provider.Authenticate(ctx, "root@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, freshID, account.ID)
	assert.True(t, account.HasGroup(identity.GroupAdmin))
}

func TestLookup_ReflectsEnabledState(t *testing.T) {
	ctx := context.Background()
	provider := setupProvider(t)

	id, err := provider.CreateAccount(ctx, "jane@example.com", "password123")
	require.NoError(t, err)

	account, err := provider.Lookup(ctx, id)
	require.NoError(t, err)
	assert.False(t, account.Enabled)
	assert.Equal(t, []string{identity.GroupMember}, account.Groups)

	require.NoError(t, provider.Enable(ctx, id))
	account, err = provider.Lookup(ctx, id)
	require.NoError(t, err)
	assert.True(t, account.Enabled)

	_, err = provider.Lookup(ctx, "missing")
	assert.ErrorIs(t, err, identity.ErrAccountNotFound)
}
