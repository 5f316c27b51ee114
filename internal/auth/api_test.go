package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/communitylink/membership-api/internal/auth"
	"github.com/communitylink/membership-api/internal/identity"
	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/communitylink/membership-api/internal/shared/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router   *gin.Engine
	provider *identity.LocalProvider
	tokens   *token.JWTManager
}

// setupTestEnvironment creates all dependencies needed for auth handler tests
func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	provider := testutil.NewLocalIdentity(db)
	tokens := token.NewJWTManager(testutil.NewTestConfig())
	authHandler := auth.NewAuthHandler(auth.NewAuthService(provider, tokens))

	router := testutil.SetupTestRouter()
	router.POST("/api/v1/auth/login", authHandler.Login)
	router.POST("/api/v1/auth/refresh", authHandler.Refresh)

	return &testEnv{router: router, provider: provider, tokens: tokens}
}

// enabledAccount creates a member login the way approval does
func (e *testEnv) enabledAccount(t *testing.T, email, password string) string {
	t.Helper()
	ctx := context.Background()

	id, err := e.provider.CreateAccount(ctx, email, password)
	require.NoError(t, err)
	require.NoError(t, e.provider.Enable(ctx, id))
	return id
}

func (e *testEnv) login(t *testing.T, email, password string) (int, auth.LoginResponse) {
	t.Helper()

	recorder := testutil.ExecuteRequest(t, e.router, testutil.TestRequest{
		Method: http.MethodPost,
		URL:    "/api/v1/auth/login",
		Body:   auth.LoginRequest{Email: email, Password: password},
	})

	var response auth.LoginResponse
	if recorder.Code == http.StatusOK {
		testutil.ParseResponse(t, recorder, &response)
	}
	return recorder.Code, response
}

func TestLogin_Success(t *testing.T) {
	// Given: An approved member account
	env := setupTestEnvironment(t)
	accountID := env.enabledAccount(t, "jane@example.com", "password123")

	// When: Logging in with the right credentials, in any email case
	status, response := env.login(t, "Jane@Example.com", "password123")

	// Then: Both tokens are issued for the account
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, response.AccessToken)
	require.NotEmpty(t, response.RefreshToken)

	claims, err := env.tokens.ValidateToken(response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, token.ACCESS, claims.TokenType)
	assert.True(t, claims.HasGroup(identity.GroupMember))
	assert.False(t, claims.HasGroup(identity.GroupAdmin))
}

func TestLogin_AdminCarriesAdminGroup(t *testing.T) {
	// Given: The bootstrap admin account
	env := setupTestEnvironment(t)
	_, err := env.provider.EnsureAdmin(context.Background(), "admin@example.org", "adminpass1")
	require.NoError(t, err)

	// When: Logging in as admin
	status, response := env.login(t, "admin@example.org", "adminpass1")

	// Then: The access token carries the admin group
	require.Equal(t, http.StatusOK, status)
	claims, err := env.tokens.ValidateToken(response.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.HasGroup(identity.GroupAdmin))
}

func TestLogin_Failures(t *testing.T) {
	env := setupTestEnvironment(t)
	env.enabledAccount(t, "jane@example.com", "password123")

	// Given: An account created at registration but not yet approved
	_, err := env.provider.CreateAccount(context.Background(), "pending@example.com", "password123")
	require.NoError(t, err)

	testCases := []struct {
		name     string
		email    string
		password string
		status   int
		code     string
	}{
		{"wrong password", "jane@example.com", "wrongpass1", http.StatusBadRequest, "IDP-004"},
		{"unknown email", "nobody@example.com", "password123", http.StatusBadRequest, "IDP-004"},
		{"disabled account", "pending@example.com", "password123", http.StatusForbidden, "IDP-003"},
		{"invalid email", "not-an-email", "password123", http.StatusBadRequest, "ERROR-001"},
		{"short password", "jane@example.com", "short", http.StatusBadRequest, "ERROR-001"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// When: Logging in
			recorder := testutil.ExecuteRequest(t, env.router, testutil.TestRequest{
				Method: http.MethodPost,
				URL:    "/api/v1/auth/login",
				Body:   auth.LoginRequest{Email: tc.email, Password: tc.password},
			})

			// Then: The domain error is returned and no token is issued
			assert.Equal(t, tc.status, recorder.Code)

			var errorResponse sharedError.ErrorResponse
			testutil.ParseResponse(t, recorder, &errorResponse)
			assert.Equal(t, tc.code, errorResponse.Code)
			assert.NotEmpty(t, errorResponse.Message)
		})
	}
}

func TestRefresh_IssuesNewPair(t *testing.T) {
	// Given: A logged-in member
	env := setupTestEnvironment(t)
	accountID := env.enabledAccount(t, "jane@example.com", "password123")
	_, login := env.login(t, "jane@example.com", "password123")

	// When: Exchanging the refresh token
	recorder := testutil.ExecuteRequest(t, env.router, testutil.TestRequest{
		Method: http.MethodPost,
		URL:    "/api/v1/auth/refresh",
		Body:   auth.RefreshRequest{RefreshToken: login.RefreshToken},
	})

	// Then: A fresh access token for the same account is returned
	require.Equal(t, http.StatusOK, recorder.Code)
	var response auth.LoginResponse
	testutil.ParseResponse(t, recorder, &response)

	claims, err := env.tokens.ValidateToken(response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, token.ACCESS, claims.TokenType)
}

func TestRefresh_Rejections(t *testing.T) {
	env := setupTestEnvironment(t)
	accountID := env.enabledAccount(t, "jane@example.com", "password123")
	_, login := env.login(t, "jane@example.com", "password123")

	t.Run("access token is not a refresh token", func(t *testing.T) {
		recorder := testutil.ExecuteRequest(t, env.router, testutil.TestRequest{
			Method: http.MethodPost,
			URL:    "/api/v1/auth/refresh",
			Body:   auth.RefreshRequest{RefreshToken: login.AccessToken},
		})

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		var errorResponse sharedError.ErrorResponse
		testutil.ParseResponse(t, recorder, &errorResponse)
		assert.Equal(t, "AUTH-003", errorResponse.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		recorder := testutil.ExecuteRequest(t, env.router, testutil.TestRequest{
			Method: http.MethodPost,
			URL:    "/api/v1/auth/refresh",
			Body:   auth.RefreshRequest{RefreshToken: "not.a.jwt"},
		})

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("account disabled after login", func(t *testing.T) {
		// Given: The member was suspended after logging in
		require.NoError(t, env.provider.Disable(context.Background(), accountID))

		// When: Refreshing
		recorder := testutil.ExecuteRequest(t, env.router, testutil.TestRequest{
			Method: http.MethodPost,
			URL:    "/api/v1/auth/refresh",
			Body:   auth.RefreshRequest{RefreshToken: login.RefreshToken},
		})

		// Then: The refresh is refused
		assert.Equal(t, http.StatusForbidden, recorder.Code)
		var errorResponse sharedError.ErrorResponse
		testutil.ParseResponse(t, recorder, &errorResponse)
		assert.Equal(t, "IDP-003", errorResponse.Code)
	})
}
