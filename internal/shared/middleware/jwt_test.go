package middleware_test

import (
	"net/http"
	"testing"

	"github.com/communitylink/membership-api/internal/identity"
	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/communitylink/membership-api/internal/shared/middleware"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/communitylink/membership-api/internal/shared/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *token.JWTManager) {
	t.Helper()

	cfg := testutil.NewTestConfig()
	router := testutil.SetupTestRouter()
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) }

	router.GET("/me", middleware.JWT(cfg), ok)
	router.GET("/admin", middleware.JWT(cfg), middleware.RequireGroup(identity.GroupAdmin), ok)

	return router, token.NewJWTManager(cfg)
}

func TestJWT(t *testing.T) {
	router, manager := setupRouter(t)

	refresh, err := manager.GenerateRefreshToken(token.Subject{AccountID: "acc-1", Groups: []string{identity.GroupMember}})
	require.NoError(t, err)

	testCases := []struct {
		name   string
		url    string
		token  string
		status int
		code   string
	}{
		{"missing token", "/me", "", http.StatusUnauthorized, "AUTH-000"},
		{"garbage token", "/me", "garbage", http.StatusUnauthorized, "AUTH-000"},
		{"refresh token used as access", "/me", refresh, http.StatusUnauthorized, "AUTH-000"},
		{"member token", "/me", testutil.MemberToken(t, manager, "acc-1", "jane@example.com"), http.StatusOK, ""},
		{"member on admin route", "/admin", testutil.MemberToken(t, manager, "acc-1", "jane@example.com"), http.StatusForbidden, "AUTH-010"},
		{"admin on admin route", "/admin", testutil.AdminToken(t, manager, "acc-admin"), http.StatusOK, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := testutil.ExecuteRequest(t, router, testutil.TestRequest{
				Method: http.MethodGet,
				URL:    tc.url,
				Token:  tc.token,
			})

			assert.Equal(t, tc.status, recorder.Code)
			if tc.code != "" {
				var errorResponse sharedError.ErrorResponse
				testutil.ParseResponse(t, recorder, &errorResponse)
				assert.Equal(t, tc.code, errorResponse.Code)
			}
		})
	}
}
