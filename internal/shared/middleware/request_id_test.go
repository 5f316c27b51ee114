package middleware_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/communitylink/membership-api/internal/shared/middleware"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	router := testutil.SetupTestRouter()
	router.Use(middleware.RequestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetRequestID(c))
	})

	t.Run("echoes a safe upstream id", func(t *testing.T) {
		recorder := testutil.ExecuteRequest(t, router, testutil.TestRequest{
			Method:  http.MethodGet,
			URL:     "/ping",
			Headers: map[string]string{middleware.RequestIDHeader: "edge-42.abc"},
		})
		assert.Equal(t, "edge-42.abc", recorder.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "edge-42.abc", recorder.Body.String())
	})

	t.Run("replaces unsafe or missing ids", func(t *testing.T) {
		for _, incoming := range []string{"", "bad id\nwith newline", strings.Repeat("a", 65)} {
			recorder := testutil.ExecuteRequest(t, router, testutil.TestRequest{
				Method:  http.MethodGet,
				URL:     "/ping",
				Headers: map[string]string{middleware.RequestIDHeader: incoming},
			})
			_, err := uuid.Parse(recorder.Header().Get(middleware.RequestIDHeader))
			require.NoError(t, err, incoming)
		}
	})
}
