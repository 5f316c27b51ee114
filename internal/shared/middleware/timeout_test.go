package middleware_test

import (
	"net/http"
	"testing"
	"time"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/communitylink/membership-api/internal/shared/middleware"
	"github.com/communitylink/membership-api/internal/shared/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestTimeout_RespondsWhenHandlerOverruns(t *testing.T) {
	router := testutil.SetupTestRouter()
	router.Use(middleware.Timeout(10 * time.Millisecond))
	router.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	router.GET("/fast", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	recorder := testutil.ExecuteRequest(t, router, testutil.TestRequest{Method: http.MethodGet, URL: "/slow"})
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	var errorResponse sharedError.ErrorResponse
	testutil.ParseResponse(t, recorder, &errorResponse)
	assert.Equal(t, "ERROR-004", errorResponse.Code)

	recorder = testutil.ExecuteRequest(t, router, testutil.TestRequest{Method: http.MethodGet, URL: "/fast"})
	assert.Equal(t, http.StatusOK, recorder.Code)
}
