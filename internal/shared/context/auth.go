package context

import (
	"net/http"

	"github.com/communitylink/membership-api/internal/shared/logger"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/gin-gonic/gin"
)

// Context keys for storing user authentication information
const (
	AccountIDKey    = "account_id"
	AccountEmailKey = "account_email"
	GroupsKey       = "account_groups"
)

func GetAccountID(c *gin.Context) (string, bool) {
	value, exists := c.Get(AccountIDKey)
	if !exists {
		return "", false
	}

	id, ok := value.(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func GetGroups(c *gin.Context) []string {
	value, exists := c.Get(GroupsKey)
	if !exists {
		return nil
	}
	groups, _ := value.([]string)
	return groups
}

// RequireAccountID retrieves the authenticated account ID from the Gin context.
// If it is missing, an authentication error response is sent and false is returned.
// Use this in most handlers to reduce boilerplate.
func RequireAccountID(c *gin.Context) (string, bool) {
	accountID, ok := GetAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, sharedError.ErrorResponse{
			Status:  http.StatusUnauthorized,
			Code:    "AUTH-000",
			Message: "Please sign in.",
		})
		c.Abort()
		logger.FromContext(c.Request.Context()).Error("[API] context에 계정 ID가 존재하지 않습니다.")
		return "", false
	}
	return accountID, true
}
