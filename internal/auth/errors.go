package auth

import (
	"net/http"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
)

const (
	invalidRefreshToken = "INVALID_REFRESH_TOKEN" // errInfo
)

var (
	ErrInvalidRefreshToken = sharedError.NewDomainError(invalidRefreshToken)
)

func init() {
	sharedError.RegisterDomainErrorResponse(invalidRefreshToken, sharedError.ErrorResponse{
		Status:  http.StatusUnauthorized,
		Code:    "AUTH-003",
		Message: "The refresh token is invalid or expired. Please log in again.",
	})
}
