package handler

import (
	"errors"
	"net/http"

	sharedError "github.com/communitylink/membership-api/internal/shared/error"
	"github.com/communitylink/membership-api/internal/shared/validator"
	"github.com/gin-gonic/gin"
)

// maxBodyBytes caps JSON request bodies; a registration with three family members is well under it
const maxBodyBytes = 256 << 10

// BindJSON parses and validates the JSON body into obj. On failure the
// response has been written and the caller just returns.
//
//	var req ReasonRequest
//	if !handler.BindJSON(c, &req) {
//	    return
//	}
func BindJSON(c *gin.Context, obj any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	if err := c.ShouldBindJSON(obj); err != nil {
		// Add error to context for middleware logging
		_ = c.Error(err)

		if resp, ok := validator.ToErrorResponse(err); ok {
			c.JSON(http.StatusBadRequest, resp)
			return false
		}

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, sharedError.ErrorResponse{
				Status:  http.StatusRequestEntityTooLarge,
				Code:    sharedError.InvalidRequest.Code,
				Message: "The request body is too large.",
			})
			return false
		}

		c.JSON(sharedError.InvalidRequest.Status, sharedError.InvalidRequest)
		return false
	}
	return true
}

// RespondError records err for the request log and writes errResp.
func RespondError(c *gin.Context, err error, errResp sharedError.ErrorResponse) {
	_ = c.Error(err)
	c.JSON(errResp.Status, errResp)
}

// RespondDomainError writes the registered response for err, or a 500 when
// err carries no domain error.
func RespondDomainError(c *gin.Context, err error) {
	if resp, ok := sharedError.ResolveDomainError(err); ok {
		RespondError(c, err, resp)
		return
	}
	RespondError(c, err, sharedError.InternalServerError)
}
