package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/creator-onboarding-backend/internal/domain/onboarding"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps a domain error code onto an HTTP status.
func RespondServiceError(c *gin.Context, err error) {
	code := types.CodeOf(err)
	if code == "" {
		code = types.CodeInternal
	}
	status := StatusFor(code)
	if status >= http.StatusInternalServerError && code == types.CodeInternal {
		// Do not leak driver messages.
		RespondError(c, status, string(code), errInternal)
		return
	}
	RespondError(c, status, string(code), err)
}

func StatusFor(code types.ErrorCode) int {
	switch code {
	case types.CodeValidation:
		return http.StatusBadRequest
	case types.CodeNotFound:
		return http.StatusNotFound
	case types.CodeFeatureDisabled:
		return http.StatusForbidden
	case types.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case types.CodeRateLimited:
		return http.StatusTooManyRequests
	case types.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var errInternal = types.NewError(types.CodeInternal, "", "internal error", nil)
