package onboarding

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies onboarding failures for callers and the HTTP layer.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeFeatureDisabled    ErrorCode = "feature_disabled"
	CodeServiceUnavailable ErrorCode = "service_unavailable"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeConflict           ErrorCode = "conflict"
	CodeInternal           ErrorCode = "internal"
)

// MsgProfileNotFound is matched verbatim by callers.
const MsgProfileNotFound = "profile not found"

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s", op, msg)
	case msg != "":
		return msg
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with code. A nil err stays nil.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

func ValidationError(op, message string) error {
	return NewError(CodeValidation, op, message, nil)
}

func NotFoundError(op string) error {
	return NewError(CodeNotFound, op, MsgProfileNotFound, nil)
}

// FeatureDisabledError names the capability so operators can find the flag.
func FeatureDisabledError(op, capability string) error {
	return NewError(CodeFeatureDisabled, op, fmt.Sprintf("%s is not currently enabled", strings.TrimSpace(capability)), nil)
}

func ServiceUnavailableError(op, service string, cause error) error {
	msg := fmt.Sprintf("%s is unavailable", strings.TrimSpace(service))
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return NewError(CodeServiceUnavailable, op, msg, cause)
}

func RateLimitedError(op string) error {
	return NewError(CodeRateLimited, op, "too many onboarding requests, retry shortly", nil)
}

func IsCode(err error, code ErrorCode) bool {
	var oe *Error
	if !errors.As(err, &oe) {
		return false
	}
	return oe.Code == code
}

func CodeOf(err error) ErrorCode {
	var oe *Error
	if !errors.As(err, &oe) {
		return ""
	}
	return oe.Code
}
