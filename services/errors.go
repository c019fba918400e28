package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrEmailTaken            = errors.New("email already registered")
	ErrPhoneTaken            = errors.New("phone already registered")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrTOTPRequired          = errors.New("2FA code required")
	ErrInvalidTOTP           = errors.New("invalid 2FA code")
	ErrTOTPNotSetup          = errors.New("2FA has not been set up")
	ErrTOTPAlreadyEnabled    = errors.New("2FA is already enabled, disable it first")
	ErrInvalidSession        = errors.New("invalid or expired refresh token")
	ErrResetNotFound         = errors.New("reset request not found")
	ErrResetExpired          = errors.New("reset code expired")
	ErrResetUsed             = errors.New("reset code already used")
	ErrResetCodeInvalid      = errors.New("invalid reset code")
	ErrResetAttemptsExceeded = errors.New("too many invalid attempts")
	ErrResetCooldown         = errors.New("a reset code was sent recently, try again later")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrSMSNotConfigured      = errors.New("SMS provider is not configured")
)

// ValidationError names the offending field of a rejected request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
