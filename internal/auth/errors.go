package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the email or password is wrong.
	// The message deliberately does not reveal whether the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDeactivated is returned when authenticating a deactivated user account.
	ErrAccountDeactivated = errors.New("user account is deactivated")

	// ErrInvalidOldPassword is returned when the provided old password does not match the user's current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrInvalidToken is returned when a token fails signature or expiry verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingToken is returned when a protected route is called without a bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrForbidden is returned when a guard denies a request.
	ErrForbidden = errors.New("forbidden")
)
