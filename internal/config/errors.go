package config

import "errors"

var (
	// ErrWebServerPortCanNotBeZero is returned when the webserver port is not configured.
	ErrWebServerPortCanNotBeZero = errors.New("webserver port can not be 0")

	// ErrEmptyURL is returned when the webserver base url is not configured.
	ErrEmptyURL = errors.New("webserver url can not be empty")

	// ErrEmptyJWTSecret is returned when no token signing secret is configured.
	ErrEmptyJWTSecret = errors.New("auth jwt secret can not be empty")
)
