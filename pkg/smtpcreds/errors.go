package smtpcreds

import "errors"

var (
	// ErrUnsupportedFormat indicates the credentials file extension is not
	// one of .json, .yaml or .yml.
	ErrUnsupportedFormat = errors.New("unsupported credentials file format")

	// ErrInvalidCredentials indicates the credentials file could not be parsed.
	ErrInvalidCredentials = errors.New("invalid credentials file")
)
