package simplelogin

import (
	"errors"
	"fmt"
)

var (
	// ErrAliasNotFound indicates no alias matches the requested address.
	ErrAliasNotFound = errors.New("alias not found")

	// ErrMailboxNotFound indicates no provider-side mailbox matches the
	// configured mailbox address.
	ErrMailboxNotFound = errors.New("mailbox not found")

	// ErrNoSignedSuffix indicates the provider issued no signed suffix for
	// the requested domain, so no alias can be minted on it.
	ErrNoSignedSuffix = errors.New("no signed suffix available for domain")

	// ErrNoReverseAlias indicates the contact response carried no
	// reverse-alias address.
	ErrNoReverseAlias = errors.New("no reverse alias found for contact")
)

// ErrorKind classifies a failed provider call so callers can tell
// "provider said no" from "network unreachable" without string inspection.
type ErrorKind int

const (
	// KindTransport covers network-level failures: the request never got a
	// usable HTTP response.
	KindTransport ErrorKind = iota

	// KindAPI covers non-2xx responses from the provider.
	KindAPI

	// KindDecode covers responses whose body could not be decoded.
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAPI:
		return "api"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is a failed provider call. Message carries the provider-supplied
// error text when the response body was parseable JSON; otherwise it is
// empty and Err holds the underlying cause.
type Error struct {
	Err        error
	Op         string
	Message    string
	Kind       ErrorKind
	StatusCode int
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("simplelogin: %s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("simplelogin: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("simplelogin: %s: status %d", e.Op, e.StatusCode)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}
