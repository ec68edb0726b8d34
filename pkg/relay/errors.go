package relay

import "errors"

// ErrValidation indicates bad caller input. No remote call is made for
// requests that fail validation.
var ErrValidation = errors.New("invalid send request")

// genericSendFailure is the user-facing message for transport failures.
// Transport internals are logged server-side, never surfaced to callers.
const genericSendFailure = "Failed to send email. Please try again later."
