package relay

import (
	"fmt"

	"github.com/relaysms/email-gateway/pkg/emailaddr"
)

// AliasSettings selects the alias-mediated sending path. Mailbox is the
// identity key of the SMTP account backing the alias.
type AliasSettings struct {
	Mailbox string `json:"mailbox"`
}

// SendRequest is one email send. Exactly one sending mode applies: direct
// (from_email names a configured SMTP identity) or alias-mediated (alias is
// set and from_email is reinterpreted as the prefix@domain of the alias to
// provision). Alias mode without from_email is rejected; this mirrors the
// historical API contract and is intentional.
type SendRequest struct {
	ToEmail       string            `json:"to_email"`
	Subject       string            `json:"subject"`
	Body          string            `json:"body,omitempty"`
	Template      string            `json:"template,omitempty"`
	FromEmail     string            `json:"from_email,omitempty"`
	FromName      string            `json:"from_name,omitempty"`
	Substitutions map[string]string `json:"substitutions,omitempty"`
	Alias         *AliasSettings    `json:"alias,omitempty"`
}

// Validate checks request shape before any remote work happens.
func (r *SendRequest) Validate() error {
	if r.ToEmail == "" {
		return fmt.Errorf("%w: 'to_email' is required", ErrValidation)
	}
	if r.Subject == "" {
		return fmt.Errorf("%w: 'subject' is required", ErrValidation)
	}
	if r.Template == "" && r.Body == "" {
		return fmt.Errorf("%w: either 'template' or 'body' must be provided", ErrValidation)
	}

	if r.Alias != nil {
		if r.Alias.Mailbox == "" {
			return fmt.Errorf("%w: 'alias.mailbox' is required when using 'alias'", ErrValidation)
		}
		if r.FromEmail == "" {
			return fmt.Errorf("%w: 'from_email' is required when using 'alias'", ErrValidation)
		}
		if _, _, ok := emailaddr.Split(r.FromEmail); !ok {
			return fmt.Errorf("%w: 'from_email' must be a prefix@domain address when using 'alias'", ErrValidation)
		}
		return nil
	}

	if r.FromEmail == "" {
		return fmt.Errorf("%w: either 'alias' or 'from_email' must be provided", ErrValidation)
	}
	return nil
}

// aliasMode reports whether the request uses the alias-mediated path.
func (r *SendRequest) aliasMode() bool {
	return r.Alias != nil
}
