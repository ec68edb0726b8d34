package relay

import (
	"context"
	"strings"

	"github.com/relaysms/email-gateway/pkg/smtpcreds"
)

// Message is a fully-rendered email ready for transmission. One message
// targets exactly one recipient address.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	Body     string
	IsHTML   bool
}

// Sender delivers a rendered message using the resolved sending identity.
// Implementations that do not speak SMTP may ignore the connection fields
// of the identity and use only its from-address.
type Sender interface {
	Send(ctx context.Context, identity smtpcreds.Identity, msg *Message) error
}

// detectHTML decides the MIME type of a body: HTML when the trimmed body
// starts with "<" and a ">" appears anywhere. This cheap heuristic is a
// compatibility contract with existing callers; do not replace it with a
// stricter detector.
func detectHTML(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "<") && strings.Contains(body, ">")
}
