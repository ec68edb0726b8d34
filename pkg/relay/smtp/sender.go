// Package smtp implements relay.Sender over a plain SMTP session: connect,
// optional STARTTLS upgrade, authenticate, send one envelope, close. No
// connection pooling or reuse across sends.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/relaysms/email-gateway/pkg/emailaddr"
	"github.com/relaysms/email-gateway/pkg/relay"
	"github.com/relaysms/email-gateway/pkg/smtpcreds"
)

// Dialer abstracts net.Dialer to simplify testing.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Sender sends messages over SMTP using per-call identities from the
// credential store.
type Sender struct {
	log       *slog.Logger
	dialer    Dialer
	tlsConfig *tls.Config
	helloName string
	now       func() time.Time
}

// Option configures a Sender.
type Option func(*Sender)

// WithDialer swaps the network dialer used to establish connections.
func WithDialer(d Dialer) Option {
	return func(s *Sender) {
		if d != nil {
			s.dialer = d
		}
	}
}

// WithTLSConfig overrides the TLS configuration used for STARTTLS.
// The ServerName is still set per identity host.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(s *Sender) {
		s.tlsConfig = cfg
	}
}

// WithHelloName customises the EHLO identity presented to servers.
func WithHelloName(name string) Option {
	return func(s *Sender) {
		if strings.TrimSpace(name) != "" {
			s.helloName = strings.TrimSpace(name)
		}
	}
}

// New creates an SMTP sender.
func New(log *slog.Logger, opts ...Option) *Sender {
	s := &Sender{
		log:       log,
		dialer:    &net.Dialer{Timeout: 30 * time.Second},
		helloName: "localhost",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send delivers one message through the identity's SMTP account.
func (s *Sender) Send(ctx context.Context, identity smtpcreds.Identity, msg *relay.Message) error {
	addr := net.JoinHostPort(identity.Host, strconv.Itoa(identity.Port))

	conn, err := s.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp: dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, identity.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp: handshake with %s: %w", addr, err)
	}
	defer client.Close() //nolint:errcheck

	if err := client.Hello(s.helloName); err != nil {
		return fmt.Errorf("smtp: hello: %w", err)
	}

	if identity.EnableTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("smtp: server %s does not support STARTTLS", addr)
		}
		cfg := s.tlsConfig
		if cfg == nil {
			cfg = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		cfg = cfg.Clone()
		cfg.ServerName = identity.Host
		if err := client.StartTLS(cfg); err != nil {
			return fmt.Errorf("smtp: starttls: %w", err)
		}
	}

	if identity.Username != "" {
		if err := client.Auth(authFor(identity)); err != nil {
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp: mail from: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("smtp: rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp: data: %w", err)
	}
	payload, err := buildMIME(msg, s.now())
	if err != nil {
		return fmt.Errorf("smtp: build message: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("smtp: write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp: close body: %w", err)
	}

	if err := client.Quit(); err != nil {
		// Delivery already succeeded; a failed QUIT is not worth failing
		// the send over.
		s.log.Debug("smtp quit failed", "error", err)
	}

	s.log.Debug("smtp message delivered",
		"from", emailaddr.Obfuscate(msg.From),
		"to", emailaddr.Obfuscate(msg.To))
	return nil
}

// authFor selects the auth mechanism for an identity. smtp.PlainAuth
// refuses to send credentials over an unencrypted connection, so identities
// that opt out of TLS use a PLAIN variant without that restriction.
func authFor(identity smtpcreds.Identity) smtp.Auth {
	if identity.EnableTLS {
		return smtp.PlainAuth("", identity.Username, identity.Password, identity.Host)
	}
	return plaintextPlainAuth{username: identity.Username, password: identity.Password}
}

// plaintextPlainAuth is PLAIN auth for servers that do not offer STARTTLS.
type plaintextPlainAuth struct {
	username, password string
}

func (a plaintextPlainAuth) Start(_ *smtp.ServerInfo) (string, []byte, error) {
	return "PLAIN", []byte("\x00" + a.username + "\x00" + a.password), nil
}

func (a plaintextPlainAuth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return nil, errors.New("smtp: unexpected server challenge")
	}
	return nil, nil
}

// buildMIME assembles a multipart/alternative message with a single text
// or HTML part, depending on the message's content flag.
func buildMIME(msg *relay.Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	contentType := "text/plain"
	if msg.IsHTML {
		contentType = "text/html"
	}

	for _, h := range []string{
		"From: " + emailaddr.Recipient(msg.FromName, msg.From),
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"Date: " + now.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="` + mw.Boundary() + `"`,
	} {
		buf.WriteString(h)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType + `; charset="utf-8"`},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(msg.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
