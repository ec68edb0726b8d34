package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/relaysms/email-gateway/pkg/emailaddr"
	"github.com/relaysms/email-gateway/pkg/simplelogin"
	"github.com/relaysms/email-gateway/pkg/smtpcreds"
	"github.com/relaysms/email-gateway/pkg/templates"
)

// timestampFormat is the human-readable timestamp in success messages.
const timestampFormat = "2006-01-02 15:04:05"

// AliasProvider is the slice of the alias-management client the
// orchestrator drives.
type AliasProvider interface {
	GetOrCreateAlias(ctx context.Context, prefix, domain, mailboxEmail string) (string, error)
	EnsureContact(ctx context.Context, aliasEmail, recipient string) (*simplelogin.Contact, error)
}

// TemplateEngine renders and validates subject/body content.
type TemplateEngine interface {
	ValidateVariables(name string, substitutions map[string]string) ([]string, error)
	Render(name string, substitutions map[string]string) (string, error)
	RenderInline(text string, substitutions map[string]string) string
}

// Result is the outcome of one send. Failures carry a user-facing message;
// they are values, not errors, so business failures never escape as faults.
type Result struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func failure(message string) Result {
	return Result{Success: false, Message: message}
}

// Service orchestrates sends. Safe for concurrent use: the only shared
// state is the read-only credential store and the stateless collaborators.
type Service struct {
	creds        *smtpcreds.Store
	tmpl         TemplateEngine
	provider     AliasProvider
	sender       Sender
	directSender Sender
	log          *slog.Logger
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithDirectSender routes direct-path sends through an alternative
// transport. The alias path always uses the primary SMTP sender, because
// the reverse-alias hop must originate from the mailbox's own account.
func WithDirectSender(s Sender) Option {
	return func(svc *Service) {
		if s != nil {
			svc.directSender = s
		}
	}
}

// WithClock replaces the clock used for success timestamps.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// New creates a send orchestrator.
func New(creds *smtpcreds.Store, tmpl TemplateEngine, provider AliasProvider, sender Sender, log *slog.Logger, opts ...Option) *Service {
	svc := &Service{
		creds:        creds,
		tmpl:         tmpl,
		provider:     provider,
		sender:       sender,
		directSender: sender,
		log:          log,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Send processes one request end-to-end. It never returns an error: every
// outcome, success or failure, is a Result with a user-facing message.
func (s *Service) Send(ctx context.Context, req *SendRequest) Result {
	if err := req.Validate(); err != nil {
		msg := strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
		s.log.Warn("send request rejected", "reason", msg)
		return failure(msg)
	}

	if req.aliasMode() {
		return s.sendViaAlias(ctx, req)
	}
	return s.sendDirect(ctx, req)
}

// sendDirect handles the direct-SMTP path: resolve credential, validate
// template, render, transmit.
func (s *Service) sendDirect(ctx context.Context, req *SendRequest) Result {
	identity, ok := s.creds.Lookup(req.FromEmail)
	if !ok {
		s.log.Warn("unknown sender identity", "from", emailaddr.Obfuscate(req.FromEmail))
		return failure(fmt.Sprintf("No SMTP configuration found for %s", emailaddr.Obfuscate(req.FromEmail)))
	}

	msg, res := s.renderMessage(req)
	if msg == nil {
		return res
	}
	msg.From = identity.FromEmail
	msg.To = req.ToEmail

	if err := s.directSender.Send(ctx, identity, msg); err != nil {
		s.log.Error("smtp send failed",
			"from", emailaddr.Obfuscate(msg.From),
			"to", emailaddr.Obfuscate(msg.To),
			"error", err)
		return failure(genericSendFailure)
	}

	timestamp := s.now().Format(timestampFormat)
	s.log.Info("email sent via direct smtp",
		"from", emailaddr.Obfuscate(msg.From),
		"to", emailaddr.Obfuscate(msg.To),
		"at", timestamp)
	return Result{Success: true, Message: "Email sent successfully at " + timestamp}
}

// sendViaAlias handles the alias-mediated path: validate template, render,
// resolve alias and reverse-alias contact, then transmit from the mailbox's
// SMTP account to the reverse alias so the provider relays onward.
func (s *Service) sendViaAlias(ctx context.Context, req *SendRequest) Result {
	prefix, domain, _ := emailaddr.Split(req.FromEmail)

	msg, res := s.renderMessage(req)
	if msg == nil {
		return res
	}

	aliasEmail, err := s.provider.GetOrCreateAlias(ctx, prefix, domain, req.Alias.Mailbox)
	if err != nil {
		s.log.Error("alias resolution failed", "alias", emailaddr.Obfuscate(req.FromEmail), "error", err)
		return failure(withProviderDetail("Failed to create or get alias", err))
	}

	contact, err := s.provider.EnsureContact(ctx, aliasEmail, req.ToEmail)
	if err != nil {
		s.log.Error("contact resolution failed",
			"alias", emailaddr.Obfuscate(aliasEmail),
			"recipient", emailaddr.Obfuscate(req.ToEmail),
			"error", err)
		if errors.Is(err, simplelogin.ErrNoReverseAlias) {
			return failure("No reverse alias found for contact")
		}
		return failure(withProviderDetail("Failed to add recipient as contact", err))
	}

	identity, ok := s.creds.Lookup(req.Alias.Mailbox)
	if !ok {
		s.log.Warn("unknown mailbox identity", "mailbox", emailaddr.Obfuscate(req.Alias.Mailbox))
		return failure(fmt.Sprintf("No SMTP configuration found for %s", emailaddr.Obfuscate(req.Alias.Mailbox)))
	}

	msg.From = identity.FromEmail
	msg.To = contact.ReverseAlias

	if err := s.sender.Send(ctx, identity, msg); err != nil {
		s.log.Error("smtp send failed",
			"from", emailaddr.Obfuscate(msg.From),
			"to", emailaddr.Obfuscate(msg.To),
			"error", err)
		return failure(genericSendFailure)
	}

	timestamp := s.now().Format(timestampFormat)
	s.log.Info("email sent via alias",
		"alias", emailaddr.Obfuscate(aliasEmail),
		"recipient", emailaddr.Obfuscate(req.ToEmail),
		"reverse_alias", emailaddr.Obfuscate(contact.ReverseAlias),
		"at", timestamp)
	return Result{Success: true, Message: "Email sent successfully at " + timestamp}
}

// renderMessage validates template variables and renders subject and body.
// On failure it returns a nil message plus the terminal Result. The subject
// always goes through inline substitution so placeholders in subject lines
// are honored uniformly; when both template and body are supplied, the
// template takes priority.
func (s *Service) renderMessage(req *SendRequest) (*Message, Result) {
	if req.Template != "" {
		missing, err := s.tmpl.ValidateVariables(req.Template, req.Substitutions)
		if err != nil {
			s.log.Warn("template validation failed", "template", req.Template, "error", err)
			return nil, failure(templateErrorMessage(req.Template, err))
		}
		if len(missing) > 0 {
			s.log.Warn("missing template variables", "template", req.Template, "missing", missing)
			return nil, failure("Missing required template variables: " + strings.Join(missing, ", "))
		}
	}

	subject := s.tmpl.RenderInline(req.Subject, req.Substitutions)

	var body string
	if req.Template != "" {
		rendered, err := s.tmpl.Render(req.Template, req.Substitutions)
		if err != nil {
			s.log.Error("template rendering failed", "template", req.Template, "error", err)
			return nil, failure("Failed to load or render template: " + req.Template)
		}
		body = rendered
	} else {
		body = s.tmpl.RenderInline(req.Body, req.Substitutions)
	}

	return &Message{
		FromName: senderName(req),
		Subject:  subject,
		Body:     body,
		IsHTML:   detectHTML(body),
	}, Result{}
}

// senderName derives the display name: a non-empty project_name
// substitution yields "<project_name> Team" and overrides from_name.
func senderName(req *SendRequest) string {
	if project := req.Substitutions["project_name"]; project != "" {
		return project + " Team"
	}
	return req.FromName
}

// templateErrorMessage maps template-engine failures to user-facing text.
func templateErrorMessage(name string, err error) string {
	if errors.Is(err, templates.ErrTemplateNotFound) {
		return fmt.Sprintf("Template %s not found", name)
	}
	return "Failed to extract variables from template: " + name
}

// withProviderDetail appends the provider-supplied error message, when one
// exists, to a user-facing failure message.
func withProviderDetail(message string, err error) string {
	var provErr *simplelogin.Error
	if errors.As(err, &provErr) && provErr.Message != "" {
		return message + ": " + provErr.Message
	}
	return message
}
