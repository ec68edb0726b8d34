package simplelogin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/relaysms/email-gateway/pkg/emailaddr"
)

// DefaultBaseURL is the hosted SimpleLogin API endpoint.
const DefaultBaseURL = "https://app.simplelogin.io/api"

// DefaultTimeout bounds every individual provider call.
const DefaultTimeout = 30 * time.Second

// Config holds provider connection settings.
type Config struct {
	BaseURL string
	APIKey  string
}

// Client talks to the SimpleLogin API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	log        *slog.Logger
	baseURL    string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a provider client.
func New(cfg Config, log *slog.Logger, opts ...Option) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		log:        log,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues one provider call and decodes the JSON response into out.
// Failures come back as *Error with the kind and any provider-supplied
// message filled in.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Kind: KindDecode, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, Err: err}
	}
	// SimpleLogin authenticates via a non-standard header name.
	req.Header.Set("Authentication", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("provider request failed", "op", op, "error", err)
		return &Error{Op: op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Kind: KindTransport, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Op: op, Kind: KindAPI, StatusCode: resp.StatusCode}
		// Best effort: surface the provider's own error message when the
		// body is parseable JSON.
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		c.log.Error("provider request rejected",
			"op", op, "status", resp.StatusCode, "message", apiErr.Message)
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return &Error{Op: op, Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
		}
	}
	return nil
}

// AliasOptions fetches alias creation options, including the signed
// suffixes available for the given hostname.
func (c *Client) AliasOptions(ctx context.Context, hostname string) (*AliasOptions, error) {
	path := "/v5/alias/options"
	if hostname != "" {
		path += "?hostname=" + url.QueryEscape(hostname)
	}

	var opts AliasOptions
	if err := c.do(ctx, "alias options", http.MethodGet, path, nil, &opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// SignedSuffix resolves the provider-issued signed suffix for domain by
// exact suffix match against the options endpoint.
func (c *Client) SignedSuffix(ctx context.Context, domain string) (string, error) {
	opts, err := c.AliasOptions(ctx, domain)
	if err != nil {
		return "", err
	}

	want := "@" + domain
	for _, s := range opts.Suffixes {
		if s.Suffix == want {
			return s.SignedSuffix, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoSignedSuffix, domain)
}

// ListAliases fetches the account's enabled aliases, optionally filtered
// by a query string.
func (c *Client) ListAliases(ctx context.Context, query string) ([]Alias, error) {
	body := map[string]string{}
	if query != "" {
		body["query"] = query
	}

	var resp aliasListResponse
	if err := c.do(ctx, "list aliases", http.MethodPost, "/v2/aliases?enabled&page_id=0", body, &resp); err != nil {
		return nil, err
	}
	return resp.Aliases, nil
}

// AliasByEmail finds an alias by exact address match.
// Returns ErrAliasNotFound when no alias matches; an empty search result
// is not a provider fault.
func (c *Client) AliasByEmail(ctx context.Context, aliasEmail string) (*Alias, error) {
	aliases, err := c.ListAliases(ctx, aliasEmail)
	if err != nil {
		return nil, err
	}
	for _, a := range aliases {
		if a.Email == aliasEmail {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrAliasNotFound, emailaddr.Obfuscate(aliasEmail))
}

// ListMailboxes fetches the account's mailboxes.
func (c *Client) ListMailboxes(ctx context.Context) ([]Mailbox, error) {
	var resp mailboxListResponse
	if err := c.do(ctx, "list mailboxes", http.MethodGet, "/mailboxes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Mailboxes, nil
}

// MailboxByEmail finds a mailbox by exact address match.
func (c *Client) MailboxByEmail(ctx context.Context, email string) (*Mailbox, error) {
	mailboxes, err := c.ListMailboxes(ctx)
	if err != nil {
		return nil, err
	}
	for _, mb := range mailboxes {
		if mb.Email == email {
			return &mb, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMailboxNotFound, emailaddr.Obfuscate(email))
}

// CreateAlias mints a new alias prefix@domain backed by mailboxEmail.
// Every precondition (mailbox id, signed suffix) is resolved up front;
// a missing precondition aborts before the creation call is attempted.
func (c *Client) CreateAlias(ctx context.Context, prefix, domain, mailboxEmail string) (string, error) {
	mailbox, err := c.MailboxByEmail(ctx, mailboxEmail)
	if err != nil {
		return "", err
	}

	signedSuffix, err := c.SignedSuffix(ctx, domain)
	if err != nil {
		return "", err
	}

	req := createAliasRequest{
		AliasPrefix:  prefix,
		SignedSuffix: signedSuffix,
		MailboxIDs:   []int{mailbox.ID},
		Note:         "Created by RelaySMS Email Gateway on " + time.Now().Format(time.RFC3339),
		Name:         "RelaySMS Team",
	}

	var alias Alias
	if err := c.do(ctx, "create alias", http.MethodPost, "/v3/alias/custom/new", req, &alias); err != nil {
		return "", err
	}

	c.log.Info("alias created", "alias", emailaddr.Obfuscate(alias.Email))
	return alias.Email, nil
}

// GetOrCreateAlias resolves prefix@domain to a usable alias, creating it on
// first use. A failed or empty search falls through to creation; the
// provider's exact-match search is the only de-duplication mechanism.
func (c *Client) GetOrCreateAlias(ctx context.Context, prefix, domain, mailboxEmail string) (string, error) {
	aliasEmail := prefix + "@" + domain

	if alias, err := c.AliasByEmail(ctx, aliasEmail); err == nil {
		c.log.Info("using existing alias", "alias", emailaddr.Obfuscate(alias.Email))
		return alias.Email, nil
	}

	return c.CreateAlias(ctx, prefix, domain, mailboxEmail)
}

// CreateContact creates or retrieves the contact linking aliasID to email.
// The provider call is idempotent: an already-linked recipient comes back
// with Existed set and the same reverse alias.
func (c *Client) CreateContact(ctx context.Context, aliasID int, email string) (*Contact, error) {
	path := fmt.Sprintf("/aliases/%d/contacts", aliasID)
	req := createContactRequest{Contact: fmt.Sprintf("<%s>", email)}

	var contact Contact
	if err := c.do(ctx, "create contact", http.MethodPost, path, req, &contact); err != nil {
		return nil, err
	}

	action := "created"
	if contact.Existed {
		action = "retrieved"
	}
	c.log.Info("contact "+action, "contact", emailaddr.Obfuscate(email))
	return &contact, nil
}

// EnsureContact resolves the alias and creates/fetches the contact for
// recipient, returning the reverse alias the outbound envelope must target.
// A response without a reverse alias is a distinct failure from a
// transport error.
func (c *Client) EnsureContact(ctx context.Context, aliasEmail, recipient string) (*Contact, error) {
	alias, err := c.AliasByEmail(ctx, aliasEmail)
	if err != nil {
		return nil, err
	}

	contact, err := c.CreateContact(ctx, alias.ID, recipient)
	if err != nil {
		return nil, err
	}

	if contact.ReverseAlias == "" {
		return nil, ErrNoReverseAlias
	}
	return contact, nil
}
