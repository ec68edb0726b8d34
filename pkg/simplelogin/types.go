package simplelogin

// Alias is a provider-managed alias address.
type Alias struct {
	Email   string `json:"email"`
	ID      int    `json:"id"`
	Enabled bool   `json:"enabled"`
}

// Mailbox is a provider-side mailbox an alias can forward to.
type Mailbox struct {
	Email    string `json:"email"`
	ID       int    `json:"id"`
	Default  bool   `json:"default"`
	Verified bool   `json:"verified"`
}

// Contact links an alias to a recipient. ReverseAlias is the address the
// outbound SMTP envelope must target so the provider's relay forwards the
// message to the real recipient. Existed reports whether the contact was
// already linked (the provider is idempotent per alias/recipient pair).
type Contact struct {
	Contact      string `json:"contact"`
	ReverseAlias string `json:"reverse_alias"`
	ID           int    `json:"id"`
	Existed      bool   `json:"existed"`
}

// Suffix is one alias-suffix option the provider allows for the account.
// SignedSuffix is a capability token proving the caller may mint an alias
// on that suffix's domain.
type Suffix struct {
	Suffix       string `json:"suffix"`
	SignedSuffix string `json:"signed_suffix"`
}

// AliasOptions is the response of the alias options endpoint.
type AliasOptions struct {
	Suffixes  []Suffix `json:"suffixes"`
	CanCreate bool     `json:"can_create"`
}

type aliasListResponse struct {
	Aliases []Alias `json:"aliases"`
}

type mailboxListResponse struct {
	Mailboxes []Mailbox `json:"mailboxes"`
}

type createAliasRequest struct {
	AliasPrefix  string `json:"alias_prefix"`
	SignedSuffix string `json:"signed_suffix"`
	Note         string `json:"note"`
	Name         string `json:"name"`
	MailboxIDs   []int  `json:"mailbox_ids"`
}

type createContactRequest struct {
	Contact string `json:"contact"`
}

type errorResponse struct {
	Error string `json:"error"`
}
