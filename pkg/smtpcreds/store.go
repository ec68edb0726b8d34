package smtpcreds

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/relaysms/email-gateway/pkg/emailaddr"
)

// DefaultPort is used when an account record omits the SMTP port.
const DefaultPort = 587

// Identity holds the connection settings for one outbound SMTP account,
// keyed by the address it sends as.
type Identity struct {
	FromEmail string
	Host      string
	Port      int
	Username  string
	Password  string
	EnableTLS bool
}

// Store indexes SMTP identities by from-address. Immutable after Load.
type Store struct {
	accounts map[string]Identity
}

// record mirrors one entry of the credentials file. EnableTLS is a pointer
// so an absent field defaults to true rather than false.
type record struct {
	FromEmail string `json:"from_email" yaml:"from_email"`
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password" yaml:"password"`
	EnableTLS *bool  `json:"enable_tls" yaml:"enable_tls"`
}

type credentialsFile struct {
	Accounts []record `json:"smtp_accounts" yaml:"smtp_accounts"`
}

// New builds a store from already-resolved identities. Identities without
// a from-address are dropped.
func New(identities ...Identity) *Store {
	s := &Store{accounts: make(map[string]Identity, len(identities))}
	for _, id := range identities {
		if id.FromEmail == "" {
			continue
		}
		if id.Port == 0 {
			id.Port = DefaultPort
		}
		s.accounts[id.FromEmail] = id
	}
	return s
}

// Load reads SMTP identities from a JSON or YAML credentials file.
// It never fails hard: any problem is logged and an empty store is
// returned, leaving the direct-send path unavailable.
func Load(path string, log *slog.Logger) *Store {
	s := &Store{accounts: make(map[string]Identity)}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("smtp credentials file unavailable", "path", path, "error", err)
		return s
	}

	creds, err := parse(path, data)
	if err != nil {
		log.Error("failed to parse smtp credentials", "path", path, "error", err)
		return s
	}

	for _, rec := range creds.Accounts {
		if rec.FromEmail == "" {
			log.Warn("smtp account missing from_email, skipping")
			continue
		}
		id := Identity{
			FromEmail: rec.FromEmail,
			Host:      rec.Host,
			Port:      rec.Port,
			Username:  rec.Username,
			Password:  rec.Password,
			EnableTLS: rec.EnableTLS == nil || *rec.EnableTLS,
		}
		if id.Port == 0 {
			id.Port = DefaultPort
		}
		s.accounts[rec.FromEmail] = id
		log.Info("loaded smtp identity", "from", emailaddr.Obfuscate(rec.FromEmail))
	}

	if len(s.accounts) == 0 {
		log.Warn("no smtp identities loaded", "path", path)
	}
	return s
}

func parse(path string, data []byte) (*credentialsFile, error) {
	var creds credentialsFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &creds); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &creds); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return &creds, nil
}

// Lookup returns the identity registered for fromEmail.
func (s *Store) Lookup(fromEmail string) (Identity, bool) {
	id, ok := s.accounts[fromEmail]
	return id, ok
}

// Has reports whether an identity is registered for fromEmail.
func (s *Store) Has(fromEmail string) bool {
	_, ok := s.accounts[fromEmail]
	return ok
}

// Len returns the number of loaded identities.
func (s *Store) Len() int {
	return len(s.accounts)
}
