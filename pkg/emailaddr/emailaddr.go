package emailaddr

import (
	"fmt"
	"strings"
)

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Obfuscate masks the local part of an email address for log output,
// e.g. "alice@example.com" becomes "al***@example.com". Strings without
// an "@" are returned unchanged.
func Obfuscate(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || email == "" {
		return email
	}
	if len(local) <= 2 {
		return local + "***@" + domain
	}
	return local[:2] + "***@" + domain
}

// Split breaks an address into its local part and domain.
// Returns false if the address does not contain exactly one "@"
// with non-empty parts on both sides.
func Split(email string) (local, domain string, ok bool) {
	local, domain, ok = strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "", "", false
	}
	return local, domain, true
}
