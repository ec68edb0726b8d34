// Package smtpcreds loads and indexes named SMTP sending identities from a
// credentials file. The store is a pure lookup table keyed by the address an
// identity sends as; it performs no network calls and is immutable after
// load, so concurrent reads are safe without locking.
//
// A missing or malformed credentials file degrades capability (the
// direct-send path becomes unavailable) but never prevents startup: Load
// logs the problem and returns an empty store.
package smtpcreds
