// Package simplelogin is a client for the SimpleLogin alias-management API.
// The gateway uses it to provision email aliases on demand and to resolve
// reverse-alias contacts, so outbound mail can originate from a real
// mailbox while recipients only ever see the alias.
//
// The provider is the source of truth: aliases and contacts are resolved
// per send, never cached locally. No call is retried; a failed provider
// call is terminal for the send attempt that issued it.
//
// API reference: https://github.com/simple-login/app/blob/master/docs/api.md
package simplelogin
