// Package relay is the send-orchestration engine of the gateway. Given a
// validated send request it selects a sending path (direct SMTP or
// alias-mediated), validates and renders template content, drives the alias
// provider through its provisioning sequence when needed, and hands the
// final message to an SMTP transport.
//
// Every request is processed independently end-to-end and is terminal on
// its first failure: no partial sends, and no provider or SMTP call is made
// for requests that fail validation. All outcomes, including failures, are
// reported as a Result value rather than an error crossing the package
// boundary.
package relay
