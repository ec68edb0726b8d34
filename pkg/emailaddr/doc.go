// Package emailaddr provides small helpers for formatting and obfuscating
// email addresses. Obfuscation is used throughout the gateway so that raw
// recipient and sender addresses never land in logs.
package emailaddr
