// Package templates renders email subject and body content with variable
// substitution. HTML templates live under a configured directory root and
// are rendered with contextual autoescaping; inline text (subjects, plain
// bodies) shares the same substitution syntax so one validation step covers
// both.
//
// The engine is stateless: template sources are re-read per call, so
// concurrent use is safe without coordination.
package templates
