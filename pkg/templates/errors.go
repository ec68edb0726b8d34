package templates

import "errors"

var (
	// ErrTemplateNotFound indicates no template file exists for the name.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateParse indicates the template source is malformed.
	ErrTemplateParse = errors.New("failed to parse template")

	// ErrInvalidName indicates the template name would escape the
	// template directory root.
	ErrInvalidName = errors.New("invalid template name")

	// ErrRenderFailed indicates template execution failed.
	ErrRenderFailed = errors.New("failed to render template")
)
