package templates

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	texttemplate "text/template"
	"text/template/parse"
)

// Ext is the file extension appended to template names.
const Ext = ".html"

// Engine loads templates from a directory root and renders them against a
// string substitution mapping.
type Engine struct {
	root string
}

// New creates an engine rooted at dir.
func New(dir string) *Engine {
	return &Engine{root: dir}
}

// path resolves a template name to a file path under the root.
// Names that contain separators or parent references are rejected so a
// caller-influenced name can never escape the template directory.
func (e *Engine) path(name string) (string, error) {
	if name == "" ||
		name != filepath.Base(name) ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(e.root, name+Ext), nil
}

func (e *Engine) source(name string) (string, error) {
	path, err := e.path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s%s", ErrTemplateNotFound, name, Ext)
		}
		return "", fmt.Errorf("failed to read template %s: %w", name, err)
	}
	return string(data), nil
}

// Variables statically extracts every substitution variable referenced by
// the named template, e.g. {{.name}} yields "name". Used for pre-flight
// validation only, never for rendering.
func (e *Engine) Variables(name string) (map[string]struct{}, error) {
	src, err := e.source(name)
	if err != nil {
		return nil, err
	}

	// SkipFuncCheck: extraction cares about free variables, not whether the
	// functions a pipeline calls exist. Render resolves functions itself.
	tree := parse.New(name)
	tree.Mode = parse.SkipFuncCheck
	treeSet := make(map[string]*parse.Tree)
	if _, err := tree.Parse(src, "{{", "}}", treeSet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	vars := make(map[string]struct{})
	for _, t := range treeSet {
		collectVars(t.Root, vars)
	}
	return vars, nil
}

// ValidateVariables computes required-minus-provided for the named template.
// An empty missing slice means the substitutions cover every variable the
// template references. The result is sorted for deterministic messages.
func (e *Engine) ValidateVariables(name string, substitutions map[string]string) ([]string, error) {
	required, err := e.Variables(name)
	if err != nil {
		return nil, err
	}

	var missing []string
	for v := range required {
		if _, ok := substitutions[v]; !ok {
			missing = append(missing, v)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// Render loads the named HTML template and executes it against the
// substitutions. Values are escaped per their output context; missing
// variables degrade to empty output rather than failing.
func (e *Engine) Render(name string, substitutions map[string]string) (string, error) {
	src, err := e.source(name)
	if err != nil {
		return "", err
	}

	// missingkey=zero keeps absent variables degrading to empty output.
	tmpl, err := htmltemplate.New(name + Ext).Option("missingkey=zero").Parse(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, substitutions); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	return buf.String(), nil
}

// RenderInline substitutes variables into inline text such as a subject
// line. It never fails: malformed input falls back to the raw text, since a
// cosmetic templating issue must not sink a send.
func (e *Engine) RenderInline(text string, substitutions map[string]string) string {
	tmpl, err := texttemplate.New("inline").Option("missingkey=zero").Parse(text)
	if err != nil {
		return text
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, substitutions); err != nil {
		return text
	}
	return buf.String()
}

// collectVars walks a parse tree gathering top-level field references.
func collectVars(node parse.Node, vars map[string]struct{}) {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return
		}
		for _, child := range n.Nodes {
			collectVars(child, vars)
		}
	case *parse.ActionNode:
		collectPipe(n.Pipe, vars)
	case *parse.IfNode:
		collectBranch(&n.BranchNode, vars)
	case *parse.RangeNode:
		collectBranch(&n.BranchNode, vars)
	case *parse.WithNode:
		collectBranch(&n.BranchNode, vars)
	case *parse.TemplateNode:
		collectPipe(n.Pipe, vars)
	}
}

func collectBranch(b *parse.BranchNode, vars map[string]struct{}) {
	collectPipe(b.Pipe, vars)
	collectVars(b.List, vars)
	if b.ElseList != nil {
		collectVars(b.ElseList, vars)
	}
}

func collectPipe(pipe *parse.PipeNode, vars map[string]struct{}) {
	if pipe == nil {
		return
	}
	for _, cmd := range pipe.Cmds {
		for _, arg := range cmd.Args {
			switch a := arg.(type) {
			case *parse.FieldNode:
				if len(a.Ident) > 0 {
					vars[a.Ident[0]] = struct{}{}
				}
			case *parse.PipeNode:
				collectPipe(a, vars)
			}
		}
	}
}
