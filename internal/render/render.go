package render

import (
	"errors"
	"fmt"
	"strings"

	"sitedrift/internal/entity"
)

// ErrMissingTemplate is returned when the template text is empty.
var ErrMissingTemplate = errors.New("template is empty")

// DefaultListSeparator joins list fields when Options leaves it unset.
const DefaultListSeparator = ", "

// UnresolvedPlaceholderError lists every token the record could not satisfy,
// each once, in order of first appearance.
type UnresolvedPlaceholderError struct {
	Slug   string
	Tokens []string
}

func (e *UnresolvedPlaceholderError) Error() string {
	quoted := make([]string, len(e.Tokens))
	for i, token := range e.Tokens {
		quoted[i] = fmt.Sprintf("%q", token)
	}
	subject := "record"
	if e.Slug != "" {
		subject = fmt.Sprintf("record %q", e.Slug)
	}
	return fmt.Sprintf("unresolved placeholders for %s: [%s]", subject, strings.Join(quoted, ", "))
}

// Options controls rendering.
type Options struct {
	ListSeparator string
}

type segment struct {
	literal string
	token   string
}

// Render fills template with record fields.
func Render(template string, record entity.Record, opts Options) (string, error) {
	if template == "" {
		return "", ErrMissingTemplate
	}
	sep := opts.ListSeparator
	if sep == "" {
		sep = DefaultListSeparator
	}

	segments := scan(template)
	var missing []string
	seen := map[string]struct{}{}
	for _, seg := range segments {
		if seg.token == "" {
			continue
		}
		if _, ok := record.Field(seg.token); ok {
			continue
		}
		if _, dup := seen[seg.token]; dup {
			continue
		}
		seen[seg.token] = struct{}{}
		missing = append(missing, seg.token)
	}
	if len(missing) > 0 {
		return "", &UnresolvedPlaceholderError{Slug: record.Slug, Tokens: missing}
	}

	var b strings.Builder
	b.Grow(len(template))
	for _, seg := range segments {
		if seg.token == "" {
			b.WriteString(seg.literal)
			continue
		}
		value, _ := record.Field(seg.token)
		b.WriteString(value.Join(sep))
	}
	return b.String(), nil
}

// Tokens returns the distinct field names template references, in order of
// first appearance.
func Tokens(template string) []string {
	var tokens []string
	seen := map[string]struct{}{}
	for _, seg := range scan(template) {
		if seg.token == "" {
			continue
		}
		if _, dup := seen[seg.token]; dup {
			continue
		}
		seen[seg.token] = struct{}{}
		tokens = append(tokens, seg.token)
	}
	return tokens
}

// scan splits template into literal text and field tokens. A "{{" that is not
// closed, or whose contents are not a field name, stays literal.
func scan(template string) []segment {
	var segments []segment
	rest := template
	var literal strings.Builder
	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			literal.WriteString(rest)
			break
		}
		closeIdx := strings.Index(rest[open+2:], "}}")
		if closeIdx < 0 {
			literal.WriteString(rest)
			break
		}
		name := strings.TrimSpace(rest[open+2 : open+2+closeIdx])
		if !isFieldName(name) {
			literal.WriteString(rest[:open+2])
			rest = rest[open+2:]
			continue
		}
		literal.WriteString(rest[:open])
		if literal.Len() > 0 {
			segments = append(segments, segment{literal: literal.String()})
			literal.Reset()
		}
		segments = append(segments, segment{token: name})
		rest = rest[open+2+closeIdx+2:]
	}
	if literal.Len() > 0 {
		segments = append(segments, segment{literal: literal.String()})
	}
	return segments
}

func isFieldName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}
