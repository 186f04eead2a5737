package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSlug converts an entity key to its canonical slug form: accents
// are removed, letters are lowercased, and any run of characters other than
// letters and digits becomes a single hyphen. Returns "" when nothing usable
// remains.
func NormalizeSlug(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, value)
	if err != nil {
		folded = value
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// DisplayName turns a slug back into a human-readable title ("hong-kong"
// becomes "Hong Kong").
func DisplayName(slug string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	spaced := strings.Join(strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_'
	}), " ")
	return cases.Title(language.Und).String(spaced)
}
