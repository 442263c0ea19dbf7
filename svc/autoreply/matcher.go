package autoreply

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultTriggers are the words that request the media set.
var DefaultTriggers = []string{
	"fotos",
	"foto",
	"fotografias",
	"fotitos",
	"fotito",
	"imagenes de referencia",
	"imagenes",
	"images",
	"pics",
}

// Matcher reports whether a text contains any of its triggers.
type Matcher struct {
	triggers []string
}

// NewMatcher builds a matcher. Blank triggers are ignored; with none left
// DefaultTriggers are used.
func NewMatcher(triggers ...string) *Matcher {
	m := &Matcher{}
	for _, t := range triggers {
		if n := Normalize(t); n != "" {
			m.triggers = append(m.triggers, n)
		}
	}
	if len(m.triggers) == 0 {
		for _, t := range DefaultTriggers {
			m.triggers = append(m.triggers, Normalize(t))
		}
	}
	return m
}

func (m *Matcher) Match(text string) bool {
	n := Normalize(text)
	if n == "" {
		return false
	}
	for _, t := range m.triggers {
		if strings.Contains(n, t) {
			return true
		}
	}
	return false
}

// Triggers returns the normalized trigger list.
func (m *Matcher) Triggers() []string {
	return append([]string(nil), m.triggers...)
}

// Normalize strips diacritics, folds case and collapses whitespace.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}
