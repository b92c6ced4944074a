package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars    = regexp.MustCompile(`[^a-z0-9-]+`)
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a title to a URL-friendly slug: accents are folded,
// whitespace and punctuation become hyphens, everything is lowercase.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	out = strings.ToLower(strings.TrimSpace(out))
	out = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '_' || r == '/' || r == '\'' {
			return '-'
		}
		return r
	}, out)
	out = nonSlugChars.ReplaceAllString(out, "")
	out = multipleHyphens.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// htmlPolicy allows the markup produced by the admin rich-text editor and
// strips scripts, event handlers and unsafe URLs.
var htmlPolicy = bluemonday.UGCPolicy()

// SanitizeHTML cleans user-authored HTML before it is stored.
func SanitizeHTML(s string) string {
	if s == "" {
		return s
	}
	return htmlPolicy.Sanitize(s)
}
