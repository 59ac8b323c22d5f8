package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugRegexp = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from the given name.
// Accented Latin characters are folded to their ASCII base letter.
//
// Examples:
//   - "Caña de Pesca Carbono Pro" → "cana-de-pesca-carbono-pro"
//   - "Mira Telescópica HD" → "mira-telescopica-hd"
//   - "Hello   World!" → "hello-world"
func Generate(name string) string {
	slug := strings.ToLower(strings.TrimSpace(foldAccents(name)))

	// Replace any non-alphanumeric characters with hyphens
	slug = slugRegexp.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// foldAccents decomposes the string and drops combining marks, so "ñ" becomes
// "n" and "ó" becomes "o". Characters without a decomposition pass through.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
