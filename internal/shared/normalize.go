package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// FoldSearchTerm lower-cases a search term and strips diacritics so that
// "Almacén" and "almacen" match the same rows.
func FoldSearchTerm(s string) string {
	folded, _, err := transform.String(foldTransformer, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return strings.ToLower(folded)
}
