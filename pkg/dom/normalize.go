// Package dom provides HTML snapshot utilities shared by pattern
// detection and field resolution: parsing, a visibility heuristic,
// stable CSS paths, and text normalisation.
package dom

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// quoteFolder maps typographic punctuation onto its plain ASCII form so
// that authored expectations match pages regardless of which quote style
// the content designers used.
var quoteFolder = strings.NewReplacer(
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark / apostrophe
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	" ", " ", // no-break space
)

// Normalize canonicalises text for comparison: Unicode NFC, typographic
// quotes folded to straight ones, whitespace collapsed and trimmed.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = quoteFolder.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
