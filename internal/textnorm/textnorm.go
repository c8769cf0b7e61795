package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Options controls optional normalization steps.
type Options struct {
	// FoldUnicode applies NFKC compatibility folding before line handling,
	// which expands PDF ligatures ("ﬁ" -> "fi") and full-width forms.
	FoldUnicode bool
}

var lineBreaks = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\f", "\n", // page separator emitted by most extractors
	"\v", "\n",
	"\u2028", "\n",
	"\u2029", "\n",
)

// Normalize converts every line break to \n and right-trims each line.
// Leading and empty lines are kept so offsets into the result stay
// aligned with the document's line structure. A single trailing line
// break is dropped.
func Normalize(text string) string {
	return NormalizeWith(text, Options{})
}

// NormalizeWith is Normalize with optional extra steps.
func NormalizeWith(text string, opts Options) string {
	if text == "" {
		return ""
	}
	if opts.FoldUnicode {
		text = norm.NFKC.String(text)
	}
	text = lineBreaks.Replace(text)
	text = strings.TrimSuffix(text, "\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return strings.Join(lines, "\n")
}
