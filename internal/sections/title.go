package sections

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownTitle is the paper title reported when nothing better is found.
const UnknownTitle = "Unknown Title"

// UntitledSection is the display name for sections that cannot be classified.
const UntitledSection = "Untitled Section"

var lower = cases.Lower(language.Und)

// Capitalize upper-cases the first rune of s and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToTitle(r)) + lower.String(s[size:])
}

// isPlaceholder reports whether a section name carries no information:
// empty, digits only, or shorter than three characters.
func isPlaceholder(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) < 3 {
		return true
	}
	for _, r := range name {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// DisplayName returns the presentation name for a section. Placeholder names
// are re-derived by looking for telltale words near the start or end of the
// content.
func DisplayName(name, content string, p Policy) string {
	p = p.withDefaults()
	raw := strings.TrimSpace(name)
	if isPlaceholder(raw) {
		raw = classify(strings.ToLower(content), p)
	}
	return Capitalize(raw)
}

func classify(text string, p Policy) string {
	switch {
	case strings.Contains(head(text, p.AbstractWindow), "abstract"):
		return "Abstract"
	case strings.Contains(head(text, p.IntroductionWindow), "introduction"):
		return "Introduction"
	case strings.Contains(tail(text, p.ConclusionWindow), "conclusion"):
		return "Conclusion"
	case strings.Contains(tail(text, p.ReferencesWindow), "reference"):
		return "References"
	default:
		return UntitledSection
	}
}

// head returns the first n characters of s.
func head(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// tail returns the last n characters of s.
func tail(s string, n int) string {
	end := len(s)
	for i := 0; i < n && end > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:end])
		end -= size
	}
	return s[end:]
}

// ResolvePaperTitle picks a display title for the whole document from its
// segmented sections. When the first section name is a placeholder, the
// first line of text longer than five characters is used instead and also
// replaces that section's content.
func ResolvePaperTitle(secs []Section, text string) string {
	if len(secs) == 0 {
		return UnknownTitle
	}
	first := secs[0]
	if first.Name == Title {
		return first.Content
	}
	if isPlaceholder(first.Name) || strings.HasPrefix(strings.ToLower(strings.TrimSpace(first.Name)), "untitled") {
		for line := range strings.SplitSeq(text, "\n") {
			if line = strings.TrimSpace(line); utf8.RuneCountInString(line) > 5 {
				secs[0].Content = line
				return line
			}
		}
		return UnknownTitle
	}
	return first.Name
}
