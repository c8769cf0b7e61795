// Package sections splits extracted paper text into named, ordered sections
// using header keywords and line-position heuristics. It never looks at
// layout or fonts and holds no state between calls.
package sections

import (
	"regexp"
	"strings"
)

// Section names produced by the segmenter.
const (
	Title        = "title"
	Abstract     = "abstract"
	Introduction = "introduction"
	Methods      = "methods"
	Results      = "results"
	Discussion   = "discussion"
	Conclusion   = "conclusion"
	References   = "references"

	Body     = "body"
	Preamble = "preamble"
)

// Order is the canonical emission order for recognized sections. The title
// always precedes it; unrecognized names follow it.
var Order = []string{Abstract, Introduction, Methods, Results, Discussion, Conclusion, References}

var headerPattern = regexp.MustCompile(
	`(?im)^(abstract|introduction|materials?\s+and\s+methods|methods|results|discussion|conclusion|references)\s*:?\s*$`,
)

// Section is one named slice of a document. Content is never empty.
type Section struct {
	Name    string `json:"name" yaml:"name"`
	Content string `json:"content" yaml:"content"`
}

// HeaderMatch is a header line found by the scan. Start is the offset of the
// line start, End the offset just past the keyword and any trailing colon or
// whitespace.
type HeaderMatch struct {
	Keyword string `json:"keyword" yaml:"keyword"`
	Start   int    `json:"start" yaml:"start"`
	End     int    `json:"end" yaml:"end"`
}

// Headers returns every header line in text, in document order.
func Headers(text string) []HeaderMatch {
	locs := headerPattern.FindAllStringSubmatchIndex(text, -1)
	matches := make([]HeaderMatch, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, HeaderMatch{
			Keyword: strings.ToLower(text[loc[2]:loc[3]]),
			Start:   loc[0],
			End:     loc[1],
		})
	}
	return matches
}

// Segmenter applies a Policy. It is immutable and safe for concurrent use.
type Segmenter struct {
	policy Policy
}

// New returns a Segmenter; zero fields in p fall back to DefaultPolicy.
func New(p Policy) *Segmenter {
	return &Segmenter{policy: p.withDefaults()}
}

var defaultSegmenter = New(DefaultPolicy())

// Segment splits text with the default policy.
func Segment(text string) []Section {
	return defaultSegmenter.Segment(text)
}

// Policy returns the effective policy.
func (s *Segmenter) Policy() Policy {
	return s.policy
}

// Segment splits normalized text into ordered sections. Blank input yields
// an empty result. Text without any header, or whose headers enclose no
// content, yields a "body" section holding all of it, preceded by a "title"
// when the first line is short enough.
func (s *Segmenter) Segment(text string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	firstLine := firstNonEmptyLine(text)
	titleOK := firstLine != "" && len(strings.Fields(firstLine)) <= s.policy.MaxTitleWords

	fallback := func() []Section {
		var chunks []Section
		if titleOK {
			chunks = append(chunks, Section{Name: Title, Content: firstLine})
		}
		chunks = append(chunks, Section{Name: Body, Content: strings.TrimSpace(text)})
		return order(chunks)
	}

	matches := Headers(text)
	if len(matches) == 0 {
		return fallback()
	}

	var chunks []Section

	// The title check is independent of the preamble's content: when the
	// first line qualifies the rest of the preamble is dropped unless
	// KeepPreamble is set.
	if preamble := strings.TrimSpace(text[:matches[0].Start]); preamble != "" {
		if titleOK {
			chunks = append(chunks, Section{Name: Title, Content: firstLine})
			if rest := afterFirstLine(preamble); s.policy.KeepPreamble && rest != "" {
				chunks = append(chunks, Section{Name: Preamble, Content: rest})
			}
		} else {
			chunks = append(chunks, Section{Name: Preamble, Content: preamble})
		}
	}

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1].Start
		}
		content := strings.TrimSpace(text[m.End:end])
		if content == "" {
			continue
		}
		chunks = append(chunks, Section{Name: foldAlias(m.Keyword), Content: content})
	}

	// Nothing but bare header lines.
	if len(chunks) == 0 {
		return fallback()
	}
	return order(chunks)
}

// foldAlias maps header variants onto their canonical name.
func foldAlias(name string) string {
	if strings.Contains(name, "material") && strings.Contains(name, "methods") {
		return Methods
	}
	return name
}

// order merges chunks sharing a name and emits title, then Order, then the
// rest in discovery order.
func order(chunks []Section) []Section {
	var names []string
	byName := make(map[string][]string)
	for _, c := range chunks {
		if _, seen := byName[c.Name]; !seen {
			names = append(names, c.Name)
		}
		byName[c.Name] = append(byName[c.Name], c.Content)
	}

	out := make([]Section, 0, len(names))
	emit := func(name string) {
		parts, ok := byName[name]
		if !ok {
			return
		}
		out = append(out, Section{Name: name, Content: strings.Join(parts, "\n\n")})
		delete(byName, name)
	}

	emit(Title)
	for _, name := range Order {
		emit(name)
	}
	for _, name := range names {
		emit(name)
	}
	return out
}

// Reconstruct renders sections back into text, writing a header line before
// every section other than title, preamble and body. Segmenting the result
// yields no section names beyond those in secs.
func Reconstruct(secs []Section) string {
	parts := make([]string, 0, len(secs))
	for _, s := range secs {
		switch s.Name {
		case Title, Preamble, Body:
			parts = append(parts, s.Content)
		default:
			parts = append(parts, Capitalize(s.Name)+"\n"+s.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func firstNonEmptyLine(text string) string {
	for line := range strings.SplitSeq(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

func afterFirstLine(s string) string {
	_, rest, ok := strings.Cut(s, "\n")
	if !ok {
		return ""
	}
	return strings.TrimSpace(rest)
}
