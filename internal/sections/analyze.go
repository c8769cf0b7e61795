package sections

import (
	"unicode/utf8"

	"github.com/dgallion1/paperpal/internal/textnorm"
)

// DisplaySection is a section ready for presentation.
type DisplaySection struct {
	Title   string `json:"title" yaml:"title"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Content string `json:"content" yaml:"content"`
}

// Analysis is the full result for one document.
type Analysis struct {
	PaperTitle string           `json:"paper_title" yaml:"paper_title"`
	Sections   []DisplaySection `json:"sections" yaml:"sections"`
	CharCount  int              `json:"char_count" yaml:"char_count"`
}

// Analyze normalizes raw extracted text, segments it and resolves display
// names and the paper title.
func (s *Segmenter) Analyze(raw string, opts textnorm.Options) Analysis {
	text := textnorm.NormalizeWith(raw, opts)
	secs := s.Segment(text)
	title := ResolvePaperTitle(secs, text)

	out := make([]DisplaySection, 0, len(secs))
	for _, sec := range secs {
		out = append(out, DisplaySection{
			Title:   DisplayName(sec.Name, sec.Content, s.policy),
			Name:    sec.Name,
			Content: sec.Content,
		})
	}
	return Analysis{
		PaperTitle: title,
		Sections:   out,
		CharCount:  utf8.RuneCountInString(text),
	}
}
