// Package render prints analyses and header scans for the command line.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/paperpal/internal/sections"
	"gopkg.in/yaml.v3"
)

// Format selects an output encoding.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Text, JSON, YAML:
		return f, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, json or yaml)", s)
	}
}

// Document is one analyzed file.
type Document struct {
	File              string `json:"file" yaml:"file"`
	DocID             string `json:"doc_id,omitempty" yaml:"doc_id,omitempty"`
	sections.Analysis `yaml:",inline"`
}

// FileHeaders is the header scan of one file.
type FileHeaders struct {
	File    string                 `json:"file" yaml:"file"`
	Headers []sections.HeaderMatch `json:"headers" yaml:"headers"`
}

var (
	paperTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Documents writes docs in the given format. JSON and YAML write a single
// object for one document and a list (or document stream) for several.
func Documents(w io.Writer, docs []Document, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(docs) == 1 {
			return enc.Encode(docs[0])
		}
		return enc.Encode(docs)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, d := range docs {
			if err := enc.Encode(d); err != nil {
				return err
			}
		}
		return enc.Close()
	default:
		for i, d := range docs {
			if i > 0 {
				fmt.Fprintln(w)
			}
			if _, err := io.WriteString(w, documentText(d)); err != nil {
				return err
			}
		}
		return nil
	}
}

func documentText(d Document) string {
	var b strings.Builder
	b.WriteString(paperTitleStyle.Render(d.PaperTitle))
	b.WriteString("\n")

	meta := fmt.Sprintf("%s · %d sections · %d chars", d.File, len(d.Sections), d.CharCount)
	if d.DocID != "" {
		meta += " · " + d.DocID
	}
	b.WriteString(dimStyle.Render(meta))
	b.WriteString("\n")

	for _, sec := range d.Sections {
		b.WriteString("\n")
		b.WriteString(headingStyle.Render(sec.Title))
		b.WriteString("\n")
		b.WriteString(sec.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Headers writes header scans in the given format.
func Headers(w io.Writer, scans []FileHeaders, f Format) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if len(scans) == 1 {
			return enc.Encode(scans[0])
		}
		return enc.Encode(scans)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, s := range scans {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return enc.Close()
	default:
		for _, s := range scans {
			fmt.Fprintln(w, headingStyle.Render(s.File))
			if len(s.Headers) == 0 {
				fmt.Fprintln(w, dimStyle.Render("  no headers"))
				continue
			}
			for _, h := range s.Headers {
				fmt.Fprintf(w, "  %-14s %s\n", h.Keyword, dimStyle.Render(fmt.Sprintf("[%d:%d]", h.Start, h.End)))
			}
		}
		return nil
	}
}
