package parser

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// TextParser handles plain text files. Content passes through unchanged so
// line structure reaches the segmenter as written.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%s: not valid UTF-8", filename)
	}
	return string(b), nil
}
