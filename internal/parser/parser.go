package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupported is returned for files no parser handles.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrEmpty is returned for a zero-length upload.
	ErrEmpty = errors.New("empty file")
)

// Parser converts raw document bytes into newline-delimited plain text.
// Headings are written on lines of their own so header detection can find
// them; original line breaks are kept where the format has them.
type Parser interface {
	Parse(r io.Reader, filename string) (string, error)
}

// Options configures parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// PDFContentTypes are the upload content types treated as PDF regardless of
// the filename.
var PDFContentTypes = map[string]bool{
	"application/pdf":     true,
	"application/x-pdf":   true,
	"binary/octet-stream": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// ForUpload picks a parser from the declared content type first, then the
// filename extension.
func ForUpload(contentType, filename string, opts Options) (Parser, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && PDFContentTypes[mt] {
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	}
	return ForFile(filename, opts)
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Parse extracts text from an uploaded document. contentType may be empty;
// when it names a PDF type the PDF parser is used whatever the extension.
func Parse(data []byte, contentType, filename string, opts Options) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%s: %w", filename, ErrEmpty)
	}
	p, err := ForUpload(contentType, filename, opts)
	if err != nil {
		return "", err
	}
	return p.Parse(bytes.NewReader(data), filename)
}
