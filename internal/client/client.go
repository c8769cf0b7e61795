// Package client talks to a running paperpal server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultAPIPrefix = "/api/v1"
	UploadRoute      = "/papers/upload"
)

// Client uploads papers. Token is sent as a bearer token when set.
type Client struct {
	BaseURL   string
	APIPrefix string
	Token     string
	HTTP      *http.Client
}

// New returns a Client with a two minute request timeout.
func New(baseURL, apiPrefix, token string) *Client {
	return &Client{
		BaseURL:   baseURL,
		APIPrefix: apiPrefix,
		Token:     strings.TrimSpace(token),
		HTTP:      &http.Client{Timeout: 120 * time.Second},
	}
}

// Section is a section as the upload endpoint returns it.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UploadResult is the upload endpoint's response.
type UploadResult struct {
	DocID       string    `json:"doc_id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	NumSections int       `json:"num_sections"`
	CharCount   int       `json:"char_count"`
	Sections    []Section `json:"sections"`
	PaperTitle  string    `json:"paper_title"`
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

func (c *Client) url(route string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	prefix := strings.Trim(c.APIPrefix, "/")
	if prefix == "" {
		return base + route
	}
	return base + "/" + prefix + route
}

// Upload posts one file as multipart field "file".
func (c *Client) Upload(ctx context.Context, filename, contentType string, data []byte) (*UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(UploadRoute), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &out, nil
}
