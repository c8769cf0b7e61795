package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/paperpal/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSegment_JSONInArgumentOrder(t *testing.T) {
	a := writeFile(t, "a.txt", "First Paper\nAbstract\nAlpha.")
	b := writeFile(t, "b.md", "# Second Paper\n\n## Results\n\nBeta.")

	out, err := run(t, "", "segment", "--format", "json", a, b)
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, a, docs[0]["file"])
	assert.Equal(t, "First Paper", docs[0]["paper_title"])
	assert.Equal(t, b, docs[1]["file"])
	assert.Equal(t, "Second Paper", docs[1]["paper_title"])
}

func TestSegment_StdinKeepPreamble(t *testing.T) {
	out, err := run(t, "A Title\nJane Doe\nAbstract\nBody.", "segment", "-f", "json", "--keep-preamble", "-")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	var names []string
	for _, s := range doc["sections"].([]any) {
		names = append(names, s.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"title", "abstract", "preamble"}, names)
}

func TestSegment_MaxTitleWords(t *testing.T) {
	out, err := run(t, "three word title\nAbstract\nx", "segment", "-f", "yaml", "--max-title-words", "2", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "name: preamble")
	assert.NotContains(t, out, "name: title")

	_, err = run(t, "x", "segment", "--max-title-words", "0", "-")
	assert.Error(t, err)
}

func TestSegment_Errors(t *testing.T) {
	_, err := run(t, "", "segment", "--format", "xml", "-")
	assert.Error(t, err)

	_, err = run(t, "", "segment", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)

	_, err = run(t, "", "segment", writeFile(t, "data.csv", "a,b"))
	assert.Error(t, err)

	_, err = run(t, "", "segment")
	assert.Error(t, err)
}

func TestHeaders(t *testing.T) {
	path := writeFile(t, "p.txt", "T\nAbstract:\nx\nMaterials and Methods\ny")
	out, err := run(t, "", "headers", "-f", "json", path)
	require.NoError(t, err)

	var scan struct {
		File    string `json:"file"`
		Headers []struct {
			Keyword string `json:"keyword"`
			Start   int    `json:"start"`
		} `json:"headers"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &scan))
	require.Len(t, scan.Headers, 2)
	assert.Equal(t, "abstract", scan.Headers[0].Keyword)
	assert.Equal(t, 2, scan.Headers[0].Start)
	assert.Equal(t, "materials and methods", scan.Headers[1].Keyword)
}

func TestUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/papers/upload", r.URL.Path)
		_, fh, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", fh.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(client.UploadResult{
			DocID:      "doc-9",
			Filename:   fh.Filename,
			Sections:   []client.Section{{Title: "Abstract", Content: "We show."}},
			PaperTitle: "Shown",
		})
	}))
	defer srv.Close()

	path := writeFile(t, "paper.pdf", "%PDF-1.4")
	out, err := run(t, "", "upload", "--url", srv.URL, "-f", "json", path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "doc-9", doc["doc_id"])
	assert.Equal(t, "paper.pdf", doc["file"])
	assert.Equal(t, "Shown", doc["paper_title"])
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "paperpal dev"))
}

func TestUploadContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", uploadContentType("x.PDF"))
	assert.Equal(t, "application/octet-stream", uploadContentType("x.unknownext"))
}

