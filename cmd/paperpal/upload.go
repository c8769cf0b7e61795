package main

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/paperpal/internal/client"
	"github.com/dgallion1/paperpal/internal/render"
	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/spf13/cobra"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newUploadCmd(g *globals) *cobra.Command {
	var (
		baseURL string
		prefix  string
		token   string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a paper to a running paperpal server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			c := client.New(baseURL, prefix, token)
			g.log.Debug("uploading", "file", path, "url", baseURL, "bytes", len(data))
			res, err := c.Upload(cmd.Context(), filepath.Base(path), uploadContentType(path), data)
			if err != nil {
				return err
			}

			secs := make([]sections.DisplaySection, 0, len(res.Sections))
			for _, s := range res.Sections {
				secs = append(secs, sections.DisplaySection{Title: s.Title, Content: s.Content})
			}
			return render.Documents(cmd.OutOrStdout(), []render.Document{{
				File:  res.Filename,
				DocID: res.DocID,
				Analysis: sections.Analysis{
					PaperTitle: res.PaperTitle,
					Sections:   secs,
					CharCount:  res.CharCount,
				},
			}}, f)
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", envOr("BACKEND_BASE_URL", client.DefaultBaseURL), "Server base URL")
	cmd.Flags().StringVar(&prefix, "prefix", envOr("API_PREFIX", client.DefaultAPIPrefix), "API path prefix")
	cmd.Flags().StringVar(&token, "token", os.Getenv("API_BEARER_TOKEN"), "Bearer token")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}

func uploadContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return "application/pdf"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
