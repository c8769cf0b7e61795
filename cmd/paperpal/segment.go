package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/dgallion1/paperpal/internal/parser"
	"github.com/dgallion1/paperpal/internal/render"
	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/dgallion1/paperpal/internal/textnorm"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSegmentCmd(g *globals) *cobra.Command {
	var (
		format        string
		keepPreamble  bool
		maxTitleWords int
		noFold        bool
	)

	cmd := &cobra.Command{
		Use:   "segment FILE...",
		Short: "Extract and segment papers",
		Long: `Extract text from each FILE, split it into sections and print the result.
Use "-" to read plain text from stdin. Files are processed in parallel and
printed in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}

			policy := g.cfg.Policy()
			if cmd.Flags().Changed("keep-preamble") {
				policy.KeepPreamble = keepPreamble
			}
			if cmd.Flags().Changed("max-title-words") {
				if maxTitleWords <= 0 {
					return fmt.Errorf("--max-title-words must be positive")
				}
				policy.MaxTitleWords = maxTitleWords
			}
			seg := sections.New(policy)
			norm := textnorm.Options{FoldUnicode: g.cfg.FoldUnicode && !noFold}

			docs := make([]render.Document, len(args))
			var eg errgroup.Group
			eg.SetLimit(runtime.NumCPU())
			for i, path := range args {
				eg.Go(func() error {
					text, err := extractFile(cmd.InOrStdin(), path, g)
					if err != nil {
						return err
					}
					a := seg.Analyze(text, norm)
					g.log.Debug("segmented", "file", path, "sections", len(a.Sections), "chars", a.CharCount)
					docs[i] = render.Document{File: path, Analysis: a}
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}
			return render.Documents(cmd.OutOrStdout(), docs, f)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&keepPreamble, "keep-preamble", false, "Keep text between the title line and the first header")
	cmd.Flags().IntVar(&maxTitleWords, "max-title-words", sections.DefaultPolicy().MaxTitleWords, "Longest first line accepted as a title")
	cmd.Flags().BoolVar(&noFold, "no-fold", false, "Skip NFKC folding of ligatures and compatibility characters")
	return cmd
}

// extractFile returns the text of path, or of stdin for "-".
func extractFile(stdin io.Reader, path string, g *globals) (string, error) {
	opts := parser.Options{PDFFallbackPdftotext: g.cfg.PDFFallbackPdftotext}

	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text, err := parser.Parse(data, "", path, opts)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}
