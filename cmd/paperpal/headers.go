package main

import (
	"github.com/dgallion1/paperpal/internal/render"
	"github.com/dgallion1/paperpal/internal/sections"
	"github.com/dgallion1/paperpal/internal/textnorm"
	"github.com/spf13/cobra"
)

func newHeadersCmd(g *globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "headers FILE...",
		Short: "List the section header lines found in papers",
		Long: `List every recognized header line with its byte offsets in the normalized
text. Useful for checking why a paper segments the way it does.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			norm := textnorm.Options{FoldUnicode: g.cfg.FoldUnicode}

			scans := make([]render.FileHeaders, 0, len(args))
			for _, path := range args {
				text, err := extractFile(cmd.InOrStdin(), path, g)
				if err != nil {
					return err
				}
				scans = append(scans, render.FileHeaders{
					File:    path,
					Headers: sections.Headers(textnorm.NormalizeWith(text, norm)),
				})
			}
			return render.Headers(cmd.OutOrStdout(), scans, f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json or yaml")
	return cmd
}
