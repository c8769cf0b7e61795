package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/paperpal/internal/config"
	"github.com/dgallion1/paperpal/internal/version"
	"github.com/spf13/cobra"
)

// globals holds persistent flag values shared by subcommands.
type globals struct {
	configFile string
	verbose    bool

	cfg config.Config
	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:   "paperpal",
		Short: "Split research papers into titled sections",
		Long: `paperpal extracts text from PDF, DOCX, HTML, Markdown and plain text papers
and splits it into canonical sections (title, abstract, introduction, methods,
results, discussion, conclusion, references).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(g.configFile)
			if err != nil {
				return err
			}
			g.cfg = cfg

			level := slog.LevelWarn
			if g.verbose {
				level = slog.LevelDebug
			}
			g.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.Version = version.Version
	root.SetVersionTemplate(fmt.Sprintf("paperpal %s\n", version.String()))

	root.PersistentFlags().StringVar(&g.configFile, "config", os.Getenv("CONFIG_FILE"), "YAML config file")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Log progress to stderr")

	root.AddCommand(
		newSegmentCmd(g),
		newHeadersCmd(g),
		newUploadCmd(g),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "paperpal %s\n", version.String())
		},
	}
}
