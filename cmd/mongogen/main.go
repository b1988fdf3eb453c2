// mongogen scans package directories for types carrying +mongo directives
// and writes their document conversion companions next to the sources.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/WithSecureLabs/mongo-rs/gen"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		suffix  string
		dryRun  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "mongogen [packages]",
		Short: "Generate document conversion companions for annotated types",
		Long: `mongogen parses the given package directories, resolves every type
annotated with +mongo directives, and writes one companion file per source
file that declared any. Companion files carry the configured suffix and are
overwritten on each run.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()
			runner := &gen.Runner{Suffix: suffix, DryRun: dryRun, Logger: logger}
			return runner.Run(args)
		},
	}
	cmd.Flags().StringVar(&suffix, "suffix", gen.DefaultSuffix, "file name suffix for generated companions")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be written without writing files")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableCaller = true
	return cfg.Build()
}
