package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagCatalog string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "econdata-collector",
	Short: "econdata-collector fetches economic statistics from public APIs into a warehouse.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "path to the YAML source catalog (defaults to CATALOG_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// ExecuteContext runs the CLI with signal-aware cancellation.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
