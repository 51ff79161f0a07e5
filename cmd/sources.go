package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"econdata-collector/config"
)

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources declared in the catalog.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		catalog, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		for _, s := range catalog.Sources {
			fmt.Printf("%-12s type=%-8s table=%-20s targets=%-3d fields=%-3d rate=%s\n",
				s.Name, s.Type, s.Table, len(s.Targets), len(s.Fields), s.RateInterval)
		}
		return nil
	},
}
