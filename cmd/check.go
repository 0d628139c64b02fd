package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/blaze/internal/site"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the config, layout, scripts, and pages without building",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		pages, err := site.NewGenerator(cfg).Check(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d pages would be published from %s\n", pages, cfg.ContentDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
