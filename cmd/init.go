package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/blaze/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize blaze configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure blaze for your notes and writes the config file (blaze.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			force, _ := cmd.Flags().GetBool("force")
			if !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", cfgFile)
			}
		}
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
