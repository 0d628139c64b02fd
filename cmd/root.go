package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/blaze/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "blaze",
	Short: "Static site generator for markdown notes",
	Long: `Blaze turns a folder of markdown notes into a static website with a
collapsible file explorer, callouts, highlighted code blocks with copy
buttons, and a search index. Sidebar folders remember whether they were
open for the rest of the browser session.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
