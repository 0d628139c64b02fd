package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/blaze/internal/progress"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the site into the output directory",
	Long: `Renders every published markdown page in content_dir into output_dir,
copies static files and theme assets, and writes the search index. With
caching enabled, pages whose inputs did not change since the last build
are left in place.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().Bool("force", false, "ignore the build cache and render every page")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reporter := progress.Discard
	if verbose {
		reporter = progress.NewReporter()
	}

	g, closeCache, err := newGenerator(cfg, reporter)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx := cmd.Context()
	if force, _ := cmd.Flags().GetBool("force"); force && g.Cache != nil {
		if err := g.Cache.Reset(ctx); err != nil {
			return err
		}
	}

	start := time.Now()
	res, err := g.Generate(ctx)
	if err != nil {
		return fmt.Errorf("building site: %w", err)
	}

	printResult(res)
	if verbose {
		fmt.Fprintf(os.Stderr, "Output: %s (%s)\n", cfg.OutputDir, time.Since(start).Round(time.Millisecond))
	}
	return nil
}
