package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/blaze/internal/progress"
	"github.com/ziadkadry99/blaze/internal/site"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the site and serve it with live reload",
	Long: `Builds the site, serves output_dir over HTTP, and rebuilds whenever a
file under content_dir or template_dir or the config file changes. Open
pages reload automatically after each rebuild.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "port for the local dev server")
	serveCmd.Flags().Bool("open", false, "open browser automatically")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	g, closeCache, err := newGenerator(cfg, progress.Discard)
	if err != nil {
		return err
	}
	defer closeCache()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := g.Generate(ctx)
	if err != nil {
		return fmt.Errorf("building site: %w", err)
	}
	printResult(res)

	port, _ := cmd.Flags().GetInt("port")
	open, _ := cmd.Flags().GetBool("open")

	srv := site.NewServer(cfg.OutputDir, port, verbose)
	url := fmt.Sprintf("http://localhost:%d", port)
	fmt.Printf("Serving %s at %s\n", cfg.OutputDir, url)
	fmt.Println("Press Ctrl+C to stop.")
	if open {
		go site.OpenBrowser(url)
	}

	watcher := &site.Watcher{
		Roots:   []string{cfg.ContentDir, cfg.TemplateDir},
		Files:   []string{cfgFile},
		Exclude: []string{cfg.OutputDir, cfg.CacheDir},
	}
	go func() {
		err := watcher.Run(ctx, func(paths []string) {
			rebuild(ctx, g, srv, paths)
		})
		if err != nil {
			log.Printf("site: watcher stopped: %v", err)
		}
	}()

	return srv.Start(ctx)
}

// rebuild reloads the config, regenerates the site, and reloads open pages.
// A broken config or build keeps the previous output.
func rebuild(ctx context.Context, g *site.Generator, srv *site.Server, paths []string) {
	if verbose {
		for _, p := range paths {
			log.Printf("site: changed %s", p)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("site: %v", err)
		return
	}
	if cfg.OutputDir != g.Config.OutputDir {
		log.Printf("site: output_dir changed; restart serve to use %s", cfg.OutputDir)
		cfg.OutputDir = g.Config.OutputDir
	}
	g.Config = cfg

	res, err := g.Generate(ctx)
	if err != nil {
		log.Printf("site: rebuild failed: %v", err)
		return
	}
	log.Printf("site: rebuilt %d pages (%d rendered)", res.Pages, res.Rendered)
	srv.Reload()
}
