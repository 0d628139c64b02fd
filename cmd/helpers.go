package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ziadkadry99/blaze/internal/buildcache"
	"github.com/ziadkadry99/blaze/internal/config"
	"github.com/ziadkadry99/blaze/internal/db"
	"github.com/ziadkadry99/blaze/internal/progress"
	"github.com/ziadkadry99/blaze/internal/site"
)

// cacheFile is the SQLite database inside cache_dir.
const cacheFile = "cache.db"

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `blaze init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newGenerator builds a site generator for cfg. When caching is enabled the
// returned close function releases the cache database.
func newGenerator(cfg *config.Config, reporter progress.Reporter) (*site.Generator, func(), error) {
	g := site.NewGenerator(cfg)
	g.Progress = reporter

	if !cfg.Cache {
		return g, func() {}, nil
	}

	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating cache dir: %w", err)
	}
	database, err := db.Open(filepath.Join(cfg.CacheDir, cacheFile))
	if err != nil {
		return nil, nil, fmt.Errorf("opening build cache: %w", err)
	}
	g.Cache = buildcache.NewStore(database)

	return g, func() { database.Close() }, nil
}

func printResult(res site.Result) {
	fmt.Printf("Built %d pages: %d rendered, %d unchanged, %d static files copied", res.Pages, res.Rendered, res.Skipped, res.Copied)
	if res.Pruned > 0 {
		fmt.Printf(", %d removed", res.Pruned)
	}
	fmt.Println()
}
