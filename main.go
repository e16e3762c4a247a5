package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"showtime-cards/pkg/config"
	"showtime-cards/pkg/db"
	"showtime-cards/pkg/logger"
	"showtime-cards/pkg/pipeline"
)

func main() {
	cfg := config.Load()

	var (
		zone      = flag.String("zone", cfg.Zone, "Region slug used to scope the catalog")
		output    = flag.String("output", cfg.Output, "Path of the JSON file written for the presenter")
		storeKind = flag.String("store", cfg.Store, "Cache backend: file, memory, mongo, postgres, supabase or redis")
		storePath = flag.String("store-path", cfg.StorePath, "Cache file for the file backend")
		workers   = flag.Int("workers", cfg.Workers, "Number of parallel lookups")
		details   = flag.Bool("details", cfg.FetchDetails, "Fetch per-show details (synopsis, cast)")
		leaks     = flag.String("leaks", cfg.LeakBackend, "Leak index backend: json, torznab or off")
		pageSizes = flag.String("page-sizes", "", "Comma separated page sizes to try, largest first")
		exclude   = flag.String("exclude", cfg.ExcludeFile, "File of slugs to leave out, one per line")
		logLevel  = flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	cfg.Zone = *zone
	cfg.Output = *output
	cfg.Store = *storeKind
	cfg.StorePath = *storePath
	cfg.Workers = *workers
	cfg.FetchDetails = *details
	cfg.LeakBackend = *leaks
	cfg.LogLevel = *logLevel
	cfg.ExcludeFile = *exclude
	if sizes := config.ParseIntList(*pageSizes); len(sizes) > 0 {
		cfg.PageSizes = sizes
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if err := run(ctx, cfg); err != nil {
		stop()
		logger.Log.Fatalf("Run failed: %v", err)
	}
	logger.Log.Infof("Done. Duration: %s", time.Since(start))
}

// run returns an error for anything fatal; the output file is only written
// when the whole pipeline succeeded.
func run(ctx context.Context, cfg *config.Config) (err error) {
	st, err := db.Open(ctx, db.OptionsFromConfig(cfg))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := st.Close(closeCtx); cerr != nil {
			logger.Log.Errorf("Failed to close store: %v", cerr)
			if err == nil {
				err = fmt.Errorf("close store: %w", cerr)
			}
		}
	}()

	p, err := pipeline.Build(cfg, st)
	if err != nil {
		return err
	}
	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("interrupted before writing output: %w", err)
	}

	if err := pipeline.WriteJSON(cfg.Output, result); err != nil {
		return err
	}
	logger.WithField("run_id", result.RunID).Infof("Wrote %d shows to %s", len(result.Shows), cfg.Output)
	return nil
}
