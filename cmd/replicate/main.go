package main

import (
	"context"
	"flag"
	"time"

	"showtime-cards/pkg/config"
	"showtime-cards/pkg/db"
	"showtime-cards/pkg/logger"
	"showtime-cards/pkg/replication"
)

func main() {
	cfg := config.Load()

	var (
		from      = flag.String("from", "file", "Source backend: file, memory, mongo, postgres, supabase or redis")
		fromPath  = flag.String("from-path", cfg.StorePath, "Cache file when the source is the file backend")
		to        = flag.String("to", cfg.Store, "Destination backend")
		toPath    = flag.String("to-path", cfg.StorePath, "Cache file when the destination is the file backend")
		batchSize = flag.Int("batch", 100, "Records per batch")
		workers   = flag.Int("workers", 5, "Number of parallel batch writers")
	)
	flag.Parse()

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	srcOpts := db.OptionsFromConfig(cfg)
	srcOpts.Backend = *from
	srcOpts.Path = *fromPath

	dstOpts := db.OptionsFromConfig(cfg)
	dstOpts.Backend = *to
	dstOpts.Path = *toPath

	if srcOpts.Backend == dstOpts.Backend && srcOpts.Path == dstOpts.Path && srcOpts.Backend == "file" {
		logger.Log.Fatal("Source and destination are the same file")
	}

	src, err := db.Open(ctx, srcOpts)
	if err != nil {
		logger.Log.Fatalf("Failed to open source store: %v", err)
	}
	defer src.Close(ctx)

	dst, err := db.Open(ctx, dstOpts)
	if err != nil {
		src.Close(ctx)
		logger.Log.Fatalf("Failed to open destination store: %v", err)
	}

	replicator, err := replication.NewReplicator(replication.Config{
		Source:      src,
		Destination: dst,
		BatchSize:   *batchSize,
		Workers:     *workers,
	})
	if err != nil {
		logger.Log.Fatalf("Failed to create replicator: %v", err)
	}

	start := time.Now()
	logger.Log.Infof("Replicating %s -> %s", *from, *to)
	report, err := replicator.Replicate(ctx)
	if cerr := dst.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		src.Close(ctx)
		logger.Log.Fatalf("Replication failed: %v", err)
	}
	logger.Log.Infof("Done. %d snapshots, %d markers. Duration: %s", report.Snapshots, report.Markers, time.Since(start))
}
