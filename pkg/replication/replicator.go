package replication

import (
	"context"
	"fmt"

	"showtime-cards/pkg/domain"
	"showtime-cards/pkg/logger"
	"showtime-cards/pkg/store"
	"showtime-cards/pkg/worker"
)

// Config wires the replication dependencies.
type Config struct {
	Source      store.Store
	Destination store.Store
	BatchSize   int
	Workers     int
}

// Replicator copies everything from one store to another. Snapshots are
// upserted; markers are inserted once, so a destination marker that is
// already present keeps its first-seen.
type Replicator struct {
	src       store.Store
	dst       store.Store
	batchSize int
	pool      *worker.Pool
}

// Report summarises a replication run.
type Report struct {
	Snapshots       int
	Markers         int
	MarkerConflicts int // destination already had an earlier or different first-seen
}

func NewReplicator(cfg Config) (*Replicator, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("source store is required")
	}
	if cfg.Destination == nil {
		return nil, fmt.Errorf("destination store is required")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	return &Replicator{
		src:       cfg.Source,
		dst:       cfg.Destination,
		batchSize: batchSize,
		pool:      worker.NewPool("replication", workers),
	}, nil
}

// Replicate copies snapshots, then markers. The first failing batch aborts
// the run; batches already written stay written.
func (r *Replicator) Replicate(ctx context.Context) (Report, error) {
	var report Report

	snaps, err := r.src.Snapshots(ctx)
	if err != nil {
		return report, fmt.Errorf("read snapshots: %w", err)
	}
	logger.Log.Infof("Loaded %d snapshots from source, processing in batches...", len(snaps))

	n, err := processBatches(ctx, r.pool, batch(snaps, r.batchSize), len(snaps), "snapshots", r.copySnapshots)
	report.Snapshots = n
	if err != nil {
		return report, err
	}

	markers, err := r.src.Markers(ctx)
	if err != nil {
		return report, fmt.Errorf("read markers: %w", err)
	}
	logger.Log.Infof("Loaded %d markers from source, processing in batches...", len(markers))

	n, err = processBatches(ctx, r.pool, batch(markers, r.batchSize), len(markers), "markers", r.copyMarkers)
	report.Markers = len(markers)
	report.MarkerConflicts = len(markers) - n
	if err != nil {
		return report, err
	}

	logger.Log.Infof("Replication complete: %d snapshots, %d markers (%d kept existing first-seen)",
		report.Snapshots, report.Markers, report.MarkerConflicts)
	return report, nil
}

// copySnapshots returns how many snapshots were written.
func (r *Replicator) copySnapshots(ctx context.Context, b []domain.Snapshot) (int, error) {
	for i, snap := range b {
		if err := r.dst.PutSnapshot(ctx, snap); err != nil {
			return i, fmt.Errorf("put snapshot %s/%s: %w", snap.Day, snap.Slug, err)
		}
	}
	return len(b), nil
}

// copyMarkers returns how many markers ended up with the source first-seen.
func (r *Replicator) copyMarkers(ctx context.Context, b []domain.Marker) (int, error) {
	matched := 0
	for _, m := range b {
		stored, err := r.dst.InsertMarkerOnce(ctx, m)
		if err != nil {
			return matched, fmt.Errorf("insert marker %s/%s: %w", m.Kind, m.Slug, err)
		}
		if stored.FirstSeen.Equal(m.FirstSeen) {
			matched++
		}
	}
	return matched, nil
}

func batch[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := calculateBatchEnd(start, size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

// calculateBatchEnd calculates the end index for a batch.
func calculateBatchEnd(start, batchSize, total int) int {
	end := start + batchSize
	if end > total {
		end = total
	}
	return end
}

// processBatches runs fn over batches in parallel and sums its counts.
// It returns the first error seen.
func processBatches[T any](ctx context.Context, pool *worker.Pool, batches [][]T, total int, what string,
	fn func(context.Context, []T) (int, error)) (int, error) {
	processed := 0
	counted := 0
	var firstErr error

	worker.Run(ctx, pool, batches, fn, func(res worker.Result[[]T, int]) {
		processed += len(res.Job)
		counted += res.Value
		if res.Err != nil && firstErr == nil {
			firstErr = res.Err
		}
		if processed%1000 == 0 || processed == total {
			logProgress(what, processed, total)
		}
	})
	return counted, firstErr
}

// logProgress logs replication progress.
func logProgress(what string, processed, total int) {
	if total == 0 {
		return
	}
	percentage := float64(processed) / float64(total) * 100
	logger.Log.Infof("Progress (%s): %d/%d (%.1f%%)", what, processed, total, percentage)
}
