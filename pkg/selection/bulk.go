package selection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/catalogkit/catalog-client/pkg/catalog"
	"github.com/catalogkit/catalog-client/pkg/pagination"
)

// ErrSuperseded is returned when a bulk selection completes after a newer
// one has already started. The stale result is discarded, never applied.
var ErrSuperseded = errors.New("bulk selection superseded by a newer request")

// BulkConfig holds bulk selector configuration.
type BulkConfig struct {
	// PageSize is the fixed page size shared with the fetcher. Required.
	PageSize int

	// Concurrency is the maximum number of page fetches in flight at once.
	Concurrency int

	// Cap bounds the effective target count regardless of what the caller
	// asks for. The effective cap is min(Cap, totalRecords).
	Cap int64
}

// DefaultBulkConfig returns safe defaults for the given page size.
func DefaultBulkConfig(pageSize int) BulkConfig {
	return BulkConfig{
		PageSize:    pageSize,
		Concurrency: 3,
		Cap:         1000,
	}
}

// BulkSelector materializes the first K identifiers of the collection into
// a Store via bounded-concurrency paged fetches.
type BulkSelector struct {
	fetcher catalog.PageFetcher
	store   *Store
	config  BulkConfig
	logger  zerolog.Logger

	// gen tags each invocation; only the latest generation may apply.
	gen      atomic.Uint64
	inFlight atomic.Int64

	// applyMu serializes the stale check with the store apply so a stale
	// result can never overwrite one from a later request.
	applyMu sync.Mutex
}

// NewBulkSelector creates a bulk selector. PageSize must be positive;
// Concurrency and Cap fall back to defaults when unset.
func NewBulkSelector(fetcher catalog.PageFetcher, store *Store, config BulkConfig) (*BulkSelector, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	if store == nil {
		return nil, fmt.Errorf("selection store is required")
	}
	if config.PageSize <= 0 {
		return nil, fmt.Errorf("page_size must be positive (got %d)", config.PageSize)
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 3
	}
	if config.Cap <= 0 {
		config.Cap = 1000
	}

	return &BulkSelector{
		fetcher: fetcher,
		store:   store,
		config:  config,
		logger:  log.With().Str("component", "bulk-selector").Logger(),
	}, nil
}

// Busy reports whether a bulk selection is currently in flight. Callers may
// use it to disable manual selection controls; the selector itself does not
// block manual mutation.
func (b *BulkSelector) Busy() bool {
	return b.inFlight.Load() > 0
}

// SelectFirst replaces the store's contents with the identifiers of the
// first k items of the collection, in canonical order (page 1 row 1,
// row 2, ..., page 2 row 1, ...).
//
// k is clamped to [0, min(Cap, totalRecords)]; k <= 0 clears the selection.
// Pages are fetched in sequential batches of at most Concurrency requests;
// a batch starts only after the previous one fully completed. Any fetch
// failure aborts the whole operation and leaves the store exactly as it
// was. Returns the resulting selection size.
func (b *BulkSelector) SelectFirst(ctx context.Context, k int, totalRecords int64) (int, error) {
	gen := b.gen.Add(1)
	b.inFlight.Add(1)
	defer b.inFlight.Add(-1)

	start := time.Now()
	target := clampTarget(k, totalRecords, b.config.Cap)

	if target == 0 {
		return b.apply(gen, nil, start)
	}

	pages := pagination.PageCount(target, b.config.PageSize)
	result := make([]int64, 0, target)

	for first := 1; first <= pages && int64(len(result)) < target; first += b.config.Concurrency {
		last := first + b.config.Concurrency - 1
		if last > pages {
			last = pages
		}

		batch := make([][]int64, last-first+1)
		g, gctx := errgroup.WithContext(ctx)
		for num := first; num <= last; num++ {
			g.Go(func() error {
				page, err := b.fetcher.FetchPage(gctx, num)
				if err != nil {
					return fmt.Errorf("fetch page %d: %w", num, err)
				}
				batch[num-first] = page.IDs()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			bulkSelectTotal.WithLabelValues("failed").Inc()
			b.logger.Warn().
				Err(err).
				Uint64("generation", gen).
				Int64("target", target).
				Msg("Bulk selection aborted, store untouched")
			return b.store.Size(), err
		}
		bulkPagesFetched.Add(float64(len(batch)))

		// Assemble in ascending page order, not arrival order.
		for _, ids := range batch {
			result = append(result, ids...)
		}
	}

	// Trim the crossing page down to exactly the target.
	if int64(len(result)) > target {
		result = result[:target]
	}

	return b.apply(gen, result, start)
}

// apply installs result into the store unless a newer invocation has
// started meanwhile.
func (b *BulkSelector) apply(gen uint64, result []int64, start time.Time) (int, error) {
	b.applyMu.Lock()
	defer b.applyMu.Unlock()

	if b.gen.Load() != gen {
		bulkSelectTotal.WithLabelValues("superseded").Inc()
		b.logger.Debug().
			Uint64("generation", gen).
			Int("discarded", len(result)).
			Msg("Discarding stale bulk selection result")
		return b.store.Size(), ErrSuperseded
	}

	size := b.store.ReplaceAll(result)
	bulkSelectTotal.WithLabelValues("applied").Inc()
	bulkSelectDuration.Observe(time.Since(start).Seconds())

	b.logger.Info().
		Uint64("generation", gen).
		Int("selected", size).
		Dur("duration", time.Since(start)).
		Msg("Bulk selection applied")

	return size, nil
}

// clampTarget computes the effective target count from the requested k.
// Negative values clamp to zero rather than erroring.
func clampTarget(k int, totalRecords, cap int64) int64 {
	if k <= 0 {
		return 0
	}
	target := int64(k)
	if target > cap {
		target = cap
	}
	if target > totalRecords {
		target = totalRecords
	}
	if target < 0 {
		target = 0
	}
	return target
}
