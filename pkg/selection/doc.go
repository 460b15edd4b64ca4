// Package selection holds the cross-page selection state for a paginated
// catalog and the bulk materialization algorithm that fills it.
//
// The Store keeps identifiers only, never item payloads, so selection
// membership is independent of which page happens to be loaded and memory
// cost grows with selection size rather than collection size.
//
// The BulkSelector materializes the first K items of the collection into
// the Store by fetching pages in sequential batches of bounded concurrency:
//
//	store := selection.NewStore()
//	bulk, err := selection.NewBulkSelector(fetcher, store, selection.BulkConfig{
//		PageSize: 12,
//	})
//	if err != nil {
//		return err
//	}
//	n, err := bulk.SelectFirst(ctx, 30, totalRecords)
//
// Result assembly is by page index, not response-arrival order, so the
// final set is deterministic regardless of network timing. A failed fetch
// anywhere aborts the whole operation and leaves the Store untouched.
// Overlapping bulk calls resolve last-writer-wins: starting a new call
// supersedes any still-running one, whose result is discarded on arrival.
package selection
