package selection

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogkit/catalog-client/pkg/catalog"
)

// fakeFetcher serves a synthetic collection where the item on global row r
// (1-based) has identifier r*10. It tracks the concurrent-request
// high-water mark and which pages were fetched.
type fakeFetcher struct {
	pageSize int
	total    int64
	delay    time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	pages       []int
	failPages   map[int]error

	// gate, when non-nil, blocks every fetch until the channel is closed.
	gate chan struct{}
	// waiting is closed once a fetch is blocked on gate.
	waiting chan struct{}
}

func newFakeFetcher(pageSize int, total int64) *fakeFetcher {
	return &fakeFetcher{pageSize: pageSize, total: total}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page int) (*catalog.Page, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.pages = append(f.pages, page)
	gate, waiting := f.gate, f.waiting
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if gate != nil {
		if waiting != nil {
			f.mu.Lock()
			if f.waiting != nil {
				close(f.waiting)
				f.waiting = nil
			}
			f.mu.Unlock()
		}
		<-gate
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	if err, ok := f.failPages[page]; ok {
		return nil, err
	}

	first := int64(page-1)*int64(f.pageSize) + 1
	last := int64(page) * int64(f.pageSize)
	if last > f.total {
		last = f.total
	}

	p := &catalog.Page{Number: page, TotalRecords: f.total}
	for row := first; row <= last; row++ {
		p.Items = append(p.Items, catalog.Item{ID: row * 10, Title: "item"})
	}
	return p, nil
}

func (f *fakeFetcher) fetchedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pages...)
}

// prefixIDs returns the canonical first-n identifiers of the synthetic
// collection.
func prefixIDs(n int) []int64 {
	ids := make([]int64, n)
	for i := range ids {
		ids[i] = int64(i+1) * 10
	}
	return ids
}

func newTestSelector(t *testing.T, f *fakeFetcher, cfg BulkConfig) (*BulkSelector, *Store) {
	t.Helper()
	store := NewStore()
	b, err := NewBulkSelector(f, store, cfg)
	require.NoError(t, err)
	return b, store
}

func TestNewBulkSelector_Validation(t *testing.T) {
	f := newFakeFetcher(12, 50)

	_, err := NewBulkSelector(nil, NewStore(), BulkConfig{PageSize: 12})
	assert.EqualError(t, err, "page fetcher is required")

	_, err = NewBulkSelector(f, nil, BulkConfig{PageSize: 12})
	assert.EqualError(t, err, "selection store is required")

	_, err = NewBulkSelector(f, NewStore(), BulkConfig{PageSize: 0})
	assert.EqualError(t, err, "page_size must be positive (got 0)")

	b, err := NewBulkSelector(f, NewStore(), BulkConfig{PageSize: 12})
	require.NoError(t, err)
	assert.Equal(t, 3, b.config.Concurrency)
	assert.Equal(t, int64(1000), b.config.Cap)
}

func TestSelectFirst_TwoPagePrefix(t *testing.T) {
	// pageSize=12, total=50, K=20: two pages in one batch, exactly the
	// first 20 identifiers in canonical order.
	f := newFakeFetcher(12, 50)
	b, store := newTestSelector(t, f, DefaultBulkConfig(12))

	n, err := b.SelectFirst(context.Background(), 20, 50)
	require.NoError(t, err)

	assert.Equal(t, 20, n)
	assert.Equal(t, prefixIDs(20), store.IDs())
	assert.ElementsMatch(t, []int{1, 2}, f.fetchedPages())
}

func TestSelectFirst_ClampsToTotal(t *testing.T) {
	f := newFakeFetcher(12, 5)
	b, store := newTestSelector(t, f, DefaultBulkConfig(12))

	n, err := b.SelectFirst(context.Background(), 100, 5)
	require.NoError(t, err)

	assert.Equal(t, 5, n)
	assert.Equal(t, prefixIDs(5), store.IDs())
}

func TestSelectFirst_ZeroClears(t *testing.T) {
	f := newFakeFetcher(12, 50)
	b, store := newTestSelector(t, f, DefaultBulkConfig(12))
	store.SelectPage([]int64{10, 20, 30})

	n, err := b.SelectFirst(context.Background(), 0, 50)
	require.NoError(t, err)

	assert.Equal(t, 0, n)
	assert.Empty(t, store.IDs())
	assert.Empty(t, f.fetchedPages(), "clearing must not fetch")
}

func TestSelectFirst_NegativeClampsToZero(t *testing.T) {
	f := newFakeFetcher(12, 50)
	b, store := newTestSelector(t, f, DefaultBulkConfig(12))
	store.Add(10)

	n, err := b.SelectFirst(context.Background(), -7, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, store.Size())
}

func TestSelectFirst_SingleBatchOfThreePages(t *testing.T) {
	// pageSize=12, C=3, total=100, K=30: three pages, all in one batch.
	f := newFakeFetcher(12, 100)
	b, store := newTestSelector(t, f, BulkConfig{PageSize: 12, Concurrency: 3})

	n, err := b.SelectFirst(context.Background(), 30, 100)
	require.NoError(t, err)

	assert.Equal(t, 30, n)
	assert.Equal(t, prefixIDs(30), store.IDs())
	assert.ElementsMatch(t, []int{1, 2, 3}, f.fetchedPages())
}

func TestSelectFirst_ClampsToCap(t *testing.T) {
	f := newFakeFetcher(12, 100)
	b, store := newTestSelector(t, f, BulkConfig{PageSize: 12, Cap: 10})

	n, err := b.SelectFirst(context.Background(), 50, 100)
	require.NoError(t, err)

	assert.Equal(t, 10, n)
	assert.Equal(t, prefixIDs(10), store.IDs())
}

func TestSelectFirst_SizeLaw(t *testing.T) {
	// |result| = min(K, totalRecords) for all K under the default cap.
	f := newFakeFetcher(7, 23)
	b, store := newTestSelector(t, f, DefaultBulkConfig(7))

	for _, k := range []int{0, 1, 6, 7, 8, 22, 23, 24, 500} {
		n, err := b.SelectFirst(context.Background(), k, 23)
		require.NoError(t, err, "K=%d", k)

		want := k
		if want > 23 {
			want = 23
		}
		assert.Equal(t, want, n, "K=%d", k)
		assert.Equal(t, want, store.Size(), "K=%d", k)
	}
}

func TestSelectFirst_Monotone(t *testing.T) {
	f := newFakeFetcher(12, 50)
	b, store := newTestSelector(t, f, DefaultBulkConfig(12))

	_, err := b.SelectFirst(context.Background(), 17, 50)
	require.NoError(t, err)
	smaller := store.IDs()

	_, err = b.SelectFirst(context.Background(), 18, 50)
	require.NoError(t, err)
	larger := store.IDs()

	assert.Subset(t, larger, smaller)
	assert.Len(t, larger, len(smaller)+1)
}

func TestSelectFirst_Idempotent(t *testing.T) {
	f := newFakeFetcher(12, 50)
	b, store := newTestSelector(t, f, DefaultBulkConfig(12))

	_, err := b.SelectFirst(context.Background(), 25, 50)
	require.NoError(t, err)
	first := store.IDs()

	_, err = b.SelectFirst(context.Background(), 25, 50)
	require.NoError(t, err)

	assert.Equal(t, first, store.IDs())
}

func TestSelectFirst_FailureLeavesStoreUntouched(t *testing.T) {
	f := newFakeFetcher(12, 100)
	f.failPages = map[int]error{
		2: &catalog.Error{Class: catalog.ErrorClassNetwork, Message: "connection reset"},
	}
	b, store := newTestSelector(t, f, DefaultBulkConfig(12))
	store.SelectPage([]int64{777, 888})
	before := store.IDs()

	_, err := b.SelectFirst(context.Background(), 30, 100)
	require.Error(t, err)
	assert.True(t, catalog.IsNetwork(err))
	assert.Equal(t, before, store.IDs(), "failed bulk must not partially apply")
}

func TestSelectFirst_ConcurrencyBound(t *testing.T) {
	f := newFakeFetcher(5, 500)
	f.delay = 5 * time.Millisecond
	b, store := newTestSelector(t, f, BulkConfig{PageSize: 5, Concurrency: 3, Cap: 1000})

	n, err := b.SelectFirst(context.Background(), 100, 500)
	require.NoError(t, err)

	assert.Equal(t, 100, n)
	assert.Equal(t, prefixIDs(100), store.IDs())
	assert.LessOrEqual(t, f.maxInFlight, 3, "never more than C fetches outstanding")
	assert.Len(t, f.fetchedPages(), 20)
}

func TestSelectFirst_StaleResultDiscarded(t *testing.T) {
	f := newFakeFetcher(12, 50)
	gate := make(chan struct{})
	waiting := make(chan struct{})
	f.gate = gate
	f.waiting = waiting
	b, store := newTestSelector(t, f, DefaultBulkConfig(12))

	var (
		wg       sync.WaitGroup
		staleN   int
		staleErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		staleN, staleErr = b.SelectFirst(context.Background(), 24, 50)
	}()

	// Wait until the first operation is blocked mid-fetch, then run a
	// newer one to completion.
	<-waiting
	assert.True(t, b.Busy())

	f.mu.Lock()
	f.gate = nil
	f.mu.Unlock()

	n, err := b.SelectFirst(context.Background(), 5, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	// Release the stale operation; its result must be discarded.
	close(gate)
	wg.Wait()

	assert.ErrorIs(t, staleErr, ErrSuperseded)
	assert.Equal(t, 5, staleN, "stale call reports the store size it left alone")
	assert.Equal(t, prefixIDs(5), store.IDs())
	assert.False(t, b.Busy())
}

func TestBindPage(t *testing.T) {
	store := NewStore()
	store.SelectPage([]int64{2, 3})

	page := &catalog.Page{
		Number: 1,
		Items: []catalog.Item{
			{ID: 1, Title: "a"},
			{ID: 2, Title: "b"},
			{ID: 3, Title: "c"},
		},
	}

	rows := BindPage(page, store)
	require.Len(t, rows, 3)
	assert.False(t, rows[0].Selected)
	assert.True(t, rows[1].Selected)
	assert.True(t, rows[2].Selected)

	assert.Nil(t, BindPage(nil, store))
}
