// Package catalog defines the data model and fetch contract for a remote,
// paginated item collection.
package catalog

import "context"

// Item is one element of the remote collection. Display attributes are
// carried for rendering but selection logic only ever uses ID.
type Item struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Price    float64 `json:"price,omitempty"`
}

// Page is one fixed-size batch of items returned by a single fetch.
// Number is 1-based. TotalRecords is the collection size as reported
// by the server at fetch time.
type Page struct {
	Number       int    `json:"page"`
	Items        []Item `json:"items"`
	TotalRecords int64  `json:"total"`
}

// IDs returns the identifiers of the page's items in page order.
func (p *Page) IDs() []int64 {
	ids := make([]int64, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.ID
	}
	return ids
}

// PageFetcher retrieves one page of the collection. The page size is fixed
// configuration of the fetcher and shared by every call. A fetch is
// all-or-nothing: on error the returned page is nil.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (*Page, error)
}

// FetchFunc adapts a plain function to the PageFetcher interface.
type FetchFunc func(ctx context.Context, page int) (*Page, error)

// FetchPage implements PageFetcher.
func (f FetchFunc) FetchPage(ctx context.Context, page int) (*Page, error) {
	return f(ctx, page)
}
