// Package pagination converts between flat row offsets and 1-based remote
// page indices. All functions are pure; nothing here performs I/O.
package pagination

// PageForOffset returns the 1-based page index containing the given
// 0-based row offset.
//
// Examples:
//   - Offset 0, PageSize 12 -> Page 1
//   - Offset 12, PageSize 12 -> Page 2
//   - Offset 23, PageSize 12 -> Page 2
func PageForOffset(offset, pageSize int) int {
	if offset < 0 {
		offset = 0
	}
	return offset/pageSize + 1
}

// PageCount returns the number of pages needed to hold totalRecords items.
// Returns 0 when the collection is empty.
func PageCount(totalRecords int64, pageSize int) int {
	if totalRecords <= 0 {
		return 0
	}
	return int((totalRecords + int64(pageSize) - 1) / int64(pageSize))
}

// ClampOffset restricts offset to the valid range for the known total:
// [0, max(0, pageCount-1) * pageSize]. Offsets beyond the collection are
// clamped to the start of the last page rather than rejected.
func ClampOffset(offset int, totalRecords int64, pageSize int) int {
	if offset < 0 {
		return 0
	}
	last := (PageCount(totalRecords, pageSize) - 1) * pageSize
	if last < 0 {
		last = 0
	}
	if offset > last {
		return last
	}
	return offset
}

// State tracks the visible window into the collection.
type State struct {
	// Offset is the 0-based index of the first visible row.
	Offset int

	// PageSize is fixed for the lifetime of a session.
	PageSize int

	// TotalRecords is the collection size from the most recent fetch.
	TotalRecords int64
}

// NewState creates a state positioned at the first page.
func NewState(pageSize int) State {
	return State{PageSize: pageSize}
}

// Page returns the 1-based page index for the current offset.
func (s State) Page() int {
	return PageForOffset(s.Offset, s.PageSize)
}

// PageCount returns the total number of pages for the known total.
func (s State) PageCount() int {
	return PageCount(s.TotalRecords, s.PageSize)
}

// Next advances one page, clamped to the last page.
func (s State) Next() State {
	s.Offset = ClampOffset(s.Offset+s.PageSize, s.TotalRecords, s.PageSize)
	return s
}

// Prev moves back one page, clamped to the first page.
func (s State) Prev() State {
	s.Offset = ClampOffset(s.Offset-s.PageSize, s.TotalRecords, s.PageSize)
	return s
}

// JumpToPage positions the window at the given 1-based page.
func (s State) JumpToPage(page int) State {
	if page < 1 {
		page = 1
	}
	s.Offset = ClampOffset((page-1)*s.PageSize, s.TotalRecords, s.PageSize)
	return s
}

// WithTotal records a freshly fetched total and re-clamps the offset so the
// window never points past the end of a shrunken collection.
func (s State) WithTotal(totalRecords int64) State {
	s.TotalRecords = totalRecords
	s.Offset = ClampOffset(s.Offset, totalRecords, s.PageSize)
	return s
}
