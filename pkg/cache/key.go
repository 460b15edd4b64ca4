package cache

import (
	"fmt"
	"strings"
)

// Key uniquely identifies a cached catalog page.
type Key struct {
	// Query is the collection query scoping the session ("" for the full
	// catalog).
	Query string

	// Page is the 1-based page index.
	Page int

	// PerPage is the fixed page size.
	PerPage int
}

// String generates a deterministic cache key string.
// Format: catalog:q=<query>:page=<n>:per=<size>
//
// Example:
//
//	catalog:q=shoes:page=3:per=12
func (k Key) String() string {
	parts := []string{"catalog"}

	if k.Query != "" {
		parts = append(parts, fmt.Sprintf("q=%s", k.Query))
	}
	parts = append(parts,
		fmt.Sprintf("page=%d", k.Page),
		fmt.Sprintf("per=%d", k.PerPage),
	)

	return strings.Join(parts, ":")
}
