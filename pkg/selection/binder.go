package selection

import "github.com/catalogkit/catalog-client/pkg/catalog"

// Row pairs an item with its current selection flag for rendering.
type Row struct {
	catalog.Item
	Selected bool `json:"selected"`
}

// BindPage cross-references a loaded page against the store and returns
// per-row rows in page order. The rendering layer consumes this; nothing
// here mutates state.
func BindPage(page *catalog.Page, store *Store) []Row {
	if page == nil {
		return nil
	}
	rows := make([]Row, len(page.Items))
	for i, item := range page.Items {
		rows[i] = Row{Item: item, Selected: store.IsSelected(item.ID)}
	}
	return rows
}
