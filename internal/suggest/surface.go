package suggest

import "autosuggest/internal/domain"

// Row is one rendered suggestion handed to the surface
type Row struct {
	Label string
	Item  domain.Item
}

// Surface is the panel that displays suggestions beneath the anchor input.
// Positioning is the surface's own concern.
type Surface interface {
	ShowRows(rows []Row)
	Hide()
	HighlightRow(index int)
	ClearRowHighlight()
}
