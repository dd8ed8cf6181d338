package views

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"autosuggest/internal/suggest"
)

const minPanelWidth = 12

// Panel renders the suggestion list beneath the anchor input.
// It implements suggest.Surface.
type Panel struct {
	styles      *Styles
	rows        []suggest.Row
	visible     bool
	highlighted int
	width       int
	x, y        int
	generation  int
}

var _ suggest.Surface = (*Panel)(nil)

// NewPanel creates a hidden panel of the given outer width
func NewPanel(styles *Styles, width int) *Panel {
	p := &Panel{styles: styles, highlighted: -1}
	p.SetWidth(width)
	return p
}

// ShowRows replaces the displayed rows and shows the panel
func (p *Panel) ShowRows(rows []suggest.Row) {
	p.rows = rows
	p.visible = true
	p.generation++
}

// Hide hides the panel
func (p *Panel) Hide() {
	p.visible = false
	p.generation++
}

// HighlightRow marks the row at index. Only one row is highlighted at a time.
func (p *Panel) HighlightRow(index int) {
	p.highlighted = index
}

// ClearRowHighlight removes the row highlight
func (p *Panel) ClearRowHighlight() {
	p.highlighted = -1
}

// Place anchors the panel's top-left corner at a screen cell
func (p *Panel) Place(x, y int) {
	p.x = x
	p.y = y
}

// SetWidth sets the outer width, border included
func (p *Panel) SetWidth(width int) {
	if width < minPanelWidth {
		width = minPanelWidth
	}
	p.width = width
}

func (p *Panel) Visible() bool       { return p.visible }
func (p *Panel) Rows() []suggest.Row { return p.rows }
func (p *Panel) Highlighted() int    { return p.highlighted }
func (p *Panel) Width() int          { return p.width }

// Generation changes every time the rows are replaced or hidden
func (p *Panel) Generation() int { return p.generation }

// contentWidth is the space left for a label inside border and padding
func (p *Panel) contentWidth() int {
	return p.width - p.styles.Panel.GetHorizontalFrameSize()
}

// View renders the panel, or nothing when hidden
func (p *Panel) View() string {
	if !p.visible || len(p.rows) == 0 {
		return ""
	}

	inner := p.contentWidth()
	lines := make([]string, len(p.rows))
	for i, row := range p.rows {
		label := runewidth.Truncate(row.Label, inner, "…")
		label = runewidth.FillRight(label, inner)
		if i == p.highlighted {
			lines[i] = p.styles.HighlightRow.Render(label)
		} else {
			lines[i] = p.styles.Row.Render(label)
		}
	}

	return p.styles.Panel.Render(strings.Join(lines, "\n"))
}

// Contains reports whether a screen cell falls inside the visible panel
func (p *Panel) Contains(x, y int) bool {
	if !p.visible || len(p.rows) == 0 {
		return false
	}
	height := len(p.rows) + p.styles.Panel.GetVerticalFrameSize()
	return x >= p.x && x < p.x+p.width && y >= p.y && y < p.y+height
}

// RowAt maps a screen cell to a row index
func (p *Panel) RowAt(x, y int) (int, bool) {
	if !p.Contains(x, y) {
		return -1, false
	}
	left := p.x + p.styles.Panel.GetBorderLeftSize()
	right := p.x + p.width - p.styles.Panel.GetBorderRightSize()
	if x < left || x >= right {
		return -1, false
	}
	index := y - p.y - p.styles.Panel.GetBorderTopSize()
	if index < 0 || index >= len(p.rows) {
		return -1, false
	}
	return index, true
}
