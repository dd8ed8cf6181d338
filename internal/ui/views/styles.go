package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Prompt       lipgloss.Style
	Panel        lipgloss.Style
	Row          lipgloss.Style
	HighlightRow lipgloss.Style
	Status       lipgloss.Style
	StatusBusy   lipgloss.Style
	StatusEmpty  lipgloss.Style
	Selected     lipgloss.Style
	Dim          lipgloss.Style
	HelpTitle    lipgloss.Style
	HelpSection  lipgloss.Style
	HelpKey      lipgloss.Style
	HelpDesc     lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1),
		Row:          lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		HighlightRow: lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Background(lipgloss.Color("238")).Bold(true),
		Status:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		StatusBusy:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		StatusEmpty:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Selected:     lipgloss.NewStyle().Foreground(lipgloss.Color("78")),  // green
		Dim:          lipgloss.NewStyle().Faint(true),
		HelpTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		HelpSection: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginTop(1),
		HelpKey:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		HelpDesc: lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}
