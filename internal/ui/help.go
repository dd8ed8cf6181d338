package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"

	"autosuggest/internal/ui/views"
)

// renderHelpContent renders the help information
func renderHelpContent(styles *views.Styles, minLength int) string {
	var help strings.Builder

	line := func(keys, desc string) {
		help.WriteString(fmt.Sprintf("  %-14s %s\n", styles.HelpKey.Render(keys), styles.HelpDesc.Render(desc)))
	}

	help.WriteString(styles.HelpTitle.Render("autosuggest help"))
	help.WriteString("\n")

	help.WriteString(styles.HelpSection.Render("Typing"))
	help.WriteString("\n")
	help.WriteString(fmt.Sprintf("  Suggestions appear once the input has %d or more characters.\n", minLength))
	line("Esc", "Close the suggestion list")
	help.WriteString("\n")

	help.WriteString(styles.HelpSection.Render("Navigation"))
	help.WriteString("\n")
	line("↓, Tab", "Highlight the next suggestion (past the last clears the highlight)")
	line("↑, Shift+Tab", "Highlight the previous suggestion (from none jumps to the last)")
	line("Mouse", "Hover to highlight, click to select")
	help.WriteString("\n")

	help.WriteString(styles.HelpSection.Render("Selection"))
	help.WriteString("\n")
	line("Enter", "Select the highlighted suggestion, or submit the input")
	help.WriteString("\n")

	help.WriteString(styles.HelpSection.Render("Other"))
	help.WriteString("\n")
	line("F1", "Show this help")
	line("Ctrl+C", "Quit without a value")

	return help.String()
}

// HelpOps handles help operations
type HelpOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewHelpOps creates a new help operations instance
func NewHelpOps(program *tea.Program) *HelpOps {
	return &HelpOps{
		program: program,
	}
}

// ShowHelpInPager shows help content using ov pager
func (h *HelpOps) ShowHelpInPager(helpContent string) error {
	if h == nil || h.program == nil {
		return fmt.Errorf("program not set")
	}

	// Release terminal control to run ov
	if err := h.program.ReleaseTerminal(); err != nil {
		return err
	}

	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = h.program.RestoreTerminal()
	}()

	root, err := oviewer.NewRoot(strings.NewReader(helpContent))
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}

// fetchHelpPager returns a command that shows help using ov pager
func (m *Model) fetchHelpPager() tea.Cmd {
	content := renderHelpContent(m.styles, m.cfg.MinLength)
	ops := m.helpOps
	return func() tea.Msg {
		return helpPagerMsg{err: ops.ShowHelpInPager(content)}
	}
}
