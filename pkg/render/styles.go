// Package render turns explorer state and catalog records into terminal text
// and machine-readable output for the CLI.
package render

import "github.com/charmbracelet/lipgloss"

var (
	indigo = lipgloss.Color("#4F46E5")
	slate  = lipgloss.Color("#64748B")
	rose   = lipgloss.Color("#E11D48")
	amber  = lipgloss.Color("#D97706")
	teal   = lipgloss.Color("#0D9488")
)

// Styles groups the lipgloss styles used by the text renderer.
type Styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Chip    lipgloss.Style
	Rank    lipgloss.Style
	Banner  lipgloss.Style
	Link    lipgloss.Style
	Saved   lipgloss.Style
	Card    lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(indigo),
		Heading: lipgloss.NewStyle().Bold(true).Underline(true),
		Muted:   lipgloss.NewStyle().Foreground(slate),
		Chip:    lipgloss.NewStyle().Foreground(teal),
		Rank:    lipgloss.NewStyle().Bold(true).Foreground(amber),
		Banner:  lipgloss.NewStyle().Bold(true).Foreground(rose),
		Link:    lipgloss.NewStyle().Underline(true).Foreground(indigo),
		Saved:   lipgloss.NewStyle().Bold(true).Foreground(rose),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(slate).
			Padding(0, 1),
	}
}

// PlainStyles returns styles with no decoration, for pipes and tests.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Title:   plain,
		Heading: plain,
		Muted:   plain,
		Chip:    plain,
		Rank:    plain,
		Banner:  plain,
		Link:    plain,
		Saved:   plain,
		Card:    plain,
	}
}
