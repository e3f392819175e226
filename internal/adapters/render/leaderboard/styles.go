package leaderboard

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	rank       lipgloss.Style
	subject    lipgloss.Style
	positive   lipgloss.Style
	negative   lipgloss.Style
	neutral    lipgloss.Style
	meta       lipgloss.Style
	empty      lipgloss.Style
	barBracket lipgloss.Style
	barUp      lipgloss.Style
	barDown    lipgloss.Style
	barEmpty   lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		rank:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		subject:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		positive:   lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		negative:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		neutral:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		meta:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		empty:      lipgloss.NewStyle().Faint(true),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barUp:      lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		barDown:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		barEmpty:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	}
}
