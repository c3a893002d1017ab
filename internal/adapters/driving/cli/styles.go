package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/triage/internal/core/domain"
)

// palette is the colour set used for terminal output.
type palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

func defaultPalette() palette {
	return palette{
		Primary:   lipgloss.Color("#7C3AED"), // Purple
		Secondary: lipgloss.Color("#06B6D4"), // Cyan
		Muted:     lipgloss.Color("#6C7086"), // Medium gray
		Success:   lipgloss.Color("#A6E3A1"), // Green
		Warning:   lipgloss.Color("#F9E2AF"), // Yellow
		Error:     lipgloss.Color("#F38BA8"), // Red
	}
}

// styles contains pre-configured lipgloss styles.
type styles struct {
	palette palette

	Title   lipgloss.Style
	Label   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(p palette) *styles {
	return &styles{
		palette: p,
		Title:   lipgloss.NewStyle().Bold(true).Foreground(p.Primary),
		Label:   lipgloss.NewStyle().Bold(true).Foreground(p.Secondary),
		Muted:   lipgloss.NewStyle().Foreground(p.Muted),
		Success: lipgloss.NewStyle().Foreground(p.Success),
		Warning: lipgloss.NewStyle().Foreground(p.Warning),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(p.Error),
	}
}

var ui = newStyles(defaultPalette())

// Agent returns the badge style for an agent kind.
func (s *styles) Agent(kind domain.AgentKind) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	switch kind {
	case domain.AgentRetrieval:
		return base.Foreground(s.palette.Success)
	case domain.AgentWeb:
		return base.Foreground(s.palette.Secondary)
	case domain.AgentPaper:
		return base.Foreground(s.palette.Primary)
	default:
		return base.Foreground(s.palette.Muted)
	}
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
