package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	Header   lipgloss.Style
	Board    lipgloss.Style
	Panel    lipgloss.Style
	Active   lipgloss.Style
	Muted    lipgloss.Style
	Agent    lipgloss.Style
	Obstacle lipgloss.Style
	Mark     lipgloss.Style
	Success  lipgloss.Style
	Danger   lipgloss.Style
}

func defaultTheme() theme {
	accent := lipgloss.Color("#2dd4bf")
	secondary := lipgloss.Color("#7D7D7D")
	success := lipgloss.Color("#4ade80")
	alert := lipgloss.Color("#fbbf24")
	danger := lipgloss.Color("#FF0055")

	return theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Board: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1),
		Active: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(alert).
			Padding(0, 1),
		Muted: lipgloss.NewStyle().
			Foreground(secondary),
		Agent: lipgloss.NewStyle().
			Bold(true).
			Foreground(alert),
		Obstacle: lipgloss.NewStyle().
			Foreground(secondary),
		Mark: lipgloss.NewStyle().
			Foreground(accent),
		Success: lipgloss.NewStyle().
			Foreground(success),
		Danger: lipgloss.NewStyle().
			Foreground(danger),
	}
}

func (t theme) cell(role cellRole) lipgloss.Style {
	switch role {
	case cellAgent:
		return t.Agent
	case cellObstacle:
		return t.Obstacle
	case cellMark:
		return t.Mark
	default:
		return t.Muted
	}
}
