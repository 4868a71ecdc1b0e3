package console

import (
	"github.com/charmbracelet/lipgloss"

	"bookkeeper/internal/services"
)

// Styles holds the colours used when drawing lists.
type Styles struct {
	Title   lipgloss.Style
	Index   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Overrun lipgloss.Style
	Prompt  lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		Index:   lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
		Overrun: lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")).Bold(true),
		Prompt:  lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true),
	}
}

func (s Styles) status(st services.Status) lipgloss.Style {
	switch st {
	case services.StatusWarning:
		return s.Warning
	case services.StatusOverrun:
		return s.Overrun
	default:
		return lipgloss.NewStyle()
	}
}
