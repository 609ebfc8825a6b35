package main

import "github.com/charmbracelet/lipgloss"

var (
	subtle = lipgloss.Color("#a6adc8")
	accent = lipgloss.Color("#74c7ec")
	warm   = lipgloss.Color("#fab387")
	good   = lipgloss.Color("#a6e3a1")
	edge   = lipgloss.Color("#45475a")

	titleStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(subtle)
	hotStyle    = lipgloss.NewStyle().Foreground(warm).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(good)
	headerStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(edge)
)
