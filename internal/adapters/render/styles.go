package render

import "github.com/charmbracelet/lipgloss"

var (
	colorIris  = lipgloss.Color("#5D3FD3")
	colorSlate = lipgloss.Color("#667085")
	colorWhite = lipgloss.Color("#FFFFFF")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Background(colorIris).
			Foreground(colorWhite)

	sectionStyle = lipgloss.NewStyle().
			Foreground(colorIris).
			Bold(true)

	phaseStyle = lipgloss.NewStyle().
			Foreground(colorSlate)

	includedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Green

	omittedStyle = lipgloss.NewStyle().
			Foreground(colorSlate).
			Faint(true)

	advisoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Orange
)
