package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the pane chrome and text styles for the TUI. Colors follow
// the same 256-color palette the REPL's host terminal already assumes.
type Theme struct {
	PaneBorder         lipgloss.Style
	FocusedPaneBorder  lipgloss.Style
	PaneTitle          lipgloss.Style
	StatusBar          lipgloss.Style
	HeapColor          lipgloss.Color
	StackColor         lipgloss.Color
	TextColor          lipgloss.Color
	DataColor          lipgloss.Color
	SelectedSymbol     lipgloss.Style
	ErrorText          lipgloss.Style
}

func DefaultTheme() Theme {
	return Theme{
		PaneBorder: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")),

		FocusedPaneBorder: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")),

		PaneTitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),

		HeapColor:  lipgloss.Color("76"),
		StackColor: lipgloss.Color("214"),
		TextColor:  lipgloss.Color("39"),
		DataColor:  lipgloss.Color("141"),

		SelectedSymbol: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("39")),

		ErrorText: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}
}
