package tui

import "github.com/charmbracelet/lipgloss"

// Color constants for the tock theme
const (
	ColorBorder = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2" // Task names, user input
	ColorSecondaryText = "#B1B8C7" // Categories, totals
	ColorDisabledText  = "#6D7383" // Ids, stopped timers
	ColorPlaceholder   = "#B1B8C7"
	ColorHelpText      = "240" // Dark grey for help text

	// Accent Colors (Purple theme)
	ColorAccentMain   = "#7C3AED" // Logo, active borders
	ColorAccentBright = "#A78BFA" // Selection, group headers

	// State Colors
	ColorError   = "#EF4444"
	ColorRunning = "#22C55E"
	ColorPaused  = "#F59E0B"
)

var (
	nameStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	secondaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	runningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRunning)).Bold(true)
	pausedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPaused))
	groupStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain)).Bold(true)
)
