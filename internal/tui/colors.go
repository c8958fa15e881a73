package tui

// Color constants for the bitelog TUI theme
const (
	ColorBorder = "#3A3F55" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E6EAF2" // Primary text (labels, values, titles)
	ColorSecondaryText = "#B1B8C7" // Secondary text
	ColorDisabledText  = "#6D7383" // Disabled/muted text
	ColorHelpText      = "240"     // Dark grey for help text

	// Accent Colors
	ColorAccentMain   = "#7C3AED" // Accent elements, active borders
	ColorAccentBright = "#A78BFA" // Highlights, clock

	// State Colors
	ColorRecording = "#EF4444" // Recording indicator, errors
	ColorSuccess   = "#22C55E" // Motion connected, saved
	ColorWarning   = "#F59E0B" // Paused, alerts
)

// categoryColor returns the accent used for a category name.
func categoryColor(name string) string {
	switch name {
	case "eating":
		return ColorSuccess
	case "not-eating":
		return ColorWarning
	default:
		return ColorSecondaryText
	}
}
