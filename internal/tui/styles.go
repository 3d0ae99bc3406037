package tui

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor   = "#7C3AED" // Purple
	secondaryColor = "#10B981" // Green
	warningColor   = "#F59E0B" // Amber
	errorColor     = "#EF4444" // Red
	dimColor       = "#6B7280" // Gray
	textColor      = "#E5E7EB"
)

var (
	// BoxStyle provides a rounded border box with primary color.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 1)

	// TitleStyle renders titles in primary color with bold.
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	// InterviewerStyle renders the interviewer's turns.
	InterviewerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(textColor)).
				Bold(true)

	// CandidateStyle renders the candidate's turns.
	CandidateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	// DimStyle renders dim/muted text.
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	// SuccessStyle renders success messages in green.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	// ErrorStyle renders error messages in red.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	// WarningStyle renders warning messages in amber.
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor))

	// StatusBarStyle provides styling for the status bar.
	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(lipgloss.Color("#9CA3AF")).
			Padding(0, 1)

	// RecordingStyle marks an active dictation.
	RecordingStyle = lipgloss.NewStyle().
			Background(lipgloss.Color(errorColor)).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)
)

// Session state badges (pre-rendered strings).
var (
	BadgeIdle     = DimStyle.Render("○ idle")
	BadgeActive   = SuccessStyle.Render("▸ live")
	BadgeEnded    = WarningStyle.Render("■ ended")
	BadgeReported = SuccessStyle.Render("✓ reported")
)
