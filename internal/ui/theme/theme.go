package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette: indigo and purple accents on slate.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#A855F7") // Purple
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#10B981") // Emerald
	Error     = lipgloss.Color("#F87171") // Red
	Text      = lipgloss.Color("#E2E8F0") // Slate 200
	TextDim   = lipgloss.Color("#94A3B8") // Slate 400
	BgDark    = lipgloss.Color("#0F172A") // Slate 900
	BgCard    = lipgloss.Color("#1E293B") // Slate 800
	Border    = lipgloss.Color("#334155") // Slate 700
)

// Difficulty colors for practice problems.
var (
	Easy   = lipgloss.Color("#34D399")
	Medium = lipgloss.Color("#FBBF24")
	Hard   = lipgloss.Color("#F87171")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Link = lipgloss.NewStyle().
		Foreground(Secondary).
		Underline(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Done = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error)

	Notice = lipgloss.NewStyle().
		Foreground(Success)
)

// Components
var (
	ProgressFilled = lipgloss.NewStyle().
			Background(Secondary)

	ProgressEmpty = lipgloss.NewStyle().
			Background(Border)
)
