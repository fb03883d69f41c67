package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette the chat is drawn with.
type Theme struct {
	Brand     lipgloss.Color
	Highlight lipgloss.Color
	Tool      lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color

	Text  lipgloss.Color
	Dim   lipgloss.Color
	Muted lipgloss.Color
}

// DefaultTheme returns the default palette.
func DefaultTheme() Theme {
	return Theme{
		Brand:     lipgloss.Color("#0EA5E9"), // Sky
		Highlight: lipgloss.Color("#A78BFA"), // Violet
		Tool:      lipgloss.Color("#FBBF24"), // Amber

		Success: lipgloss.Color("#22C55E"),
		Warning: lipgloss.Color("#F97316"),
		Error:   lipgloss.Color("#F43F5E"),

		Text:  lipgloss.Color("#E5E7EB"),
		Dim:   lipgloss.Color("#94A3B8"),
		Muted: lipgloss.Color("#64748B"),
	}
}

// Styles groups the rendered pieces of the chat screen.
type Styles struct {
	App         lipgloss.Style
	BannerTitle lipgloss.Style
	Prompt      lipgloss.Style

	UserMessage      lipgloss.Style
	AssistantMessage lipgloss.Style
	SystemMessage    lipgloss.Style

	// One box per tool call, labelled with its step.
	ToolBox     lipgloss.Style
	ToolName    lipgloss.Style
	ToolParams  lipgloss.Style
	ToolOutput  lipgloss.Style
	ToolSuccess lipgloss.Style
	ToolError   lipgloss.Style
	Iteration   lipgloss.Style

	SafetyNote lipgloss.Style
	StatsLine  lipgloss.Style

	StatusText lipgloss.Style
	StateLabel lipgloss.Style
	HelpKey    lipgloss.Style
	HelpValue  lipgloss.Style
	HelpBar    lipgloss.Style
}

// NewStyles derives the screen styles from a theme.
func NewStyles(t Theme) Styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	indented := func(c lipgloss.Color) lipgloss.Style { return fg(c).PaddingLeft(2) }

	return Styles{
		App:         lipgloss.NewStyle().Padding(1, 2),
		BannerTitle: fg(t.Brand).Bold(true),
		Prompt:      fg(t.Highlight).Bold(true),

		UserMessage:      indented(t.Highlight).Bold(true),
		AssistantMessage: indented(t.Text),
		SystemMessage:    indented(t.Muted).Italic(true),

		ToolBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderTop(false).
			BorderRight(false).
			BorderBottom(false).
			BorderForeground(t.Tool).
			PaddingLeft(1).
			MarginLeft(2),
		ToolName:    fg(t.Tool).Bold(true),
		ToolParams:  fg(t.Dim),
		ToolOutput:  fg(t.Text).PaddingLeft(1),
		ToolSuccess: fg(t.Success),
		ToolError:   fg(t.Error).Bold(true),
		Iteration:   fg(t.Muted),

		SafetyNote: indented(t.Warning).Italic(true),
		StatsLine:  indented(t.Muted),

		StatusText: fg(t.Dim),
		StateLabel: fg(t.Brand).Bold(true),
		HelpKey:    fg(t.Dim).Bold(true),
		HelpValue:  fg(t.Muted),
		HelpBar:    fg(t.Muted).MarginTop(1),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() Styles {
	return NewStyles(DefaultTheme())
}

// Banner returns the start-up banner.
func Banner() string {
	return `
  ██████╗ ██████╗  █████╗ ██╗███╗   ██╗██╗  ██╗ █████╗ ███╗   ██╗██████╗ ███████╗
  ██╔══██╗██╔══██╗██╔══██╗██║████╗  ██║██║  ██║██╔══██╗████╗  ██║██╔══██╗██╔════╝
  ██████╔╝██████╔╝███████║██║██╔██╗ ██║███████║███████║██╔██╗ ██║██║  ██║███████╗
  ██╔══██╗██╔══██╗██╔══██║██║██║╚██╗██║██╔══██║██╔══██║██║╚██╗██║██║  ██║╚════██║
  ██████╔╝██║  ██║██║  ██║██║██║ ╚████║██║  ██║██║  ██║██║ ╚████║██████╔╝███████║
  ╚═════╝ ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═══╝╚═════╝ ╚══════╝

                 one decision, one tool, until the answer is in`
}
