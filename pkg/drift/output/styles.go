package output

import "github.com/charmbracelet/lipgloss"

// Color constants using ANSI 256-color palette.
// These provide a consistent color scheme across all formatters.
const (
	// ColorPrimary is used for primary elements like headers (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for unchanged files and positive status (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for modified files and warnings (orange/yellow).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for missing files and errors (red).
	ColorDanger = lipgloss.Color("196")

	// ColorInfo is used for new files (cyan).
	ColorInfo = lipgloss.Color("51")

	// ColorMuted is used for less important or secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Box styles for containing grouped content.
var (
	// HeaderBox is the style for the header section containing audit info.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox is the style for the footer section containing summary info.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)

	// ErrorBox is the style for the unreadable-files section.
	ErrorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDanger).
			Padding(0, 1).
			MarginTop(1)
)

// Text styles for various content types.
var (
	// TitleStyle is used for major section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// LabelStyle is used for field labels (e.g., "Root:", "Files:").
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// ValueStyle is used for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// UnchangedStyle is used for unchanged status text.
	UnchangedStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ModifiedStyle is used for modified status text.
	ModifiedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// NewStyle is used for new-file status text.
	NewStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	// MissingStyle is used for missing-file status text.
	MissingStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	// ErrorStyle is used for error text.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	// MutedStyle is used for less important text.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// PathStyle is used for file paths.
	PathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))
)

// Table styles for tabular data display.
var (
	// TableHeaderStyle is used for table column headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMuted).
				BorderBottom(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorMuted).
				PaddingRight(2)

	// TableRowStyle is used for table data rows.
	TableRowStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// statusStyle returns the text style for a classification name.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case "unchanged":
		return UnchangedStyle
	case "modified":
		return ModifiedStyle
	case "new":
		return NewStyle
	case "missing":
		return MissingStyle
	default:
		return MutedStyle
	}
}
