package output

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces a visually appealing output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatTable(r))
	w.WriteString(f.formatFooter(r))

	if len(r.Unreadable) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatUnreadable(r))
	}

	return nil
}

// formatHeader builds the header box with audit metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	rootLabel := LabelStyle.Render("Root:")
	rootValue := ValueStyle.Render(r.Root)
	lines = append(lines, fmt.Sprintf("%s %s", rootLabel, rootValue))

	var infoParts []string

	if r.Baseline {
		infoParts = append(infoParts, ModifiedStyle.Bold(true).Render("baseline run"))
	} else {
		baseLabel := LabelStyle.Render("Baseline:")
		baseValue := MutedStyle.Render(r.PreviousManifest)
		infoParts = append(infoParts, fmt.Sprintf("%s %s", baseLabel, baseValue))
	}

	scannedLabel := LabelStyle.Render("Scanned:")
	scannedValue := ValueStyle.Render(fmt.Sprintf("%d files in %s",
		r.FilesScanned, formatDuration(r.Duration)))
	infoParts = append(infoParts, fmt.Sprintf("%s %s", scannedLabel, scannedValue))

	lines = append(lines, strings.Join(infoParts, "  "))

	content := strings.Join(lines, "\n")
	return HeaderBox.Render(content)
}

// formatTable builds the drift table with STATUS, SIZE, and PATH columns.
func (f *PrettyFormatter) formatTable(r *Result) string {
	rows := r.visibleRows()
	if len(rows) == 0 {
		if r.ChangesOnly {
			return MutedStyle.Render("  No drift detected\n")
		}
		return MutedStyle.Render("  No files found\n")
	}

	var sb strings.Builder

	statusHeader := TableHeaderStyle.Render("STATUS")
	sizeHeader := TableHeaderStyle.Render("SIZE")
	pathHeader := TableHeaderStyle.Render("PATH")
	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", statusHeader, sizeHeader, pathHeader))

	// Calculate max size width for alignment
	maxSizeWidth := 0
	for _, row := range rows {
		if len(row.SizeHuman) > maxSizeWidth {
			maxSizeWidth = len(row.SizeHuman)
		}
	}
	if maxSizeWidth < 8 {
		maxSizeWidth = 8 // Minimum width
	}

	for _, row := range rows {
		statusStr := statusStyle(row.Status).Render(padRight(row.Status, 9))
		sizeStr := ValueStyle.Render(padLeft(row.SizeHuman, maxSizeWidth))
		pathStr := PathStyle.Render(row.Path)
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", statusStr, sizeStr, pathStr))
	}

	return sb.String()
}

// formatFooter builds the footer box with the classification summary.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Unchanged:"),
		UnchangedStyle.Render(fmt.Sprintf("%d", r.Counts.Unchanged))))
	parts = append(parts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Modified:"),
		ModifiedStyle.Render(fmt.Sprintf("%d", r.Counts.Modified))))
	parts = append(parts, fmt.Sprintf("%s %s",
		LabelStyle.Render("New:"),
		NewStyle.Render(fmt.Sprintf("%d", r.Counts.New))))
	parts = append(parts, fmt.Sprintf("%s %s",
		LabelStyle.Render("Missing:"),
		MissingStyle.Render(fmt.Sprintf("%d", r.Counts.Missing))))

	if r.Counts.Unreadable > 0 {
		parts = append(parts, fmt.Sprintf("%s %s",
			LabelStyle.Render("Unreadable:"),
			ErrorStyle.Render(fmt.Sprintf("%d", r.Counts.Unreadable))))
	}

	if r.Drifted {
		parts = append(parts, ModifiedStyle.Bold(true).Render("drift detected"))
	} else if !r.Baseline {
		parts = append(parts, UnchangedStyle.Render("no drift"))
	}

	content := strings.Join(parts, "  ")
	return FooterBox.Render(content)
}

// formatUnreadable builds a block listing files that could not be hashed.
func (f *PrettyFormatter) formatUnreadable(r *Result) string {
	var lines []string

	lines = append(lines, ErrorStyle.Bold(true).Render("Unreadable files:"))
	for _, fe := range r.Unreadable {
		lines = append(lines, ErrorStyle.Render("  "+fe.Path)+MutedStyle.Render("  "+fe.Err))
	}

	return ErrorBox.Render(strings.Join(lines, "\n"))
}

// padLeft pads a string with spaces on the left to achieve the desired width.
func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

// padRight pads a string with spaces on the right to achieve the desired width.
func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// formatDuration formats a time.Duration as a human-friendly string.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
