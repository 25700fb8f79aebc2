package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple tab-separated table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	// Use tabwriter for aligned columns
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("STATUS\tSIZE\tPATH\n")); err != nil {
		return err
	}

	for _, row := range r.visibleRows() {
		line := row.Status + "\t" + row.SizeHuman + "\t" + row.Path + "\n"
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}

	for _, fe := range r.Unreadable {
		line := "unreadable\t-\t" + fe.Path + "\n"
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nunchanged=%d modified=%d new=%d missing=%d unreadable=%d\n",
		r.Counts.Unchanged, r.Counts.Modified, r.Counts.New,
		r.Counts.Missing, r.Counts.Unreadable)

	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
