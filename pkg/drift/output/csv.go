package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// CSVFormatter formats output as comma-separated values with a header row.
// One row per audited path, suitable for spreadsheet import.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	cw := csv.NewWriter(w)

	header := []string{"status", "path", "digest", "previous_digest", "size_bytes", "modified_at"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range r.Rows {
		modTime := ""
		if !row.ModTime.IsZero() {
			modTime = row.ModTime.UTC().Format(time.RFC3339Nano)
		}
		record := []string{
			row.Status,
			row.Path,
			row.Digest,
			row.PreviousDigest,
			strconv.FormatInt(row.Size, 10),
			modTime,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	for _, fe := range r.Unreadable {
		record := []string{"unreadable", fe.Path, "", "", "", ""}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)
