// Package manifest persists inventories as durable, versioned, delimited
// text files and reads them back.
//
// A manifest is a CSV document. The first record identifies the format and
// carries the snapshot identity (run ID, root, capture time); the second
// is the column header; every following record is one file, in relative
// path order. RFC 4180 quoting gives a deterministic escape rule for
// delimiters, quotes, and newlines inside paths, so encoding the same
// inventory twice produces byte-identical output.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jamesainslie/drift/pkg/drift/digest"
	"github.com/jamesainslie/drift/pkg/drift/types"
)

const (
	// FormatMagic is the first field of every manifest, identifying the
	// file as one of ours.
	FormatMagic = "drift-manifest"

	// FormatVersion is the current manifest format version.
	FormatVersion = "1"

	// timeLayout is the encoding used for all timestamps in a manifest.
	timeLayout = time.RFC3339Nano
)

// columnHeader is the fixed second record of every manifest.
var columnHeader = []string{"relative_path", "content_digest", "size_bytes", "modified_at"}

// ErrUnsupportedVersion indicates a manifest written by a newer format
// version than this build understands.
var ErrUnsupportedVersion = errors.New("unsupported manifest version")

// ParseError describes a malformed manifest. It always names the line at
// which decoding failed: corruption must surface loudly, never as a
// silently truncated inventory that looks like an emptied folder.
type ParseError struct {
	// Line is the 1-based line number of the offending record.
	Line int

	// Msg describes the problem.
	Msg string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("manifest line %d: %s", e.Line, e.Msg)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Encode writes inv to w in manifest format. Records are emitted in the
// inventory's sorted order; per-file errors are snapshot diagnostics, not
// content, and are not serialized.
func Encode(w io.Writer, inv *types.Inventory) error {
	cw := csv.NewWriter(w)

	header := []string{
		FormatMagic,
		FormatVersion,
		inv.RunID,
		inv.Root,
		inv.CapturedAt.UTC().Format(timeLayout),
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}
	if err := cw.Write(columnHeader); err != nil {
		return fmt.Errorf("write column header: %w", err)
	}

	for _, rec := range inv.Records {
		row := []string{
			rec.RelativePath,
			rec.Digest,
			strconv.FormatInt(rec.Size, 10),
			rec.ModTime.UTC().Format(timeLayout),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record %s: %w", rec.RelativePath, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Decode parses a manifest from r and rebuilds the inventory it describes.
// Any malformed record aborts decoding with a ParseError identifying the
// offending line.
func Decode(r io.Reader) (*types.Inventory, error) {
	cr := csv.NewReader(r)
	// Field counts are validated per record below for precise errors.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Msg: "empty manifest"}
	}
	if err != nil {
		return nil, &ParseError{Line: 1, Msg: "unreadable header", Err: err}
	}
	if len(header) != 5 || header[0] != FormatMagic {
		return nil, &ParseError{Line: 1, Msg: fmt.Sprintf("not a %s file", FormatMagic)}
	}
	if header[1] != FormatVersion {
		return nil, &ParseError{
			Line: 1,
			Msg:  fmt.Sprintf("version %q", header[1]),
			Err:  ErrUnsupportedVersion,
		}
	}
	runID := header[2]
	root := header[3]
	capturedAt, err := time.Parse(timeLayout, header[4])
	if err != nil {
		return nil, &ParseError{Line: 1, Msg: "invalid capture time", Err: err}
	}

	columns, err := cr.Read()
	if err != nil {
		return nil, &ParseError{Line: lineOf(err, 2), Msg: "missing column header", Err: err}
	}
	if !equalFields(columns, columnHeader) {
		line, _ := cr.FieldPos(0)
		return nil, &ParseError{Line: line, Msg: fmt.Sprintf("unexpected column header %v", columns)}
	}

	var records []types.FileRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Line: lineOf(err, 0), Msg: "malformed record", Err: err}
		}
		line, _ := cr.FieldPos(0)
		if len(row) != len(columnHeader) {
			return nil, &ParseError{
				Line: line,
				Msg:  fmt.Sprintf("expected %d fields, found %d", len(columnHeader), len(row)),
			}
		}

		rec, err := parseRecord(row)
		if err != nil {
			return nil, &ParseError{Line: line, Msg: "malformed record", Err: err}
		}
		records = append(records, rec)
	}

	inv, err := types.NewInventory(root, runID, capturedAt, records, nil)
	if err != nil {
		return nil, &ParseError{Line: 1, Msg: "inconsistent manifest", Err: err}
	}
	return inv, nil
}

// parseRecord converts one data row into a FileRecord.
func parseRecord(row []string) (types.FileRecord, error) {
	relPath := row[0]
	if relPath == "" {
		return types.FileRecord{}, errors.New("empty relative path")
	}

	dig := row[1]
	if !digest.IsValid(dig) {
		return types.FileRecord{}, fmt.Errorf("invalid content digest %q", dig)
	}

	size, err := strconv.ParseInt(row[2], 10, 64)
	if err != nil {
		return types.FileRecord{}, fmt.Errorf("invalid size %q: %w", row[2], err)
	}
	if size < 0 {
		return types.FileRecord{}, fmt.Errorf("negative size %d", size)
	}

	modTime, err := time.Parse(timeLayout, row[3])
	if err != nil {
		return types.FileRecord{}, fmt.Errorf("invalid modified time %q: %w", row[3], err)
	}

	return types.FileRecord{
		RelativePath: relPath,
		Digest:       dig,
		Size:         size,
		ModTime:      modTime,
	}, nil
}

// lineOf extracts the line number from a csv parse error, falling back to
// the given default.
func lineOf(err error, fallback int) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		return pe.Line
	}
	return fallback
}

// equalFields compares two string slices element-wise.
func equalFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
