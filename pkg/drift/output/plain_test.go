package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFormatter_Format(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, testResult())
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "modified")
	assert.Contains(t, out, "edited.txt")
	assert.Contains(t, out, "missing")
	assert.Contains(t, out, "gone.txt")
	assert.Contains(t, out, "unreadable")
	assert.Contains(t, out, "locked.txt")
	assert.Contains(t, out, "unchanged=1 modified=1 new=1 missing=1 unreadable=1")

	// No ANSI escapes in plain output.
	assert.NotContains(t, out, "\x1b[")
}

func TestPlainFormatter_ChangesOnly(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	r := testResult()
	r.ChangesOnly = true
	err := formatter.Format(&buf, r)
	require.NoError(t, err)
	out := buf.String()

	assert.NotContains(t, out, "same.txt")
	assert.Contains(t, out, "edited.txt")
	// Counts still report the hidden rows.
	assert.Contains(t, out, "unchanged=1")
}

func TestPlainFormatter_EmptyResult(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, &Result{Root: "/root"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Contains(t, lines[0], "STATUS")
}
