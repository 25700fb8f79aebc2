package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestYAMLFormatter_Format(t *testing.T) {
	formatter := &YAMLFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, testResult())
	require.NoError(t, err)

	var decoded Result
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "/audit/root", decoded.Root)
	assert.True(t, decoded.Drifted)
	assert.Equal(t, Counts{Unchanged: 1, Modified: 1, New: 1, Missing: 1, Unreadable: 1}, decoded.Counts)
	require.Len(t, decoded.Rows, 4)
	assert.Equal(t, "added.txt", decoded.Rows[0].Path)
	assert.Equal(t, "new", decoded.Rows[0].Status)
}

func TestYAMLFormatter_EmptyResult(t *testing.T) {
	formatter := &YAMLFormatter{}
	var buf bytes.Buffer

	require.NoError(t, formatter.Format(&buf, &Result{Root: "/root"}))
	assert.Contains(t, buf.String(), "root: /root")
}
