package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeVersion(&buf))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "segcoalesce CLI\n"))
	assert.Contains(t, out, "  Version: dev\n")
	assert.Contains(t, out, "    sqlite     v1\n")
	assert.Contains(t, out, "    mysql      v1\n")
	assert.Contains(t, out, "    postgresql v1\n")
	assert.Contains(t, out, "  Default DB: ")
}
