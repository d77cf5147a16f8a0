package repl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/memviz/internal/mi"
)

func TestSplitVerb(t *testing.T) {
	verb, rest := splitVerb("mem buf 16")
	assert.Equal(t, "mem", verb)
	assert.Equal(t, "buf 16", rest)

	verb, rest = splitVerb("locals")
	assert.Equal(t, "locals", verb)
	assert.Equal(t, "", rest)
}

func TestParseExprAndOptionalLen(t *testing.T) {
	expr, n, err := parseExprAndOptionalLen("buf 16")
	require.NoError(t, err)
	assert.Equal(t, "buf", expr)
	assert.Equal(t, 16, n)

	expr, n, err = parseExprAndOptionalLen("node->next")
	require.NoError(t, err)
	assert.Equal(t, "node->next", expr)
	assert.Equal(t, 0, n)

	_, _, err = parseExprAndOptionalLen("")
	assert.Error(t, err)
}

func TestParseExprAndOptionalLenTrailingWordNotNumeric(t *testing.T) {
	expr, n, err := parseExprAndOptionalLen("some expr")
	require.NoError(t, err)
	assert.Equal(t, "some expr", expr)
	assert.Equal(t, 0, n)
}

func TestPrintStoppedWithLine(t *testing.T) {
	fn, file, line := "main", "main.c", 12
	var buf bytes.Buffer
	printStopped(&buf, mi.StoppedLocation{Func: &fn, File: &file, Line: &line})
	assert.Equal(t, "stopped in main at main.c:12\n", buf.String())
}

func TestPrintStoppedWithoutLine(t *testing.T) {
	var buf bytes.Buffer
	printStopped(&buf, mi.StoppedLocation{})
	assert.Equal(t, "stopped in ? at ?\n", buf.String())
}
