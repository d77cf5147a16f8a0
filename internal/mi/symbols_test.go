package mi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBalancedSkipsQuotedBraces(t *testing.T) {
	s := `{name="a{b}c",type="int"}`
	end := findBalanced(s, 0)
	require.Equal(t, len(s)-1, end)
}

func TestSplitTopLevelBlocksIgnoresNested(t *testing.T) {
	s := `{name="x",description="a { nested } thing"},{name="y"}`
	blocks := splitTopLevelBlocks(s)
	require.Len(t, blocks, 2)
	assert.Contains(t, blocks[0], `name="x"`)
	assert.Contains(t, blocks[1], `name="y"`)
}

func TestExtractBracketField(t *testing.T) {
	s := `symbols=[{name="a"},{name="b"}],other="x"`
	inner, ok := extractBracketField(s, "symbols")
	require.True(t, ok)
	assert.Equal(t, `{name="a"},{name="b"}`, inner)

	_, ok = extractBracketField(s, "missing")
	assert.False(t, ok)
}

func TestParseSymbolGroupsNondebug(t *testing.T) {
	res := `^done,symbols={debug=[],nondebug=[{filename="libc.so",fullname="/lib/libc.so",symbols=[{name="errno",type="int"}]}]}`
	debug, nondebug := ParseSymbolGroups(res)
	assert.Empty(t, debug)
	require.Len(t, nondebug, 1)
	assert.Equal(t, "libc.so", nondebug[0].Filename)
	require.Len(t, nondebug[0].Symbols, 1)
	assert.Equal(t, "errno", nondebug[0].Symbols[0].Name)
}

func TestParseSymbolEntryWithDescription(t *testing.T) {
	entry := parseSymbolEntry(`name="counter",type="int",line="4",description="int counter;"`)
	assert.Equal(t, "counter", entry.Name)
	require.NotNil(t, entry.Type)
	assert.Equal(t, "int", *entry.Type)
	require.NotNil(t, entry.Line)
	assert.Equal(t, 4, *entry.Line)
	require.NotNil(t, entry.Description)
	assert.Equal(t, "int counter;", *entry.Description)
}
