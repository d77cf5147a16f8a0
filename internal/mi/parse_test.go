package mi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusDone, ParseStatus("^done,foo=\"bar\"").Kind)
	assert.Equal(t, StatusRunning, ParseStatus("^running").Kind)

	errStatus := ParseStatus(`^error,msg="No symbol \"nope\" in current context."`)
	assert.Equal(t, StatusError, errStatus.Kind)
	assert.Contains(t, errStatus.Msg, "No symbol")

	other := ParseStatus("=thread-group-added,id=\"i1\"")
	assert.Equal(t, StatusOther, other.Kind)
}

func TestParseUsize(t *testing.T) {
	n, err := ParseUsize("0x10")
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	n, err = ParseUsize("32")
	require.NoError(t, err)
	assert.Equal(t, 32, n)

	_, err = ParseUsize("not-a-number")
	assert.Error(t, err)
}

func TestParseLocals(t *testing.T) {
	record := `^done,locals=[{name="x",type="int",value="1"},{name="s",type="char *",value="foo"}]`
	locals := ParseLocals(record)
	require.Len(t, locals, 2)
	assert.Equal(t, "x", locals[0].Name)
	require.NotNil(t, locals[0].Type)
	assert.Equal(t, "int", *locals[0].Type)
	require.NotNil(t, locals[0].Value)
	assert.Equal(t, "1", *locals[0].Value)

	assert.Equal(t, "s", locals[1].Name)
	require.NotNil(t, locals[1].Type)
	assert.Equal(t, "char *", *locals[1].Type)
}

func TestParseLocalsMissingFields(t *testing.T) {
	record := `^done,locals=[{name="y"}]`
	locals := ParseLocals(record)
	require.Len(t, locals, 1)
	assert.Equal(t, "y", locals[0].Name)
	assert.Nil(t, locals[0].Type)
	assert.Nil(t, locals[0].Value)
}

func TestParseMemoryContentsBytesField(t *testing.T) {
	record := `^done,memory=[{begin="0x7fff0000",bytes="aabbccdd"}]`
	b, err := ParseMemoryContents(record)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, b)
}

func TestParseMemoryContentsOddLengthFails(t *testing.T) {
	record := `^done,memory=[{begin="0x0",bytes="abc"}]`
	_, err := ParseMemoryContents(record)
	assert.Error(t, err)
}

func TestParseMemoryContentsContentsQuoted(t *testing.T) {
	record := `^done,contents="aa bb cc dd"`
	b, err := ParseMemoryContents(record)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd}, b)
}

func TestParseMemoryContentsDataList(t *testing.T) {
	record := `^done,data=["0xaa","0xbb","0xcc"]`
	b, err := ParseMemoryContents(record)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb, 0xcc}, b)
}

func TestParseMemoryContentsMissing(t *testing.T) {
	_, err := ParseMemoryContents("^done,foo=\"bar\"")
	assert.Error(t, err)
}

func TestParseStoppedLocation(t *testing.T) {
	line := `*stopped,reason="breakpoint-hit",func="main",file="main.c",fullname="/tmp/main.c",line="12",arch="i386:x86-64"`
	loc := ParseStoppedLocation(line)
	require.NotNil(t, loc.Func)
	assert.Equal(t, "main", *loc.Func)
	require.NotNil(t, loc.Line)
	assert.Equal(t, 12, *loc.Line)
	require.NotNil(t, loc.Arch)
	assert.Equal(t, "i386:x86-64", *loc.Arch)
}

func TestParseBreakpoint(t *testing.T) {
	res := `^done,bkpt={number="1",type="breakpoint",file="main.c",line="5",func="main"}`
	bp := ParseBreakpoint(res)
	assert.Equal(t, uint32(1), bp.Number)
	require.NotNil(t, bp.Line)
	assert.Equal(t, 5, *bp.Line)
}

func TestParseEndian(t *testing.T) {
	assert.Equal(t, EndianLittle, ParseEndian("The target is little endian."))
	assert.Equal(t, EndianBig, ParseEndian("The target is big endian."))
	assert.Equal(t, EndianUnknown, ParseEndian("auto"))
}

func TestGuessEndianFromArch(t *testing.T) {
	e, ok := GuessEndianFromArch("i386:x86-64")
	assert.True(t, ok)
	assert.Equal(t, EndianLittle, e)

	_, ok = GuessEndianFromArch("totally-unknown")
	assert.False(t, ok)
}

func TestParseSymbolGroups(t *testing.T) {
	res := `^done,symbols={debug=[{filename="main.c",fullname="/tmp/main.c",symbols=[{name="counter",type="int",line="3",description="int counter;"}]}],nondebug=[]}`
	debug, nondebug := ParseSymbolGroups(res)
	require.Len(t, debug, 1)
	assert.Equal(t, "main.c", debug[0].Filename)
	require.Len(t, debug[0].Symbols, 1)
	assert.Equal(t, "counter", debug[0].Symbols[0].Name)
	assert.Empty(t, nondebug)
}
