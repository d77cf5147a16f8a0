package typelayout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nodePType = `type = struct Node {
/*    0      |     4 */    int id;
/*    4      |     4 */    int count;
/*    8      |    16 */    char name[16];
/*   24      |     8 */    struct Node *next;

                           /* total size (bytes):   32 */
}`

func TestParsePTypeAnnotatedStruct(t *testing.T) {
	layout := ParsePType(nodePType, 0, 8)
	st, ok := layout.(Struct)
	require.True(t, ok)
	assert.Equal(t, "Node", st.Name)
	assert.Equal(t, 32, st.ByteSize)
	require.Len(t, st.Fields, 4)

	wantOffsets := []int{0, 4, 8, 24}
	wantSizes := []int{4, 4, 16, 8}
	wantNames := []string{"id", "count", "name", "next"}
	for i, f := range st.Fields {
		assert.Equal(t, wantOffsets[i], f.Offset, "field %d offset", i)
		assert.Equal(t, wantSizes[i], f.ByteSize, "field %d size", i)
		assert.Equal(t, wantNames[i], f.Name, "field %d name", i)
	}

	link, ok := FindLinkField(st)
	require.True(t, ok)
	assert.Equal(t, "next", link.Name)
	assert.Equal(t, 24, link.Offset)
}

func TestParsePTypeArray(t *testing.T) {
	layout := ParsePType("type = int [10]", 0, 8)
	arr, ok := layout.(Array)
	require.True(t, ok)
	assert.Equal(t, "int", arr.ElementType)
	assert.Equal(t, 4, arr.ElementSize)
	assert.Equal(t, 10, arr.Length)
	assert.Equal(t, 40, arr.ByteSize)
}

func TestParsePTypeScalarFallback(t *testing.T) {
	layout := ParsePType("type = int", 4, 8)
	sc, ok := layout.(Scalar)
	require.True(t, ok)
	assert.Equal(t, "int", sc.TypeName)
	assert.Equal(t, 4, sc.ByteSize)
}

func TestParsePTypeStructWithoutTotalSizeComputesFromMaxOffset(t *testing.T) {
	text := `type = struct Small {
/*    0      |     4 */    int a;
/*    4      |     4 */    int b;
}`
	layout := ParsePType(text, 0, 8)
	st, ok := layout.(Struct)
	require.True(t, ok)
	assert.Equal(t, 8, st.ByteSize)
}

func TestParsePTypeStructSkipsBitfieldAndHoleAnnotations(t *testing.T) {
	text := `type = struct Flags {
/*    0      |     4 */    int a;
/*  XXX      |     4 */    int : 4;
/*    4: 4   |     4 */    int b : 4;

                           /* total size (bytes):    8 */
}`
	layout := ParsePType(text, 0, 8)
	st, ok := layout.(Struct)
	require.True(t, ok)
	require.Len(t, st.Fields, 1)
	assert.Equal(t, "a", st.Fields[0].Name)
}

func TestFindLinkFieldPrefersNamedNext(t *testing.T) {
	st := Struct{Fields: []FieldLayout{
		{Name: "parent", TypeName: "struct Node *"},
		{Name: "next", TypeName: "struct Node *"},
	}}
	link, ok := FindLinkField(st)
	require.True(t, ok)
	assert.Equal(t, "next", link.Name)
}

func TestFindLinkFieldFallsBackToFirstPointer(t *testing.T) {
	st := Struct{Fields: []FieldLayout{
		{Name: "id", TypeName: "int"},
		{Name: "parent", TypeName: "struct Node *"},
	}}
	link, ok := FindLinkField(st)
	require.True(t, ok)
	assert.Equal(t, "parent", link.Name)
}

func TestFindLinkFieldNoneWhenNoPointerFields(t *testing.T) {
	st := Struct{Fields: []FieldLayout{{Name: "id", TypeName: "int"}}}
	_, ok := FindLinkField(st)
	assert.False(t, ok)
}

func TestBaseSize(t *testing.T) {
	cases := []struct {
		typeName string
		wordSize int
		want     int
	}{
		{"int *", 8, 8},
		{"char", 8, 1},
		{"short", 8, 2},
		{"int", 8, 4},
		{"unsigned int", 8, 4},
		{"long long", 8, 8},
		{"long", 8, 8},
		{"long", 4, 4},
		{"float", 8, 4},
		{"double", 8, 8},
		{"struct Node", 8, 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BaseSize(c.typeName, c.wordSize), c.typeName)
	}
}

func TestIsPointerType(t *testing.T) {
	assert.True(t, IsPointerType("struct Node *"))
	assert.False(t, IsPointerType("int"))
	assert.False(t, IsPointerType("int *[4]"))
}

func TestStripPointerSuffix(t *testing.T) {
	assert.Equal(t, "struct Node", StripPointerSuffix("struct Node *"))
	assert.Equal(t, "int", StripPointerSuffix("int"))
}

func TestNormalizeTypeNameIdempotent(t *testing.T) {
	in := "int [10]"
	once := NormalizeTypeName(in)
	twice := NormalizeTypeName(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, "int[10]", once)
}

func TestNormalizePointerTypeIdempotent(t *testing.T) {
	in := "struct Node *"
	once := NormalizePointerType(in)
	twice := NormalizePointerType(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, "struct Node*", once)
}
