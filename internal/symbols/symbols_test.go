package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexGroupsByFile(t *testing.T) {
	idx := NewIndex()
	idx.Add(GlobalInfo{Name: "counter", TypeName: "int", File: "main.c"})
	idx.Add(GlobalInfo{Name: "errno_copy", TypeName: "int", File: "main.c"})
	idx.Add(GlobalInfo{Name: "tick", TypeName: "long", File: "clock.c"})

	mainGlobals := idx.ForFile("main.c")
	require.Len(t, mainGlobals, 2)
	assert.Equal(t, "counter", mainGlobals[0].Name)
	assert.Equal(t, "errno_copy", mainGlobals[1].Name)

	clockGlobals := idx.ForFile("clock.c")
	require.Len(t, clockGlobals, 1)
	assert.Equal(t, "tick", clockGlobals[0].Name)
}

func TestIndexForUnknownFileReturnsNil(t *testing.T) {
	idx := NewIndex()
	assert.Nil(t, idx.ForFile("nope.c"))
}
