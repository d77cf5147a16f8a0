package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaneIDNextCyclesThroughAllFour(t *testing.T) {
	seen := map[PaneID]bool{}
	p := PaneSource
	for i := 0; i < 4; i++ {
		seen[p] = true
		p = p.next()
	}
	assert.Len(t, seen, 4)
	assert.Equal(t, PaneSource, p, "cycle returns to start after 4 steps")
}

func TestPaneIDString(t *testing.T) {
	assert.Equal(t, "Source", PaneSource.String())
	assert.Equal(t, "VM Canvas", PaneVmCanvas.String())
	assert.Equal(t, "Symbols", PaneSymbols.String())
	assert.Equal(t, "Detail", PaneDetail.String())
}
