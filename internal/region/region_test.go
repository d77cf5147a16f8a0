package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/memviz/internal/vmmap"
)

func sampleRegions() []vmmap.Region {
	return []vmmap.Region{
		{Start: 0x1000, End: 0x2000, Label: vmmap.LabelStack},
		{Start: 0x3000, End: 0x4000, Label: vmmap.LabelHeap},
		{Start: 0x5000, End: 0x6000, Label: vmmap.LabelData},
	}
}

func TestLocatePointerIntoHeap(t *testing.T) {
	regions := sampleRegions()
	valueAddr := uint64(0x3100)
	res := Locate(regions, "struct Node *", "0x3100", 0x1500, &valueAddr)

	assert.True(t, res.IsPointer)
	assert.Equal(t, "[stack]", res.StorageRegion)
	assert.Equal(t, "[heap]", res.ValueRegion)
	assert.False(t, res.ValueIsNull)
}

func TestLocateNullPointer(t *testing.T) {
	regions := sampleRegions()
	valueAddr := uint64(0)
	res := Locate(regions, "struct Node *", "0x0", 0x1500, &valueAddr)

	assert.True(t, res.IsPointer)
	assert.True(t, res.ValueIsNull)
	assert.Equal(t, "NULL", res.ValueRegion)
}

func TestLocateNonPointer(t *testing.T) {
	regions := sampleRegions()
	res := Locate(regions, "int", "1", 0x1500, nil)
	assert.False(t, res.IsPointer)
	assert.Equal(t, "[stack]", res.StorageRegion)
}

func TestBucketLiveVariablesOrderAndHeapAttribution(t *testing.T) {
	regions := sampleRegions()
	globals := []Variable{{Name: "g", Type: "int", ValueAddr: 0}}
	locals := []Variable{
		{Name: "x", Type: "int", Value: "1"},
		{Name: "head", Type: "struct Node *", IsPointer: true, ValueAddr: 0x3100},
	}
	storageAddrOf := map[string]uint64{
		"g":    0x5500,
		"x":    0x1100,
		"head": 0x1200,
	}

	buckets := BucketLiveVariables(regions, globals, locals, storageAddrOf)
	require.NotEmpty(t, buckets)

	// bucketOrder is Data, Stack, Heap, Text, Lib, Anonymous, Other; only
	// populated buckets are emitted, so Data then Stack then Heap here.
	require.Len(t, buckets, 3)
	assert.Equal(t, vmmap.LabelData, buckets[0].Label)
	assert.Equal(t, vmmap.LabelStack, buckets[1].Label)
	assert.Equal(t, vmmap.LabelHeap, buckets[2].Label)

	require.Len(t, buckets[0].Globals, 1)
	assert.Equal(t, "g", buckets[0].Globals[0].Name)

	require.Len(t, buckets[1].Locals, 2)

	require.Len(t, buckets[2].HeapObjects, 1)
	assert.Equal(t, "head", buckets[2].HeapObjects[0].Via)
	assert.Equal(t, "struct Node", buckets[2].HeapObjects[0].Type)
	assert.Equal(t, uint64(0x3100), buckets[2].HeapObjects[0].Addr)
}

func TestBucketLiveVariablesNoHeapAttributionWhenPointerNotIntoHeap(t *testing.T) {
	regions := sampleRegions()
	locals := []Variable{
		{Name: "sp", Type: "int *", IsPointer: true, ValueAddr: 0x1100},
	}
	storageAddrOf := map[string]uint64{"sp": 0x1300}

	buckets := BucketLiveVariables(regions, nil, locals, storageAddrOf)
	require.Len(t, buckets, 1)
	assert.Equal(t, vmmap.LabelStack, buckets[0].Label)
	assert.Empty(t, buckets[0].HeapObjects)
}
