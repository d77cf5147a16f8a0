// Package region classifies addresses against a process's memory map and
// buckets live variables by the region they live in.
package region

import (
	"github.com/ehrlich-b/memviz/internal/typelayout"
	"github.com/ehrlich-b/memviz/internal/vmmap"
)

// LocateResult is the outcome of locating an expression: its storage
// address is always meaningful; its value address only when the
// expression's type is a pointer.
type LocateResult struct {
	Type          string
	Value         string
	StorageAddr   uint64
	StorageRegion string
	IsPointer     bool
	ValueAddr     uint64
	ValueRegion   string
	ValueIsNull   bool
}

// Locate implements §4.7's expression-locate rule.
func Locate(regions []vmmap.Region, typ, value string, storageAddr uint64, valueAddr *uint64) LocateResult {
	res := LocateResult{
		Type:          typ,
		Value:         value,
		StorageAddr:   storageAddr,
		StorageRegion: vmmap.ClassifyAddress(regions, storageAddr),
	}
	if valueAddr == nil {
		return res
	}
	res.IsPointer = true
	res.ValueAddr = *valueAddr
	res.ValueIsNull = *valueAddr == 0
	if !res.ValueIsNull {
		res.ValueRegion = vmmap.ClassifyAddress(regions, *valueAddr)
	} else {
		res.ValueRegion = "NULL"
	}
	return res
}

// HeapObject is a heap allocation reached through a local pointer.
type HeapObject struct {
	Via  string
	Type string
	Addr uint64
}

// Variable is one live binding to bucket: a global or a local.
type Variable struct {
	Name      string
	Type      string
	IsPointer bool
	Value     string
	ValueAddr uint64
}

// Bucket holds the globals, locals, and heap objects attributed to one
// region label.
type Bucket struct {
	Label       vmmap.Label
	Globals     []Variable
	Locals      []Variable
	HeapObjects []HeapObject
}

// bucketOrder is the fixed emission order §4.7 requires.
var bucketOrder = []vmmap.Label{
	vmmap.LabelData,
	vmmap.LabelStack,
	vmmap.LabelHeap,
	vmmap.LabelText,
	vmmap.LabelLib,
	vmmap.LabelAnonymous,
	vmmap.LabelOther,
}

// BucketLiveVariables groups globals and locals by the region label their
// storage address falls in, and additionally records a heap-object entry
// for every local pointer whose value lies in the Heap region.
func BucketLiveVariables(regions []vmmap.Region, globals, locals []Variable, storageAddrOf map[string]uint64) []Bucket {
	byLabel := make(map[vmmap.Label]*Bucket)
	get := func(l vmmap.Label) *Bucket {
		if b, ok := byLabel[l]; ok {
			return b
		}
		b := &Bucket{Label: l}
		byLabel[l] = b
		return b
	}
	for _, g := range globals {
		addr := storageAddrOf[g.Name]
		region, ok := vmmap.Locate(regions, addr)
		label := vmmap.LabelOther
		if ok {
			label = region.Label
		}
		b := get(label)
		b.Globals = append(b.Globals, g)
	}
	for _, l := range locals {
		addr := storageAddrOf[l.Name]
		region, ok := vmmap.Locate(regions, addr)
		label := vmmap.LabelOther
		if ok {
			label = region.Label
		}
		b := get(label)
		b.Locals = append(b.Locals, l)

		if l.IsPointer {
			if heapRegion, ok := vmmap.Locate(regions, l.ValueAddr); ok && heapRegion.Label == vmmap.LabelHeap {
				hb := get(vmmap.LabelHeap)
				hb.HeapObjects = append(hb.HeapObjects, HeapObject{
					Via:  l.Name,
					Type: typelayout.StripPointerSuffix(l.Type),
					Addr: l.ValueAddr,
				})
			}
		}
	}

	var out []Bucket
	for _, label := range bucketOrder {
		if b, ok := byLabel[label]; ok {
			out = append(out, *b)
		}
	}
	return out
}
