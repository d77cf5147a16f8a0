// Package present renders the data model as text: the hex+ASCII memory
// dump, struct/array layout tables, VM region listings, and the
// \0-collapsing value prettifier the REPL and TUI both call through.
package present

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ehrlich-b/memviz/internal/mi"
	"github.com/ehrlich-b/memviz/internal/typelayout"
	"github.com/ehrlich-b/memviz/internal/vmmap"
)

// MemoryDump renders a MemoryDump as header lines followed by a word-chunked
// hex+ASCII body.
func MemoryDump(d mi.MemoryDump) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", d.Expr)
	fmt.Fprintf(&b, "  address: %s\n", d.Address)
	fmt.Fprintf(&b, "  size: %d bytes (%d words)\n", len(d.Bytes), wordCount(len(d.Bytes), d.WordSize))
	archStr := "unknown"
	if d.Arch != nil {
		archStr = *d.Arch
	}
	fmt.Fprintf(&b, "  layout: %s, %s\n", d.Endian, archStr)
	if d.TruncatedFrom != nil {
		fmt.Fprintf(&b, "  truncated from %d bytes\n", *d.TruncatedFrom)
	}
	b.WriteString(MemoryBody(d.Bytes, d.WordSize))
	return b.String()
}

func wordCount(n, wordSize int) int {
	if wordSize <= 0 {
		wordSize = 1
	}
	return (n + wordSize - 1) / wordSize
}

// MemoryBody renders the word-chunked hex+ASCII body of a byte dump: each
// line is "  +0x%04x: <hex bytes> | ascii=\"...\"", with ".." standing in
// for missing trailing bytes in a short final chunk.
func MemoryBody(bytes []byte, wordSize int) string {
	if wordSize <= 0 {
		wordSize = 1
	}
	var b strings.Builder
	for offset := 0; offset < len(bytes); offset += wordSize {
		end := offset + wordSize
		if end > len(bytes) {
			end = len(bytes)
		}
		chunk := bytes[offset:end]
		fmt.Fprintf(&b, "  +0x%04x: ", offset)
		for i := 0; i < wordSize; i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			if i < len(chunk) {
				fmt.Fprintf(&b, "%02x", chunk[i])
			} else {
				b.WriteString("..")
			}
		}
		b.WriteString(" | ascii=\"")
		for i := 0; i < wordSize; i++ {
			if i < len(chunk) {
				b.WriteByte(asciiRepr(chunk[i]))
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteString("\"\n")
	}
	return b.String()
}

func asciiRepr(c byte) byte {
	if c >= 0x20 && c <= 0x7e {
		return c
	}
	return '.'
}

// Layout renders a TypeLayout as a header + one row per field/element.
func Layout(layout typelayout.TypeLayout) string {
	var b strings.Builder
	switch l := layout.(type) {
	case typelayout.Struct:
		fmt.Fprintf(&b, "struct %s (size %d)\n", l.Name, l.ByteSize)
		for _, f := range l.Fields {
			fmt.Fprintf(&b, "  +0x%04x  size=%-4d  %-20s %s\n", f.Offset, f.ByteSize, f.Name, typelayout.NormalizeTypeName(f.TypeName))
		}
	case typelayout.Array:
		fmt.Fprintf(&b, "array of %s[%d] (size %d)\n", l.ElementType, l.Length, l.ByteSize)
		for i := 0; i < l.Length; i++ {
			fmt.Fprintf(&b, "  +0x%04x  [%d]  %s\n", i*l.ElementSize, i, l.ElementType)
		}
	case typelayout.Scalar:
		fmt.Fprintf(&b, "type=%s size=%d\n", l.TypeName, l.ByteSize)
	}
	return b.String()
}

// VMRegions renders a region listing: label, range, human-readable size,
// permissions, and pathname (with friendly collapse for heap/stack).
func VMRegions(regions []vmmap.Region) string {
	var b strings.Builder
	for _, r := range regions {
		fmt.Fprintf(&b, "%-8s 0x%012x-0x%012x %8s %s %s\n",
			r.Label, r.Start, r.End, FormatSize(r.Size()), r.Perms, formatRegionDesc(r))
	}
	return b.String()
}

func formatRegionDesc(r vmmap.Region) string {
	switch r.Label {
	case vmmap.LabelHeap:
		return "[heap]"
	case vmmap.LabelStack:
		return "[stack]"
	default:
		return r.Pathname
	}
}

// FormatSize renders a byte count using base-1024 B/KB/MB/GB units with one
// decimal place above the smallest unit.
func FormatSize(n uint64) string {
	const unit = 1024.0
	f := float64(n)
	switch {
	case f < unit:
		return fmt.Sprintf("%dB", n)
	case f < unit*unit:
		return fmt.Sprintf("%.1fKB", f/unit)
	case f < unit*unit*unit:
		return fmt.Sprintf("%.1fMB", f/(unit*unit))
	default:
		return fmt.Sprintf("%.1fGB", f/(unit*unit*unit))
	}
}

var (
	reRepeatsForm = regexp.MustCompile(`'\\0+' <repeats (\d+) times>`)
	reRawRun      = regexp.MustCompile(`(?:\\000|\\0){2,}`)
	reRawToken    = regexp.MustCompile(`\\000|\\0`)
)

// PrettifyValue collapses the debugger's own "'\000' <repeats N times>"
// annotation and any contiguous raw \0/\000 run into a compact "\0 (xN)"
// form. Repeats of any other character are left as they are.
func PrettifyValue(v string) string {
	v = reRepeatsForm.ReplaceAllString(v, `\0 (x$1)`)
	v = reRawRun.ReplaceAllStringFunc(v, func(run string) string {
		count := len(reRawToken.FindAllString(run, -1))
		return fmt.Sprintf(`\0 (x%d)`, count)
	})
	return v
}
