// Package vmmap reads and classifies a process's memory map, grounding
// memviz's heap/stack/text/data distinctions on the kernel's own
// accounting rather than heuristics over pointer values.
package vmmap

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Label tags a Region by what kind of memory it holds.
type Label int

const (
	LabelOther Label = iota
	LabelHeap
	LabelStack
	LabelAnonymous
	LabelLib
	LabelText
	LabelData
)

// String returns the short bracketed tag used in presenter output.
func (l Label) String() string {
	switch l {
	case LabelHeap:
		return "[heap]"
	case LabelStack:
		return "[stack]"
	case LabelAnonymous:
		return "[anon]"
	case LabelLib:
		return "[lib]"
	case LabelText:
		return "[text]"
	case LabelData:
		return "[data]"
	default:
		return "[other]"
	}
}

// Region is one line of a process's memory map.
type Region struct {
	Start    uint64
	End      uint64
	Perms    string
	Pathname string
	Label    Label
}

// Size returns the region's byte extent.
func (r Region) Size() uint64 { return r.End - r.Start }

// Contains reports start <= addr < end.
func (r Region) Contains(addr uint64) bool {
	return r.Start <= addr && addr < r.End
}

// ReadProcMaps parses the memory-map file for pid, skipping malformed or
// zero/negative-extent lines rather than failing the whole read.
func ReadProcMaps(pid int) ([]Region, error) {
	// A signal-0 kill checks liveness without actually signaling the
	// inferior, so a stale pid reports a clear "process not running"
	// instead of a generic file-open error.
	if err := unix.Kill(pid, 0); err != nil {
		return nil, fmt.Errorf("inferior process %d not running: %w", pid, err)
	}
	path := fmt.Sprintf("/proc/%d/maps", pid)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var regions []Region
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		region, ok := parseMapLine(line)
		if !ok {
			continue
		}
		regions = append(regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return regions, nil
}

// parseMapLine parses one "start-end perms offset dev inode pathname?"
// line. dev/inode/offset are consumed but not retained.
func parseMapLine(line string) (Region, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Region{}, false
	}
	addrs := strings.SplitN(fields[0], "-", 2)
	if len(addrs) != 2 {
		return Region{}, false
	}
	start, err1 := strconv.ParseUint(addrs[0], 16, 64)
	end, err2 := strconv.ParseUint(addrs[1], 16, 64)
	if err1 != nil || err2 != nil || start >= end {
		return Region{}, false
	}
	perms := fields[1]
	pathname := ""
	if len(fields) >= 6 {
		pathname = strings.Join(fields[5:], " ")
	}
	return Region{
		Start:    start,
		End:      end,
		Perms:    perms,
		Pathname: pathname,
		Label:    classify(perms, pathname),
	}, true
}

// classify implements the §4.4 ordered condition table.
func classify(perms, pathname string) Label {
	switch {
	case pathname == "[heap]":
		return LabelHeap
	case pathname == "[stack]":
		return LabelStack
	case pathname == "":
		return LabelAnonymous
	case strings.Contains(pathname, "lib") || strings.Contains(pathname, ".so"):
		return LabelLib
	case strings.HasPrefix(perms, "r-x"):
		return LabelText
	case strings.HasPrefix(perms, "rw-"):
		return LabelData
	default:
		return LabelOther
	}
}

// ClassifyAddress returns the short label tag of the first region
// containing addr (for an Other region with a pathname, the pathname
// itself), or "[unknown]" if none does.
func ClassifyAddress(regions []Region, addr uint64) string {
	for _, r := range regions {
		if r.Contains(addr) {
			if r.Label == LabelOther && r.Pathname != "" {
				return r.Pathname
			}
			return r.Label.String()
		}
	}
	return "[unknown]"
}

// Locate returns the first region containing addr, if any.
func Locate(regions []Region, addr uint64) (Region, bool) {
	for _, r := range regions {
		if r.Contains(addr) {
			return r, true
		}
	}
	return Region{}, false
}
