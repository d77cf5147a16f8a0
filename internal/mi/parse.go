package mi

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reMsg    = regexp.MustCompile(`msg="((?:\\.|[^"])*)"`)
	reValue  = regexp.MustCompile(`value="((?:\\.|[^"])*)"`)
	reType   = regexp.MustCompile(`type="((?:\\.|[^"])*)"`)
	reAddr   = regexp.MustCompile(`addr="([^"]+)"`)
	reNumber = regexp.MustCompile(`number="([0-9]+)"`)
	reLine   = regexp.MustCompile(`line="([0-9]+)"`)
	reFunc   = regexp.MustCompile(`func="([^"]+)"`)
	reFile   = regexp.MustCompile(`file="([^"]+)"`)
	reFull   = regexp.MustCompile(`fullname="([^"]+)"`)
	reArch   = regexp.MustCompile(`arch="([^"]+)"`)
	reReason = regexp.MustCompile(`reason="([^"]+)"`)
	reName   = regexp.MustCompile(`name="([^"]+)"`)

	reBytesField    = regexp.MustCompile(`bytes="([0-9a-fA-F]+)"`)
	reContentsQuote = regexp.MustCompile(`contents="([^"]+)"`)
	reContentsList  = regexp.MustCompile(`contents=\[([^\]]+)\]`)
	reDataList      = regexp.MustCompile(`data=\[([^\]]+)\]`)

	reLocalBlock = regexp.MustCompile(`\{[^{}]*\}`)
)

func firstMatch(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func firstMatchPtr(re *regexp.Regexp, s string) *string {
	if v, ok := firstMatch(re, s); ok {
		return &v
	}
	return nil
}

func firstMatchUnescapedPtr(re *regexp.Regexp, s string) *string {
	if v, ok := firstMatch(re, s); ok {
		u := UnescapeValue(v)
		return &u
	}
	return nil
}

func firstMatchUint(re *regexp.Regexp, s string) *int {
	v, ok := firstMatch(re, s)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// ParseMsgField extracts the first msg="..." field, unescaped.
func ParseMsgField(s string) (string, bool) {
	v, ok := firstMatch(reMsg, s)
	if !ok {
		return "", false
	}
	return UnescapeValue(v), true
}

// ParseValueField extracts the first value="..." field, unescaped.
func ParseValueField(s string) (string, bool) {
	v, ok := firstMatch(reValue, s)
	if !ok {
		return "", false
	}
	return UnescapeValue(v), true
}

// ParseTypeField extracts the first type="..." field, unescaped.
func ParseTypeField(s string) (string, bool) {
	v, ok := firstMatch(reType, s)
	if !ok {
		return "", false
	}
	return UnescapeValue(v), true
}

// ParseAddrField extracts the first addr="..." field.
func ParseAddrField(s string) (string, bool) { return firstMatch(reAddr, s) }

// ParseVarName extracts the first name="..." field (used after -var-create).
func ParseVarName(s string) (string, bool) { return firstMatch(reName, s) }

// ParseStatus maps a result-record line to a MiStatus.
func ParseStatus(line string) MiStatus {
	switch {
	case strings.HasPrefix(line, "^done"):
		return MiStatus{Kind: StatusDone}
	case strings.HasPrefix(line, "^running"):
		return MiStatus{Kind: StatusRunning}
	case strings.HasPrefix(line, "^error"):
		msg, ok := ParseMsgField(line)
		if !ok {
			msg = line
		}
		return MiStatus{Kind: StatusError, Msg: msg}
	default:
		return MiStatus{Kind: StatusOther, Msg: line}
	}
}

// ParseUsize parses a gdb-printed integer, accepting a "0x..." hex form or
// plain decimal.
func ParseUsize(s string) (int, error) {
	t := strings.TrimSpace(s)
	if hex, ok := strings.CutPrefix(t, "0x"); ok {
		n, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("parse hex usize %q: %w", t, err)
		}
		return int(n), nil
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, fmt.Errorf("parse usize %q: %w", t, err)
	}
	return n, nil
}

func parseHexByte(raw string) (byte, bool) {
	t := strings.Trim(strings.TrimSpace(raw), `"`)
	if t == "" {
		return 0, false
	}
	t = strings.TrimPrefix(t, "0x")
	n, err := strconv.ParseUint(t, 16, 8)
	if err != nil {
		return 0, false
	}
	return byte(n), true
}

func hexStrToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd-length hex string in memory contents", ErrProtocol)
	}
	out := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		n, err := strconv.ParseUint(s[i:i+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hex byte %q in memory contents", ErrProtocol, s[i:i+2])
		}
		out = append(out, byte(n))
	}
	return out, nil
}

func splitHexBytes(s string) []byte {
	var out []byte
	for _, part := range strings.Fields(s) {
		if b, ok := parseHexByte(part); ok {
			out = append(out, b)
		}
	}
	return out
}

func parseHexList(list string) []byte {
	var out []byte
	for _, part := range strings.Split(list, ",") {
		if b, ok := parseHexByte(part); ok {
			out = append(out, b)
		}
	}
	return out
}

// ParseMemoryContents normalizes the four wire shapes the backend uses for
// memory payloads into a byte slice: bytes="<hex>", contents="<hex or
// space-separated hex>", contents=[...] / data=[...] comma-separated quoted
// 0xNN entries.
func ParseMemoryContents(s string) ([]byte, error) {
	if m, ok := firstMatch(reBytesField, s); ok {
		return hexStrToBytes(m)
	}
	if m, ok := firstMatch(reContentsQuote, s); ok {
		if strings.Contains(m, " ") {
			return splitHexBytes(m), nil
		}
		return hexStrToBytes(m)
	}
	if m, ok := firstMatch(reContentsList, s); ok {
		return parseHexList(m), nil
	}
	if m, ok := firstMatch(reDataList, s); ok {
		return parseHexList(m), nil
	}
	return nil, fmt.Errorf("%w: no memory contents found", ErrProtocol)
}

// ParseLocals parses a sequence of brace-delimited tuples, each yielding
// {name, optional type, optional value}. Field order inside a tuple is not
// fixed.
func ParseLocals(s string) []LocalVar {
	var locals []LocalVar
	for _, block := range reLocalBlock.FindAllString(s, -1) {
		name, ok := firstMatch(reName, block)
		if !ok {
			continue
		}
		locals = append(locals, LocalVar{
			Name:  name,
			Type:  firstMatchUnescapedPtr(reType, block),
			Value: firstMatchUnescapedPtr(reValue, block),
		})
	}
	if len(locals) == 0 {
		idxs := reName.FindAllStringSubmatchIndex(s, -1)
		for i, idx := range idxs {
			name := s[idx[2]:idx[3]]
			end := len(s)
			if i+1 < len(idxs) {
				end = idxs[i+1][0]
			}
			segment := s[idx[0]:end]
			locals = append(locals, LocalVar{
				Name:  name,
				Type:  firstMatchUnescapedPtr(reType, segment),
				Value: firstMatchUnescapedPtr(reValue, segment),
			})
		}
	}
	return locals
}

// ParseStoppedLocation parses a *stopped async record.
func ParseStoppedLocation(line string) StoppedLocation {
	return StoppedLocation{
		Func:     firstMatchPtr(reFunc, line),
		File:     firstMatchPtr(reFile, line),
		FullName: firstMatchPtr(reFull, line),
		Line:     firstMatchUint(reLine, line),
		Reason:   firstMatchPtr(reReason, line),
		Arch:     firstMatchPtr(reArch, line),
	}
}

// ParseBreakpoint parses a ^done result from -break-insert.
func ParseBreakpoint(res string) BreakpointInfo {
	num := 0
	if v, ok := firstMatch(reNumber, res); ok {
		if n, err := strconv.Atoi(v); err == nil {
			num = n
		}
	}
	return BreakpointInfo{
		Number: uint32(num),
		File:   firstMatchPtr(reFile, res),
		Line:   firstMatchUint(reLine, res),
		Func:   firstMatchPtr(reFunc, res),
	}
}

// ParseEndian maps a `show endian` value string to an Endian.
func ParseEndian(val string) Endian {
	l := strings.ToLower(val)
	switch {
	case strings.Contains(l, "little"):
		return EndianLittle
	case strings.Contains(l, "big"):
		return EndianBig
	default:
		return EndianUnknown
	}
}

// GuessEndianFromArch guesses endian from an architecture string when the
// backend refuses `show endian`. Returns false if the arch is unrecognized.
func GuessEndianFromArch(arch string) (Endian, bool) {
	a := strings.ToLower(arch)
	switch {
	case strings.Contains(a, "x86"), strings.Contains(a, "amd64"), strings.Contains(a, "i386"):
		return EndianLittle, true
	case strings.Contains(a, "aarch64"), strings.Contains(a, "arm"):
		return EndianLittle, true
	case strings.Contains(a, "riscv"):
		return EndianLittle, true
	default:
		return EndianUnknown, false
	}
}
