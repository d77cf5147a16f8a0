// Package typelayout turns a debugger's pretty-printed type text ("ptype /o"
// console output) into a structured TypeLayout the rest of memviz can walk
// without re-parsing strings.
package typelayout

import (
	"regexp"
	"strconv"
	"strings"
)

// TypeLayout is the sum type over the three shapes a backend's type text can
// describe: Scalar, Array or Struct. Callers type-switch or type-assert on
// the concrete type; Kind reports the same tag as a value.
type TypeLayout interface {
	Kind() Kind
	Size() int
}

type Kind int

const (
	KindScalar Kind = iota
	KindArray
	KindStruct
)

// Scalar is any type with no further structure memviz cares about: base
// types, pointers, enums.
type Scalar struct {
	TypeName string
	ByteSize int
}

func (s Scalar) Kind() Kind { return KindScalar }
func (s Scalar) Size() int  { return s.ByteSize }

// Array is a fixed-length homogeneous sequence.
type Array struct {
	ElementType string
	ElementSize int
	Length      int
	ByteSize    int
}

func (a Array) Kind() Kind { return KindArray }
func (a Array) Size() int  { return a.ByteSize }

// FieldLayout is one member of a Struct.
type FieldLayout struct {
	Name     string
	TypeName string
	Offset   int
	ByteSize int
}

// Struct is a named aggregate with offset-annotated fields.
type Struct struct {
	Name     string
	ByteSize int
	Fields   []FieldLayout
}

func (s Struct) Kind() Kind { return KindStruct }
func (s Struct) Size() int  { return s.ByteSize }

var (
	reArrayType  = regexp.MustCompile(`^\s*type\s*=\s*(.+?)\s*\[(\d+)\]\s*$`)
	reScalarType = regexp.MustCompile(`^\s*type\s*=\s*(\S+)`)
	reStructName = regexp.MustCompile(`^\s*type\s*=\s*struct\s*(\S*)\s*\{`)
	reAnnotation = regexp.MustCompile(`^\s*/\*\s*([^|]+?)\s*\|\s*([^*]+?)\s*\*/\s*(.*)$`)
	reTotalSize  = regexp.MustCompile(`total size \(bytes\):\s*(\d+)`)
	reBitfield   = regexp.MustCompile(`^(.*):\s*\d+\s*;?\s*$`)
	reTrailingArr = regexp.MustCompile(`^(.*?)\s*\[(\d+)\]\s*;?\s*$`)
)

// ParsePType implements the §4.3 resolution order: array header, else
// offset/size-annotated struct body, else a scalar fallback using the
// caller-supplied size (the backend's ptype text carries no size for plain
// scalars).
func ParsePType(text string, fallbackSize int, wordSize int) TypeLayout {
	if m := reArrayType.FindStringSubmatch(firstLine(text)); m != nil {
		elemType := strings.TrimSpace(m[1])
		length, _ := strconv.Atoi(m[2])
		elemSize := BaseSize(elemType, wordSize)
		return Array{
			ElementType: elemType,
			ElementSize: elemSize,
			Length:      length,
			ByteSize:    length * elemSize,
		}
	}
	if st, ok := parseAnnotatedStruct(text, wordSize); ok {
		return st
	}
	name := "unknown"
	if m := reScalarType.FindStringSubmatch(firstLine(text)); m != nil {
		name = m[1]
	}
	return Scalar{TypeName: name, ByteSize: fallbackSize}
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i]
	}
	return text
}

// parseAnnotatedStruct implements step 2 of §4.3: a struct body whose
// members are each preceded by a `/* offset | size */` annotation.
func parseAnnotatedStruct(text string, wordSize int) (Struct, bool) {
	lines := strings.Split(text, "\n")
	nameMatch := reStructName.FindStringSubmatch(strings.TrimSpace(lines[0]))
	if nameMatch == nil {
		return Struct{}, false
	}
	st := Struct{Name: strings.TrimSpace(nameMatch[1])}
	sawAnnotation := false
	lastEnd := 0
	for _, line := range lines[1:] {
		m := reAnnotation.FindStringSubmatch(line)
		if m == nil {
			if tm := reTotalSize.FindStringSubmatch(line); tm != nil {
				if n, err := strconv.Atoi(tm[1]); err == nil {
					st.ByteSize = n
				}
			}
			continue
		}
		sawAnnotation = true
		offsetText, sizeText, decl := strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
		if strings.Contains(offsetText, "XXX") || strings.Contains(sizeText, "XXX") {
			continue
		}
		offset, errOff := strconv.Atoi(offsetText)
		size, errSize := strconv.Atoi(sizeText)
		if errOff != nil || errSize != nil {
			continue
		}
		decl = strings.TrimSuffix(strings.TrimSpace(decl), ";")
		if reBitfield.MatchString(decl) && strings.Contains(decl, ":") {
			continue
		}
		typeName, fieldName, ok := splitDeclaration(decl)
		if !ok {
			continue
		}
		st.Fields = append(st.Fields, FieldLayout{
			Name:     fieldName,
			TypeName: typeName,
			Offset:   offset,
			ByteSize: size,
		})
		if end := offset + size; end > lastEnd {
			lastEnd = end
		}
	}
	if !sawAnnotation {
		return Struct{}, false
	}
	if st.ByteSize == 0 {
		st.ByteSize = lastEnd
	}
	return st, true
}

// splitDeclaration splits a member declaration's text after its "*/" into a
// type part and a name part by the final whitespace, folding leading `*`s on
// the name into the type and a trailing `[N]` array suffix likewise.
func splitDeclaration(decl string) (typeName, fieldName string, ok bool) {
	decl = strings.TrimSpace(decl)
	if decl == "" {
		return "", "", false
	}
	if m := reTrailingArr.FindStringSubmatch(decl); m != nil {
		head := strings.TrimSpace(m[1])
		idx := strings.LastIndexAny(head, " \t")
		if idx < 0 {
			return "", "", false
		}
		typeName = strings.TrimSpace(head[:idx]) + "[" + m[2] + "]"
		fieldName = strings.TrimSpace(head[idx+1:])
		return typeName, fieldName, true
	}
	idx := strings.LastIndexAny(decl, " \t*")
	if idx < 0 {
		return "", "", false
	}
	// walk back past any stars that belong to the name, e.g. "Node *next"
	nameStart := idx + 1
	for nameStart < len(decl) && decl[nameStart] == '*' {
		nameStart++
	}
	stars := decl[idx+1 : nameStart]
	fieldName = strings.TrimSpace(decl[nameStart:])
	typeName = strings.TrimSpace(decl[:idx+1]) + stars
	typeName = strings.TrimSpace(typeName)
	if fieldName == "" {
		return "", "", false
	}
	return typeName, fieldName, true
}

// BaseSize implements §4.3's base_type_size table.
func BaseSize(typeName string, wordSize int) int {
	t := strings.TrimSpace(typeName)
	if IsPointerType(t) {
		return max(wordSize, 1)
	}
	switch {
	case strings.Contains(t, "char"):
		return 1
	case strings.Contains(t, "short"):
		return 2
	case strings.Contains(t, "long long"):
		return 8
	case strings.Contains(t, "long"):
		return max(wordSize, 4)
	case t == "int" || t == "unsigned int" || strings.HasSuffix(t, " int"):
		return 4
	case strings.Contains(t, "float"):
		return 4
	case strings.Contains(t, "double"):
		return 8
	default:
		return max(wordSize, 1)
	}
}

// IsPointerType reports whether typeName denotes a pointer (contains `*`
// and is not itself an array-of-pointers display form).
func IsPointerType(typeName string) bool {
	return strings.Contains(typeName, "*") && !strings.ContainsAny(typeName, "[]")
}

// StripPointerSuffix removes trailing `*`s and the whitespace before them.
func StripPointerSuffix(typeName string) string {
	t := strings.TrimRight(typeName, "* \t")
	return strings.TrimSpace(t)
}

// NormalizeTypeName collapses the display quirks the backend emits:
// " [" -> "[".
func NormalizeTypeName(typeName string) string {
	return strings.ReplaceAll(typeName, " [", "[")
}

// NormalizePointerType collapses " *" -> "*" for the pointer-display
// variant of a type name.
func NormalizePointerType(typeName string) string {
	return strings.ReplaceAll(typeName, " *", "*")
}

// FindLinkField implements "prefer next, else first pointer field, else
// none" over a struct's fields in declaration order.
func FindLinkField(st Struct) (FieldLayout, bool) {
	for _, f := range st.Fields {
		if f.Name == "next" && IsPointerType(f.TypeName) {
			return f, true
		}
	}
	for _, f := range st.Fields {
		if IsPointerType(f.TypeName) {
			return f, true
		}
	}
	return FieldLayout{}, false
}
