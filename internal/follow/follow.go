// Package follow walks a linked structure one pointer hop at a time,
// printing each node's display expression, type, and address as it goes.
package follow

import (
	"fmt"
	"strings"

	"github.com/ehrlich-b/memviz/internal/mi"
	"github.com/ehrlich-b/memviz/internal/typelayout"
)

// Backend is the subset of *mi.Session the walker needs; narrowed to an
// interface so tests can supply a fake.
type Backend interface {
	FetchType(expr string) (string, error)
	FetchLayoutForType(typeName string) (typelayout.TypeLayout, error)
	EvaluateExpression(expr string) (string, error)
	ReadPointerAt(addr uint64, sizeOverride int) (uint64, error)
}

// Step is one printed line of a pointer-chain walk.
type Step struct {
	Index   int
	Expr    string
	PtrType string
	Addr    uint64
	AtNull  bool
}

// Walk implements §4.6: verify expr is a pointer local, resolve its pointee
// struct layout, find the link field, then hop up to hopLimit times.
func Walk(backend Backend, expr string, hopLimit int) ([]Step, error) {
	if hopLimit <= 0 {
		return nil, fmt.Errorf("%w: hop limit must be positive", mi.ErrSemantic)
	}
	ptrType, err := backend.FetchType(expr)
	if err != nil {
		return nil, fmt.Errorf("fetch type of %s: %w", expr, err)
	}
	if !typelayout.IsPointerType(ptrType) {
		return nil, fmt.Errorf("%w: %s is not a pointer type (got %q)", mi.ErrSemantic, expr, ptrType)
	}
	pointeeType := typelayout.StripPointerSuffix(ptrType)
	layout, err := backend.FetchLayoutForType(pointeeType)
	if err != nil {
		return nil, fmt.Errorf("fetch layout of %s: %w", pointeeType, err)
	}
	st, ok := layout.(typelayout.Struct)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not resolve to a struct layout", mi.ErrSemantic, pointeeType)
	}
	link, ok := typelayout.FindLinkField(st)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no link field (next, or first pointer field)", mi.ErrSemantic, pointeeType)
	}

	displayed, err := backend.EvaluateExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", expr, err)
	}
	addr, err := mi.ParseAddress(displayed)
	if err != nil {
		addr, err = reEvaluateAddress(backend, expr)
		if err != nil {
			return nil, err
		}
	}

	var steps []Step
	curExpr := expr
	for i := 0; i < hopLimit; i++ {
		steps = append(steps, Step{Index: i, Expr: curExpr, PtrType: ptrType, Addr: addr, AtNull: addr == 0})
		if addr == 0 {
			break
		}
		// Evaluate the dereferenced display purely for its string form; the
		// walk itself advances via the sized pointer read below.
		_, _ = backend.EvaluateExpression(fmt.Sprintf("*(%s*)(0x%x)", pointeeType, addr))

		fieldAddr, overflow := checkedAdd(addr, uint64(link.Offset))
		if overflow {
			return steps, fmt.Errorf("%w: field address overflow at hop %d", mi.ErrArithmetic, i)
		}
		next, err := backend.ReadPointerAt(fieldAddr, link.ByteSize)
		if err != nil {
			return steps, fmt.Errorf("read link field at hop %d: %w", i, err)
		}
		curExpr = fmt.Sprintf("%s->%s", curExpr, link.Name)
		addr = next
	}
	return steps, nil
}

func reEvaluateAddress(backend Backend, expr string) (uint64, error) {
	v, err := backend.EvaluateExpression(expr)
	if err != nil {
		return 0, err
	}
	return mi.ParseAddress(v)
}

// checkedAdd reports whether base+offset overflows a 64-bit address space.
func checkedAdd(base, offset uint64) (uint64, bool) {
	sum := base + offset
	return sum, sum < base
}

// FormatSteps renders a walk the way the REPL displays it: one line per
// step, "[i] expr (ptrType) = 0xADDR", with a trailing "NULL" line if the
// walk terminated on a null pointer.
func FormatSteps(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		fmt.Fprintf(&b, "[%d] %s (%s) = 0x%x\n", s.Index, s.Expr, s.PtrType, s.Addr)
		if s.AtNull {
			b.WriteString("NULL\n")
		}
	}
	return b.String()
}
