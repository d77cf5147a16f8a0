// Package repl implements the interactive line-oriented command loop
// described in spec §6: one verb per line, dispatched against a live MI
// session.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/ehrlich-b/memviz/internal/follow"
	"github.com/ehrlich-b/memviz/internal/mi"
	"github.com/ehrlich-b/memviz/internal/present"
	"github.com/ehrlich-b/memviz/internal/region"
	"github.com/ehrlich-b/memviz/internal/symbols"
	"github.com/ehrlich-b/memviz/internal/typelayout"
	"github.com/ehrlich-b/memviz/internal/vmmap"
)

// fileDescriptor is satisfied by *os.File; used to probe stdin without
// requiring callers to pass a concrete type.
type fileDescriptor interface {
	Fd() uintptr
}

const prompt = "memviz> "

const helpText = `Commands:
  locals                 list current-frame locals
  globals                list debug-info globals from all source files
  mem <expr> [len]       dump sizeof(expr) or len bytes at &expr
  view <symbol>          print type layout plus a raw dump
  follow <symbol> [n]    walk a pointer chain up to n hops
  vm                     print the region map
  vm vars                bucket live variables by region
  vm locate <expr>       show storage (and value, if pointer) region
  break/b <loc>          insert a breakpoint
  next/n, step/s, continue/c
                          step semantics
  help                   print this text
  quit/q                 exit
`

// REPL drives the command loop over a live session.
type REPL struct {
	sess        *mi.Session
	in          *bufio.Scanner
	out         io.Writer
	log         *slog.Logger
	hopLimit    int
	symbolMode  symbols.Mode
	interactive bool
}

// New constructs a REPL reading commands from in and writing output to out.
// When in is a terminal, the prompt is printed before every read; over a
// pipe (tests, scripted input) the prompt is suppressed so captured output
// isn't interleaved with it.
func New(sess *mi.Session, in io.Reader, out io.Writer, log *slog.Logger, hopLimit int) *REPL {
	interactive := false
	if fd, ok := in.(fileDescriptor); ok {
		interactive = term.IsTerminal(int(fd.Fd()))
	}
	return &REPL{sess: sess, in: bufio.NewScanner(in), out: out, log: log, hopLimit: hopLimit, symbolMode: symbols.ModeDebugOnly, interactive: interactive}
}

// SetSymbolMode sets the symbol-index mode. Only ModeNone changes what
// `globals` prints (it lists nothing); ModeDebugOnly and
// ModeDebugAndNonDebug both list the debug-info globals only.
func (r *REPL) SetSymbolMode(mode symbols.Mode) { r.symbolMode = mode }

// Run loops until quit/q or EOF on the input stream.
func (r *REPL) Run() error {
	for {
		if r.interactive {
			fmt.Fprint(r.out, prompt)
		}
		if !r.in.Scan() {
			return r.in.Err()
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		quit, err := r.dispatch(line)
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
}

// SetOutput redirects subsequent command output; used by the TUI to capture
// one command's result into a pane buffer instead of the REPL's own writer.
func (r *REPL) SetOutput(out io.Writer) { r.out = out }

// Dispatch runs one command line and reports whether it was quit/q. Exposed
// for hosts (like the TUI) that want to drive the same command grammar
// without owning the read loop.
func (r *REPL) Dispatch(line string) (quit bool, err error) {
	return r.dispatch(line)
}

func (r *REPL) dispatch(line string) (quit bool, err error) {
	verb, rest := splitVerb(line)
	switch verb {
	case "quit", "q":
		return true, nil
	case "help":
		fmt.Fprint(r.out, helpText)
	case "locals":
		err = r.cmdLocals()
	case "globals":
		err = r.cmdGlobals()
	case "mem":
		err = r.cmdMem(rest)
	case "view":
		err = r.cmdView(rest)
	case "follow":
		err = r.cmdFollow(rest)
	case "vm":
		err = r.cmdVM(rest)
	case "break", "b":
		err = r.cmdBreak(rest)
	case "next", "n":
		err = r.cmdStepLike(r.sess.Next)
	case "step", "s":
		err = r.cmdStepLike(r.sess.Step)
	case "continue", "c":
		err = r.cmdStepLike(r.sess.Continue)
	default:
		fmt.Fprintf(r.out, "unknown command %q (try \"help\")\n", verb)
	}
	return false, err
}

func splitVerb(line string) (verb, rest string) {
	parts := strings.SplitN(line, " ", 2)
	verb = parts[0]
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return verb, rest
}

func (r *REPL) cmdLocals() error {
	locals, err := r.sess.ListLocals()
	if err != nil {
		return fmt.Errorf("locals: %w", err)
	}
	for _, l := range locals {
		typ, val := "?", "?"
		if l.Type != nil {
			typ = *l.Type
		}
		if l.Value != nil {
			val = present.PrettifyValue(*l.Value)
		}
		fmt.Fprintf(r.out, "%-20s %-20s = %s\n", l.Name, typ, val)
	}
	return nil
}

func (r *REPL) cmdGlobals() error {
	if r.symbolMode == symbols.ModeNone {
		fmt.Fprintln(r.out, "globals: symbol indexing disabled (--symbol-index-mode none)")
		return nil
	}
	globals, err := r.sess.ListGlobals(nil)
	if err != nil {
		return fmt.Errorf("globals: %w", err)
	}
	for _, g := range globals {
		fmt.Fprintf(r.out, "%-20s %-20s = %s  (0x%x)\n", g.Name, g.Type, present.PrettifyValue(g.Value), g.Address)
	}
	return nil
}

func (r *REPL) cmdMem(args string) error {
	expr, lenOverride, err := parseExprAndOptionalLen(args)
	if err != nil {
		return fmt.Errorf("mem: %w", err)
	}
	dump, err := r.sess.MemoryDump(expr, lenOverride)
	if err != nil {
		return fmt.Errorf("mem %s: %w", expr, err)
	}
	fmt.Fprint(r.out, present.MemoryDump(dump))
	return nil
}

func (r *REPL) cmdView(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("view: missing symbol")
	}
	typ, err := r.sess.FetchType(symbol)
	if err != nil {
		return fmt.Errorf("view %s: %w", symbol, err)
	}
	if typelayout.IsPointerType(typ) {
		pointee := typelayout.StripPointerSuffix(typ)
		fmt.Fprintf(r.out, "%s : %s\n", symbol, typ)
		fmt.Fprintf(r.out, "pointee type: %s\n", pointee)
		dump, err := r.sess.MemoryDump(symbol, 0)
		if err != nil {
			return fmt.Errorf("view %s: %w", symbol, err)
		}
		fmt.Fprint(r.out, present.MemoryDump(dump))
		return nil
	}
	size, _ := r.sess.EvaluateSizeof(symbol)
	layout, err := r.sess.FetchLayout(symbol, size)
	if err != nil {
		return fmt.Errorf("view %s: %w", symbol, err)
	}
	fmt.Fprint(r.out, present.Layout(layout))
	dump, err := r.sess.MemoryDump(symbol, 0)
	if err != nil {
		return fmt.Errorf("view %s: %w", symbol, err)
	}
	fmt.Fprint(r.out, present.MemoryDump(dump))
	return nil
}

func (r *REPL) cmdFollow(args string) error {
	symbol, depthStr, _ := strings.Cut(args, " ")
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return fmt.Errorf("follow: missing symbol")
	}
	depth := r.hopLimit
	if depthStr = strings.TrimSpace(depthStr); depthStr != "" {
		n, err := strconv.Atoi(depthStr)
		if err != nil {
			return fmt.Errorf("follow: bad depth %q", depthStr)
		}
		depth = n
	}
	steps, err := follow.Walk(r.sess, symbol, depth)
	if err != nil {
		fmt.Fprint(r.out, follow.FormatSteps(steps))
		return fmt.Errorf("follow %s: %w", symbol, err)
	}
	fmt.Fprint(r.out, follow.FormatSteps(steps))
	return nil
}

func (r *REPL) cmdVM(args string) error {
	pid, err := r.sess.InferiorPID()
	if err != nil {
		return fmt.Errorf("vm: %w", err)
	}
	regions, err := vmmap.ReadProcMaps(pid)
	if err != nil {
		return fmt.Errorf("vm: %w", err)
	}
	switch strings.TrimSpace(args) {
	case "":
		fmt.Fprint(r.out, present.VMRegions(regions))
	case "vars":
		return r.cmdVMVars(regions)
	default:
		if rest, ok := strings.CutPrefix(args, "locate "); ok {
			return r.cmdVMLocate(regions, strings.TrimSpace(rest))
		}
		return fmt.Errorf("vm: unknown subcommand %q", args)
	}
	return nil
}

func (r *REPL) cmdVMVars(regions []vmmap.Region) error {
	locals, err := r.sess.ListLocals()
	if err != nil {
		return fmt.Errorf("vm vars: %w", err)
	}
	globals, err := r.sess.ListGlobals(nil)
	if err != nil {
		return fmt.Errorf("vm vars: %w", err)
	}
	storageAddrOf := make(map[string]uint64)
	var locVars, globVars []region.Variable
	for _, l := range locals {
		addr, _ := r.sess.TakeAddressOf(l.Name)
		storageAddrOf[l.Name] = addr
		typ := ""
		if l.Type != nil {
			typ = *l.Type
		}
		v := region.Variable{Name: l.Name, Type: typ, IsPointer: typelayout.IsPointerType(typ)}
		if l.Value != nil {
			v.Value = *l.Value
			if v.IsPointer {
				if a, err := mi.ParseAddress(*l.Value); err == nil {
					v.ValueAddr = a
				}
			}
		}
		locVars = append(locVars, v)
	}
	for _, g := range globals {
		storageAddrOf[g.Name] = g.Address
		v := region.Variable{Name: g.Name, Type: g.Type, Value: g.Value, IsPointer: typelayout.IsPointerType(g.Type)}
		if v.IsPointer {
			if a, err := mi.ParseAddress(g.Value); err == nil {
				v.ValueAddr = a
			}
		}
		globVars = append(globVars, v)
	}
	buckets := region.BucketLiveVariables(regions, globVars, locVars, storageAddrOf)
	for _, b := range buckets {
		fmt.Fprintf(r.out, "%s\n", b.Label)
		for _, g := range b.Globals {
			fmt.Fprintf(r.out, "  global %-20s %s\n", g.Name, g.Type)
		}
		for _, l := range b.Locals {
			fmt.Fprintf(r.out, "  local  %-20s %s\n", l.Name, l.Type)
		}
		for _, h := range b.HeapObjects {
			fmt.Fprintf(r.out, "  heap   via=%-12s type=%-12s addr=0x%x\n", h.Via, h.Type, h.Addr)
		}
	}
	return nil
}

func (r *REPL) cmdVMLocate(regions []vmmap.Region, expr string) error {
	if expr == "" {
		return fmt.Errorf("vm locate: missing expression")
	}
	typ, val, err := r.sess.EvaluateTypeAndValue(expr)
	if err != nil {
		return fmt.Errorf("vm locate %s: %w", expr, err)
	}
	storageAddr, err := r.sess.TakeAddressOf(expr)
	if err != nil {
		return fmt.Errorf("vm locate %s: %w", expr, err)
	}
	var valueAddrPtr *uint64
	if typelayout.IsPointerType(typ) {
		if a, err := mi.ParseAddress(val); err == nil {
			valueAddrPtr = &a
		} else {
			zero := uint64(0)
			valueAddrPtr = &zero
		}
	}
	res := region.Locate(regions, typ, val, storageAddr, valueAddrPtr)
	fmt.Fprintf(r.out, "%s : %s = %s\n", expr, res.Type, present.PrettifyValue(res.Value))
	fmt.Fprintf(r.out, "  storage: 0x%x  region=%s\n", res.StorageAddr, res.StorageRegion)
	if res.IsPointer {
		fmt.Fprintf(r.out, "  value:   0x%x  region=%s\n", res.ValueAddr, res.ValueRegion)
	}
	return nil
}

func (r *REPL) cmdBreak(loc string) error {
	if loc == "" {
		return fmt.Errorf("break: missing location")
	}
	bp, err := r.sess.BreakInsert(loc)
	if err != nil {
		return fmt.Errorf("break %s: %w", loc, err)
	}
	fmt.Fprintf(r.out, "breakpoint %d", bp.Number)
	if bp.File != nil && bp.Line != nil {
		fmt.Fprintf(r.out, " at %s:%d", *bp.File, *bp.Line)
	}
	fmt.Fprintln(r.out)
	return nil
}

func (r *REPL) cmdStepLike(op func() (mi.StoppedLocation, error)) error {
	loc, err := op()
	if err != nil {
		return err
	}
	printStopped(r.out, loc)
	return nil
}

func printStopped(out io.Writer, loc mi.StoppedLocation) {
	fn, file := "?", "?"
	if loc.Func != nil {
		fn = *loc.Func
	}
	if loc.File != nil {
		file = *loc.File
	}
	if loc.Line != nil {
		fmt.Fprintf(out, "stopped in %s at %s:%d\n", fn, file, *loc.Line)
		return
	}
	fmt.Fprintf(out, "stopped in %s at %s\n", fn, file)
}

func parseExprAndOptionalLen(args string) (expr string, length int, err error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", 0, fmt.Errorf("missing expression")
	}
	idx := strings.LastIndex(args, " ")
	if idx < 0 {
		return args, 0, nil
	}
	maybeLen := strings.TrimSpace(args[idx+1:])
	if n, convErr := strconv.Atoi(maybeLen); convErr == nil {
		return strings.TrimSpace(args[:idx]), n, nil
	}
	return args, 0, nil
}
