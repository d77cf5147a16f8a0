package mi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ehrlich-b/memviz/internal/typelayout"
)

const maxDumpBytes = 512

// Session owns a spawned debugger child and its parsed cached target facts.
// Word size, endian, and architecture are resolved lazily and cached for the
// lifetime of one run of the inferior.
type Session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	codec  *codec
	log    *slog.Logger
	target string
	args   []string

	wordSize int
	endian   Endian
	arch     *string
}

// Start spawns the backend in MI mode against target with args. It
// distinguishes "binary not found" from "found but failed to launch" so
// callers can report the right remediation.
func Start(gdbPath, target string, args []string, log *slog.Logger) (*Session, error) {
	if _, err := exec.LookPath(gdbPath); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrNotInstalled, gdbPath, err)
	}
	cmdArgs := append([]string{"-q", "-i=mi", "--args", target}, args...)
	cmd := exec.Command(gdbPath, cmdArgs...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %w", ErrLaunchFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrLaunchFailed, err)
	}
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLaunchFailed, err)
	}

	s := &Session{
		cmd:    cmd,
		stdin:  stdin,
		codec:  newCodec(stdin, stdout, log),
		log:    log,
		target: target,
		args:   args,
		endian: EndianUnknown,
	}
	return s, nil
}

// ExecCommand sends one raw MI command and returns its response.
func (s *Session) ExecCommand(cmd string) (MiResponse, error) {
	if err := s.codec.sendLine(cmd); err != nil {
		return MiResponse{}, err
	}
	return s.codec.readResponse()
}

// DrainInitialBanner blocks until the backend has printed its startup text
// and reached the first prompt, then resolves word size/endian/arch.
func (s *Session) DrainInitialBanner() error {
	if _, err := s.codec.readLinesUntilPrompt(); err != nil {
		return err
	}
	s.ensureWordSize()
	s.ensureEndian()
	s.ensureArch()
	return nil
}

// RunToEntry inserts a breakpoint at main and runs to it, returning the
// resolved stop location.
func (s *Session) RunToEntry() (StoppedLocation, error) {
	if _, err := s.ExecCommand("-break-insert main"); err != nil {
		return StoppedLocation{}, fmt.Errorf("insert entry breakpoint: %w", err)
	}
	return s.execAndWait("-exec-run")
}

// ListLocals lists the current frame's locals, back-filling any missing
// value via re-evaluation and any missing type via a create/delete probe.
func (s *Session) ListLocals() ([]LocalVar, error) {
	resp, err := s.ExecCommand("-stack-list-locals 2")
	if err != nil {
		return nil, err
	}
	if resp.Status.IsError() {
		return nil, &BackendError{Op: "list locals", Msg: resp.Status.Msg}
	}
	locals := ParseLocals(resp.Result)
	for i := range locals {
		l := &locals[i]
		if l.Value == nil {
			if v, err := s.EvaluateExpression(l.Name); err == nil {
				l.Value = &v
			}
		}
		if l.Type == nil {
			if t, err := s.FetchType(l.Name); err == nil {
				l.Type = &t
			}
		}
	}
	return locals, nil
}

// EvaluateExpression returns the backend's displayed value for expr.
func (s *Session) EvaluateExpression(expr string) (string, error) {
	resp, err := s.ExecCommand("-data-evaluate-expression " + MiEscape(expr))
	if err != nil {
		return "", err
	}
	if resp.Status.IsError() {
		return "", &BackendError{Op: "evaluate expression", Msg: resp.Status.Msg}
	}
	v, ok := ParseValueField(resp.Result)
	if !ok {
		return "", fmt.Errorf("%w: evaluate expression: no value field", ErrProtocol)
	}
	return v, nil
}

// EvaluateSizeof returns sizeof(expr) in bytes.
func (s *Session) EvaluateSizeof(expr string) (int, error) {
	v, err := s.EvaluateExpression(fmt.Sprintf("sizeof(%s)", expr))
	if err != nil {
		return 0, err
	}
	n, convErr := ParseUsize(v)
	if convErr != nil || n == 0 {
		return 0, fmt.Errorf("sizeof returned no value")
	}
	return n, nil
}

// TakeAddressOf evaluates &(expr) and parses the resulting address.
func (s *Session) TakeAddressOf(expr string) (uint64, error) {
	v, err := s.EvaluateExpression(fmt.Sprintf("&(%s)", expr))
	if err != nil {
		return 0, err
	}
	return ParseAddress(v)
}

// EvaluateTypeAndValue returns an expression's (type, value) pair; the type
// always comes from the create/delete type probe (FetchType).
func (s *Session) EvaluateTypeAndValue(expr string) (typ, value string, err error) {
	value, err = s.EvaluateExpression(expr)
	if err != nil {
		return "", "", err
	}
	typ, err = s.FetchType(expr)
	if err != nil {
		return "", value, err
	}
	return typ, value, nil
}

// ReadPointerAt reads a word at addr (sizeOverride, or the cached word
// size) and interprets it as an address under the cached endian.
func (s *Session) ReadPointerAt(addr uint64, sizeOverride int) (uint64, error) {
	n := s.wordSize
	if sizeOverride > 0 {
		n = sizeOverride
	}
	resp, err := s.ExecCommand(fmt.Sprintf("-data-read-memory-bytes 0x%x %d", addr, n))
	if err != nil {
		return 0, err
	}
	if resp.Status.IsError() {
		return 0, &BackendError{Op: "read pointer", Msg: resp.Status.Msg}
	}
	bytes, err := ParseMemoryContents(resp.Result)
	if err != nil {
		return 0, err
	}
	return BytesToU64(bytes, s.endian), nil
}

// MemoryDump reads and returns a byte range starting at the address of
// expr. lengthOverride <= 0 means "use sizeof(expr), or 32 if unknown".
func (s *Session) MemoryDump(expr string, lengthOverride int) (MemoryDump, error) {
	addr, err := s.TakeAddressOf(expr)
	if err != nil {
		return MemoryDump{}, err
	}
	length := lengthOverride
	if length <= 0 {
		if n, szErr := s.EvaluateSizeof(expr); szErr == nil {
			length = n
		} else {
			length = 32
		}
	}
	var truncatedFrom *int
	if length > maxDumpBytes {
		requested := length
		truncatedFrom = &requested
		length = maxDumpBytes
	}
	resp, err := s.ExecCommand(fmt.Sprintf("-data-read-memory-bytes 0x%x %d", addr, length))
	if err != nil {
		return MemoryDump{}, err
	}
	if resp.Status.IsError() {
		return MemoryDump{}, &BackendError{Op: "memory dump", Msg: resp.Status.Msg}
	}
	bytes, err := ParseMemoryContents(resp.Result)
	if err != nil {
		return MemoryDump{}, err
	}
	typ, _ := s.FetchType(expr)
	var typPtr *string
	if typ != "" {
		typPtr = &typ
	}
	return MemoryDump{
		Expr:          expr,
		Type:          typPtr,
		Address:       fmt.Sprintf("0x%x", addr),
		Bytes:         bytes,
		WordSize:      s.wordSize,
		Requested:     length,
		Endian:        s.endian,
		Arch:          s.arch,
		TruncatedFrom: truncatedFrom,
	}, nil
}

// FetchLayout resolves the TypeLayout of symbol, using fallbackSize when the
// backend's text carries no size of its own (a plain scalar).
func (s *Session) FetchLayout(symbol string, fallbackSize int) (typelayout.TypeLayout, error) {
	text, err := s.ptypeText(symbol)
	if err != nil {
		return nil, err
	}
	return typelayout.ParsePType(text, fallbackSize, s.wordSize), nil
}

// FetchLayoutForType resolves the TypeLayout of a named type, probing its
// size via sizeof(T) when possible.
func (s *Session) FetchLayoutForType(typeName string) (typelayout.TypeLayout, error) {
	size := s.wordSize
	if n, err := s.EvaluateSizeof(typeName); err == nil {
		size = n
	}
	text, err := s.ptypeText(typeName)
	if err != nil {
		return nil, err
	}
	return typelayout.ParsePType(text, size, s.wordSize), nil
}

// ptypeText runs `ptype /o <symbol>` through the console interpreter and
// strips the console-stream quoting.
func (s *Session) ptypeText(symbol string) (string, error) {
	resp, err := s.ExecCommand(fmt.Sprintf(`-interpreter-exec console "ptype /o %s"`, symbol))
	if err != nil {
		return "", err
	}
	if resp.Status.IsError() {
		return "", &BackendError{Op: "ptype", Msg: resp.Status.Msg}
	}
	var b strings.Builder
	for _, line := range resp.OOB {
		if !strings.HasPrefix(line, `~"`) {
			continue
		}
		inner := strings.TrimSuffix(strings.TrimPrefix(line, `~"`), `"`)
		b.WriteString(UnescapeValue(inner))
	}
	return b.String(), nil
}

// FetchType resolves expr's type via a transient variable-object probe:
// -var-create then -var-delete, reading the type field from the create
// response.
func (s *Session) FetchType(expr string) (string, error) {
	resp, err := s.ExecCommand("-var-create - * " + MiEscape(expr))
	if err != nil {
		return "", err
	}
	if resp.Status.IsError() {
		return "", &BackendError{Op: "fetch type", Msg: resp.Status.Msg}
	}
	typ, ok := ParseTypeField(resp.Result)
	if name, nameOK := ParseVarName(resp.Result); nameOK {
		_, _ = s.ExecCommand("-var-delete " + name)
	}
	if !ok {
		return "", fmt.Errorf("%w: fetch type: no type field", ErrProtocol)
	}
	return typ, nil
}

// ListGlobals enumerates file-scoped globals, optionally limited to the
// file group whose filename matches filter.
func (s *Session) ListGlobals(filter *string) ([]GlobalVar, error) {
	resp, err := s.ExecCommand("-symbol-info-variables")
	if err != nil {
		return nil, err
	}
	if resp.Status.IsError() {
		return nil, &BackendError{Op: "list globals", Msg: resp.Status.Msg}
	}
	debug, _ := ParseSymbolGroups(resp.Result)
	var out []GlobalVar
	for _, group := range debug {
		if filter != nil && !strings.Contains(group.Filename, *filter) {
			continue
		}
		for _, sym := range group.Symbols {
			gv := GlobalVar{Name: sym.Name, File: group.Filename}
			if sym.Type != nil {
				gv.Type = *sym.Type
			}
			if v, err := s.EvaluateExpression(sym.Name); err == nil {
				gv.Value = v
			}
			if addr, err := s.TakeAddressOf(sym.Name); err == nil {
				gv.Address = addr
			}
			out = append(out, gv)
		}
	}
	return out, nil
}

// InferiorPID extracts the inferior's pid from `info proc`.
func (s *Session) InferiorPID() (int, error) {
	resp, err := s.ExecCommand(`-interpreter-exec console "info proc"`)
	if err != nil {
		return 0, err
	}
	if resp.Status.IsError() {
		return 0, &BackendError{Op: "inferior pid", Msg: resp.Status.Msg}
	}
	for _, line := range resp.OOB {
		inner := strings.TrimSuffix(strings.TrimPrefix(line, `~"`), `"`)
		inner = UnescapeValue(inner)
		fields := strings.Fields(inner)
		for i, f := range fields {
			if f == "process" && i+1 < len(fields) {
				if n, err := strconv.Atoi(fields[i+1]); err == nil {
					return n, nil
				}
			}
		}
	}
	return 0, fmt.Errorf("%w: inferior pid not found in info proc output", ErrProtocol)
}

// Next, Step, Continue are the synchronous control operations: each blocks
// until the resulting *stopped event is observed.
func (s *Session) Next() (StoppedLocation, error)     { return s.execAndWait("-exec-next") }
func (s *Session) Step() (StoppedLocation, error)     { return s.execAndWait("-exec-step") }
func (s *Session) Continue() (StoppedLocation, error) { return s.execAndWait("-exec-continue") }

// BreakInsert sets a breakpoint at location.
func (s *Session) BreakInsert(location string) (BreakpointInfo, error) {
	resp, err := s.ExecCommand("-break-insert " + location)
	if err != nil {
		return BreakpointInfo{}, err
	}
	if resp.Status.IsError() {
		return BreakpointInfo{}, &BackendError{Op: "break-insert", Msg: resp.Status.Msg}
	}
	return ParseBreakpoint(resp.Result), nil
}

// execAndWait sends a control command, consumes its ^running result, then
// blocks for the matching *stopped record. The *stopped record is an async
// out-of-band record emitted strictly after ^running, so it never appears
// in readResponse's OOB slice: it is read separately, after the command's
// own prompt has already gone by.
func (s *Session) execAndWait(cmd string) (StoppedLocation, error) {
	if err := s.codec.sendLine(cmd); err != nil {
		return StoppedLocation{}, err
	}
	resp, err := s.codec.readResponse()
	if err != nil {
		return StoppedLocation{}, err
	}
	if resp.Status.IsError() {
		return StoppedLocation{}, &BackendError{Op: cmd, Msg: resp.Status.Msg}
	}
	for _, line := range resp.OOB {
		if strings.HasPrefix(line, "*stopped") {
			return s.recordStop(line), nil
		}
	}
	line, err := s.codec.waitForStop()
	if err != nil {
		return StoppedLocation{}, err
	}
	return s.recordStop(line), nil
}

// recordStop parses a *stopped line and latches the architecture the first
// time gdb reports one.
func (s *Session) recordStop(line string) StoppedLocation {
	loc := ParseStoppedLocation(line)
	if loc.Arch != nil && s.arch == nil {
		s.arch = loc.Arch
	}
	return loc
}

// Shutdown asks the backend to exit cleanly and waits for the child.
func (s *Session) Shutdown() error {
	_, _ = s.ExecCommand("-gdb-exit")
	_ = s.stdin.Close()
	err := s.cmd.Wait()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("%w: wait: %w", ErrTransport, err)
	}
	return nil
}

func (s *Session) ensureWordSize() {
	if s.wordSize != 0 {
		return
	}
	s.wordSize = 8
	if n, err := s.EvaluateSizeof("void*"); err == nil && n > 0 {
		s.wordSize = n
	}
}

func (s *Session) ensureEndian() {
	if s.endian != EndianUnknown {
		return
	}
	resp, err := s.ExecCommand("-gdb-show endian")
	if err == nil && !resp.Status.IsError() {
		if v, ok := ParseValueField(resp.Result); ok {
			if e := ParseEndian(v); e != EndianUnknown {
				s.endian = e
				return
			}
		}
	}
	if s.arch != nil {
		if e, ok := GuessEndianFromArch(*s.arch); ok {
			s.endian = e
			return
		}
	}
	s.endian = EndianLittle
}

func (s *Session) ensureArch() {
	resp, err := s.ExecCommand("-gdb-show architecture")
	if err != nil || resp.Status.IsError() {
		return
	}
	v, ok := ParseValueField(resp.Result)
	if !ok || v == "auto" {
		return
	}
	s.arch = &v
}

// ParseAddress prefers the first "0x..." substring in s; falls back to an
// all-digit decimal parse when no hex form appears.
func ParseAddress(s string) (uint64, error) {
	if idx := strings.Index(s, "0x"); idx >= 0 {
		rest := s[idx+2:]
		end := 0
		for end < len(rest) && isHexDigit(rest[end]) {
			end++
		}
		if end > 0 {
			n, err := strconv.ParseUint(rest[:end], 16, 64)
			if err == nil {
				return n, nil
			}
		}
	}
	trimmed := strings.TrimSpace(s)
	if trimmed != "" && isAllDigits(trimmed) {
		n, err := strconv.ParseUint(trimmed, 10, 64)
		if err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: no address found in %q", ErrSemantic, s)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
