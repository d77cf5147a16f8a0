package mi

import "errors"

// Sentinel error kinds per spec §7. Wrapped with fmt.Errorf("...: %w", ...)
// at the call site so errors.Is keeps working through the wrap chain.
var (
	// ErrNotInstalled means the debugger binary could not be found on PATH.
	ErrNotInstalled = errors.New("debugger binary not found")
	// ErrLaunchFailed means the binary was found but failed to start.
	ErrLaunchFailed = errors.New("debugger failed to start")
	// ErrTransport means the child's stdout closed unexpectedly or a write
	// to its stdin failed. Fatal to the session.
	ErrTransport = errors.New("debugger transport failed")
	// ErrProtocol means a result record was malformed or missing a
	// mandatory field where no safe default applies.
	ErrProtocol = errors.New("malformed MI record")
	// ErrSemantic covers user-facing mistakes: unknown symbol, wrong type,
	// missing link field, out-of-range depth. Never fatal to the session.
	ErrSemantic = errors.New("semantic error")
	// ErrArithmetic marks address + offset overflow in the pointer walker.
	ErrArithmetic = errors.New("address arithmetic overflow")
)

// BackendError wraps a verbatim ^error,msg="..." from the debugger.
type BackendError struct {
	Op  string
	Msg string
}

func (e *BackendError) Error() string {
	return e.Op + ": " + e.Msg
}
