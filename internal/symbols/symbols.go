// Package symbols indexes file-scoped global declarations so the REPL and
// TUI can list or filter globals by source file.
package symbols

// Mode controls how much of the backend's symbol table is indexed.
type Mode int

const (
	// ModeDebugOnly indexes only symbols with debug info. The default.
	ModeDebugOnly Mode = iota
	// ModeNone disables global indexing entirely.
	ModeNone
	// ModeDebugAndNonDebug is accepted as a setting, but globals listing
	// reads debug-info symbols only, so it lists the same globals as
	// ModeDebugOnly.
	ModeDebugAndNonDebug
)

// GlobalInfo is one declaration site for a file-scoped global.
type GlobalInfo struct {
	Name            string
	TypeName        string
	File            string
	Line            int
	IsStatic        bool
	IsFunctionScope bool
}

// Index groups globals by the file they were declared in.
type Index struct {
	GlobalsByFile map[string][]GlobalInfo
}

// NewIndex builds an empty index.
func NewIndex() *Index {
	return &Index{GlobalsByFile: make(map[string][]GlobalInfo)}
}

// Add records one global under its declaring file.
func (idx *Index) Add(g GlobalInfo) {
	idx.GlobalsByFile[g.File] = append(idx.GlobalsByFile[g.File], g)
}

// ForFile returns the globals declared in file, or nil if none are indexed.
func (idx *Index) ForFile(file string) []GlobalInfo {
	return idx.GlobalsByFile[file]
}
