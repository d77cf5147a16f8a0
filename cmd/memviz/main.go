// Command memviz drives a GDB-compatible debugger against a native
// executable and presents its live state through a line REPL or a
// terminal UI.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ehrlich-b/memviz/internal/config"
	"github.com/ehrlich-b/memviz/internal/logger"
	"github.com/ehrlich-b/memviz/internal/mi"
	"github.com/ehrlich-b/memviz/internal/repl"
	"github.com/ehrlich-b/memviz/internal/symbols"
	"github.com/ehrlich-b/memviz/internal/ui"
)

var sourceExts = map[string]bool{
	".c": true, ".cc": true, ".cpp": true, ".cxx": true,
}

func main() {
	var (
		gdbFlag    string
		verbose    bool
		useTUI     bool
		logFile    string
		symbolMode string
	)

	root := &cobra.Command{
		Use:   "memviz <target> [args...]",
		Short: "Interactive memory visualizer for native executables",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(runOptions{
				gdbFlag:    gdbFlag,
				verbose:    verbose,
				useTUI:     useTUI,
				logFile:    logFile,
				symbolMode: symbolMode,
				target:     args[0],
				targetArgs: args[1:],
			})
		},
	}

	root.Flags().StringVar(&gdbFlag, "gdb", "", "override the debugger binary (else env GDB or \"gdb\")")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "echo MI traffic to the log")
	root.Flags().BoolVarP(&useTUI, "tui", "t", false, "launch the TUI instead of the REPL")
	root.Flags().StringVar(&logFile, "log-file", "", "redirect the debug log")
	root.Flags().StringVar(&symbolMode, "symbol-index-mode", "", "none|debug-only|debug-and-nondebug (default: config file, else debug-only)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "memviz:", err)
		os.Exit(1)
	}
}

type runOptions struct {
	gdbFlag    string
	verbose    bool
	useTUI     bool
	logFile    string
	symbolMode string
	target     string
	targetArgs []string
}

func run(opts runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile := opts.logFile
	if err := logger.Init(levelFor(opts.verbose), logFile); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	sessionLog := logger.WithSession(uuid.NewString())

	gdbPath := opts.gdbFlag
	if gdbPath == "" {
		gdbPath = cfg.GDBPath
	}

	target, err := resolveTarget(opts.target, cfg.CCPath)
	if err != nil {
		return err
	}

	modeName := opts.symbolMode
	if modeName == "" {
		modeName = cfg.SymbolIndexMode
	}
	symbolMode, err := parseSymbolMode(modeName)
	if err != nil {
		return err
	}

	sess, err := mi.Start(gdbPath, target, opts.targetArgs, sessionLog)
	if err != nil {
		return fmt.Errorf("start debugger: %w", err)
	}
	defer sess.Shutdown()

	if err := sess.DrainInitialBanner(); err != nil {
		return fmt.Errorf("drain startup banner: %w", err)
	}
	if resp, err := sess.ExecCommand("-gdb-version"); err != nil {
		sessionLog.Warn("version probe failed", "error", err)
	} else {
		sessionLog.Info("debugger version", "output", resp.OOB)
	}
	if resp, err := sess.ExecCommand("-list-features"); err != nil {
		sessionLog.Warn("feature probe failed", "error", err)
	} else {
		sessionLog.Info("debugger features", "result", resp.Result)
	}

	stop, err := sess.RunToEntry()
	if err != nil {
		return fmt.Errorf("run to entry: %w", err)
	}
	sessionLog.Info("stopped at entry", "func", deref(stop.Func), "file", deref(stop.File), "line", derefInt(stop.Line))

	r := repl.New(sess, os.Stdin, os.Stdout, sessionLog, cfg.DefaultHopLimit)
	r.SetSymbolMode(symbolMode)

	if !opts.useTUI {
		return r.Run()
	}

	sourcePath := ""
	if stop.FullName != nil {
		sourcePath = *stop.FullName
	}
	model := ui.New(sess, r, sessionLog, sourcePath, cfg.TUIDebugKeys)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func levelFor(verbose bool) string {
	if verbose {
		return "debug"
	}
	return "info"
}

func parseSymbolMode(s string) (symbols.Mode, error) {
	switch s {
	case "none":
		return symbols.ModeNone, nil
	case "debug-only", "":
		return symbols.ModeDebugOnly, nil
	case "debug-and-nondebug":
		return symbols.ModeDebugAndNonDebug, nil
	default:
		return 0, fmt.Errorf("unknown --symbol-index-mode %q", s)
	}
}

// resolveTarget compiles single-source C/C++ files before handing the
// resulting binary to the debugger; any other path is used as-is.
func resolveTarget(path, ccPath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !sourceExts[ext] {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("inferior path %q: %w", path, err)
		}
		return path, nil
	}
	out := strings.TrimSuffix(path, ext)
	cmd := exec.Command(ccPath, "-g", "-O0", "-fno-omit-frame-pointer", "-o", out, path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("compile %s with %s: %w", path, ccPath, err)
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return "?"
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
