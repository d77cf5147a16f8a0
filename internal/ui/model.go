// Package ui implements the 4-pane terminal view: Source beside VmCanvas on
// the top row, Symbols beside Detail on the bottom row, with keyboard focus moving
// between panes and a ":"-prefixed command line reusing the REPL grammar.
package ui

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/ehrlich-b/memviz/internal/mi"
	"github.com/ehrlich-b/memviz/internal/present"
	"github.com/ehrlich-b/memviz/internal/repl"
	"github.com/ehrlich-b/memviz/internal/symbols"
	"github.com/ehrlich-b/memviz/internal/vmmap"
)

const sourcePlaceholder = "(no source file resolved for the current stop location)"
const symbolsPlaceholder = "(no symbols loaded yet — press r to refresh)"
const vmPlaceholder = "(no region map yet — press r to refresh)"
const detailPlaceholder = "type :<command> and press enter (same grammar as the REPL); arrows/j/k scroll the focused pane"

type mode int

const (
	modeNormal mode = iota
	modeCommand
)

// Model is the bubbletea root model for the TUI.
type Model struct {
	sess      *mi.Session
	repl      *repl.REPL
	theme     Theme
	log       *slog.Logger
	debugKeys bool

	width, height int
	focus         PaneID
	mode          mode
	cmdline       string

	source  viewport.Model
	vm      viewport.Model
	symbols viewport.Model
	detail  viewport.Model

	sourcePath string
	watcher    *fsnotify.Watcher
	statusMsg  string
}

// New constructs the TUI model. sourcePath may be empty if no source file
// could be resolved from the stop location yet.
func New(sess *mi.Session, r *repl.REPL, log *slog.Logger, sourcePath string, debugKeys bool) *Model {
	m := &Model{
		sess:       sess,
		repl:       r,
		theme:      DefaultTheme(),
		log:        log,
		debugKeys:  debugKeys,
		focus:      PaneSource,
		sourcePath: sourcePath,
	}
	m.source = viewport.New(40, 20)
	m.vm = viewport.New(40, 20)
	m.symbols = viewport.New(40, 10)
	m.detail = viewport.New(40, 10)
	m.source.SetContent(sourcePlaceholder)
	m.symbols.SetContent(symbolsPlaceholder)
	m.vm.SetContent(vmPlaceholder)
	m.detail.SetContent(detailPlaceholder)
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.refreshSourceCmd(), m.refreshSymbolsCmd(), m.refreshVMCmd()}
	if w, err := fsnotify.NewWatcher(); err == nil {
		m.watcher = w
		if m.sourcePath != "" {
			_ = w.Add(m.sourcePath)
		}
		cmds = append(cmds, m.watchSourceCmd())
	}
	return tea.Batch(cmds...)
}

type sourceMsg struct{ content string }
type symbolsMsg struct{ content string }
type vmMsg struct{ content string }
type errMsg struct {
	pane PaneID
	err  error
}

func (m *Model) refreshSourceCmd() tea.Cmd {
	return func() tea.Msg {
		if m.sourcePath == "" {
			return sourceMsg{content: sourcePlaceholder}
		}
		data, err := os.ReadFile(m.sourcePath)
		if err != nil {
			return errMsg{pane: PaneSource, err: err}
		}
		return sourceMsg{content: string(data)}
	}
}

// refreshSymbolsCmd groups the backend's file-scoped globals by their
// declaring file, so a multi-file target doesn't dump one undifferentiated
// list into the pane.
func (m *Model) refreshSymbolsCmd() tea.Cmd {
	return func() tea.Msg {
		globals, err := m.sess.ListGlobals(nil)
		if err != nil {
			return errMsg{pane: PaneSymbols, err: err}
		}
		idx := symbols.NewIndex()
		byName := make(map[string]mi.GlobalVar, len(globals))
		for _, g := range globals {
			file := g.File
			if file == "" {
				file = "?"
			}
			idx.Add(symbols.GlobalInfo{Name: g.Name, TypeName: g.Type, File: file})
			byName[g.Name] = g
		}
		var b strings.Builder
		for file, infos := range idx.GlobalsByFile {
			fmt.Fprintf(&b, "-- %s --\n", file)
			for _, info := range infos {
				g := byName[info.Name]
				fmt.Fprintf(&b, "%-20s %-16s = %s\n", g.Name, g.Type, present.PrettifyValue(g.Value))
			}
		}
		if b.Len() == 0 {
			b.WriteString(symbolsPlaceholder)
		}
		return symbolsMsg{content: b.String()}
	}
}

func (m *Model) refreshVMCmd() tea.Cmd {
	return func() tea.Msg {
		pid, err := m.sess.InferiorPID()
		if err != nil {
			return errMsg{pane: PaneVmCanvas, err: err}
		}
		regions, err := vmmap.ReadProcMaps(pid)
		if err != nil {
			return errMsg{pane: PaneVmCanvas, err: err}
		}
		return vmMsg{content: present.VMRegions(regions)}
	}
}

func (m *Model) watchSourceCmd() tea.Cmd {
	return func() tea.Msg {
		if m.watcher == nil {
			return nil
		}
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if m.debugKeys {
				m.log.Debug("fsnotify event", "event", ev.String())
			}
			return fsEventMsg{}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return errMsg{pane: PaneSource, err: err}
		}
	}
}

type fsEventMsg struct{}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case sourceMsg:
		m.source.SetContent(msg.content)
		return m, nil
	case symbolsMsg:
		m.symbols.SetContent(msg.content)
		return m, nil
	case vmMsg:
		m.vm.SetContent(msg.content)
		return m, nil
	case fsEventMsg:
		return m, tea.Batch(m.refreshSourceCmd(), m.watchSourceCmd())
	case errMsg:
		m.statusMsg = m.theme.ErrorText.Render(fmt.Sprintf("%s: %v", msg.pane, msg.err))
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.debugKeys {
		m.log.Debug("tui key", "key", msg.String(), "mode", m.mode)
	}
	if m.mode == modeCommand {
		switch msg.Type {
		case tea.KeyEnter:
			return m, m.runCommand()
		case tea.KeyEsc:
			m.mode = modeNormal
			m.cmdline = ""
			return m, nil
		case tea.KeyBackspace:
			if len(m.cmdline) > 0 {
				m.cmdline = m.cmdline[:len(m.cmdline)-1]
			}
			return m, nil
		case tea.KeyRunes:
			m.cmdline += string(msg.Runes)
			return m, nil
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.focus = m.focus.next()
		return m, nil
	case ":":
		m.mode = modeCommand
		m.cmdline = ""
		return m, nil
	case "r":
		return m, tea.Batch(m.refreshSourceCmd(), m.refreshSymbolsCmd(), m.refreshVMCmd())
	}

	vp := m.focusedViewport()
	*vp, _ = vp.Update(msg)
	return m, nil
}

func (m *Model) runCommand() tea.Cmd {
	line := m.cmdline
	m.mode = modeNormal
	m.cmdline = ""
	return func() tea.Msg {
		var buf bytes.Buffer
		m.repl.SetOutput(&buf)
		_, err := m.repl.Dispatch(line)
		m.detail.SetContent(buf.String())
		if err != nil {
			return errMsg{pane: PaneDetail, err: err}
		}
		return nil
	}
}

func (m *Model) focusedViewport() *viewport.Model {
	switch m.focus {
	case PaneSource:
		return &m.source
	case PaneVmCanvas:
		return &m.vm
	case PaneSymbols:
		return &m.symbols
	default:
		return &m.detail
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	topHeight := height * 6 / 10
	bottomHeight := height - topHeight - 1
	halfWidth := width / 2

	m.source.Width, m.source.Height = halfWidth-2, topHeight-2
	m.vm.Width, m.vm.Height = width-halfWidth-2, topHeight-2
	m.symbols.Width, m.symbols.Height = halfWidth-2, bottomHeight-2
	m.detail.Width, m.detail.Height = width-halfWidth-2, bottomHeight-2
}

func (m *Model) View() string {
	pane := func(id PaneID, vp viewport.Model) string {
		style := m.theme.PaneBorder
		if m.focus == id {
			style = m.theme.FocusedPaneBorder
		}
		title := m.theme.PaneTitle.Render(id.String())
		return style.Render(title + "\n" + vp.View())
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, pane(PaneSource, m.source), pane(PaneVmCanvas, m.vm))
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, pane(PaneSymbols, m.symbols), pane(PaneDetail, m.detail))
	body := lipgloss.JoinVertical(lipgloss.Left, top, bottom)

	status := m.statusMsg
	if m.mode == modeCommand {
		status = ":" + m.cmdline
	} else if status == "" {
		status = "tab: switch pane  :: command  r: refresh  q: quit"
	}
	return body + "\n" + m.theme.StatusBar.Width(m.width).Render(status)
}
