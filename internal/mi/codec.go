package mi

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const promptLine = "(gdb)"

// codec owns the line-oriented read/write half of a session: it writes one
// command per line to the child's stdin and collects out-of-band records up
// to the terminating result record and prompt.
type codec struct {
	w      io.Writer
	r      *bufio.Scanner
	log    *slog.Logger
	lineNo int
}

func newCodec(w io.Writer, r io.Reader, log *slog.Logger) *codec {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &codec{w: w, r: scanner, log: log}
}

// sendLine writes one MI command, appending the trailing newline the
// protocol requires.
func (c *codec) sendLine(cmd string) error {
	c.lineNo++
	c.log.Debug("mi send", "line", c.lineNo, "cmd", cmd)
	if _, err := io.WriteString(c.w, cmd+"\n"); err != nil {
		return fmt.Errorf("%w: write command: %w", ErrTransport, err)
	}
	return nil
}

// readResponse reads lines until the terminating result record, collecting
// every async/stream record seen along the way as out-of-band, then
// consumes the trailing "(gdb)" prompt line.
func (c *codec) readResponse() (MiResponse, error) {
	var oob []string
	for {
		line, err := c.readLine()
		if err != nil {
			return MiResponse{}, err
		}
		if line == "" {
			continue
		}
		if isResultRecord(line) {
			status := ParseStatus(line)
			if err := c.readUntilPrompt(); err != nil {
				return MiResponse{}, err
			}
			return MiResponse{Status: status, Result: line, OOB: oob}, nil
		}
		oob = append(oob, line)
	}
}

// readUntilPrompt discards lines up to and including the literal "(gdb)"
// prompt; any stray lines seen first are dropped (callers that need them,
// such as DrainInitialBanner, use readLinesUntilPrompt instead).
func (c *codec) readUntilPrompt() error {
	for {
		line, err := c.readLine()
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == promptLine {
			return nil
		}
	}
}

// waitForStop reads raw lines emitted after a ^running result record,
// skipping blank lines and any "(gdb)" prompt, until it finds the async
// *stopped record, then consumes through the prompt that follows it.
func (c *codec) waitForStop() (string, error) {
	for {
		line, err := c.readLine()
		if err != nil {
			return "", err
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == promptLine {
			continue
		}
		if strings.HasPrefix(line, "*stopped") {
			if err := c.readUntilPrompt(); err != nil {
				return "", err
			}
			return line, nil
		}
	}
}

// readLinesUntilPrompt collects every line up to (not including) the
// "(gdb)" prompt. Used once at startup to drain the banner.
func (c *codec) readLinesUntilPrompt() ([]string, error) {
	var lines []string
	for {
		line, err := c.readLine()
		if err != nil {
			return lines, err
		}
		if strings.TrimSpace(line) == promptLine {
			return lines, nil
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
}

func (c *codec) readLine() (string, error) {
	if !c.r.Scan() {
		if err := c.r.Err(); err != nil {
			return "", fmt.Errorf("%w: read: %w", ErrTransport, err)
		}
		return "", fmt.Errorf("%w: child stdout closed", ErrTransport)
	}
	line := c.r.Text()
	c.log.Debug("mi recv", "line", line)
	return line, nil
}

func isResultRecord(line string) bool {
	return strings.HasPrefix(line, "^")
}
