package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Colors for terminal output.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
)

var (
	outMu       sync.Mutex
	out         io.Writer = os.Stdout
	colors                = isTerminal(os.Stdout)
	interactive           = isTerminal(os.Stdout)
)

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SetOutput redirects all narration to w. Colors and spinner animation are
// enabled only when w is a terminal.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
	colors = isTerminal(w)
	interactive = colors
}

// Output returns the current narration writer.
func Output() io.Writer {
	outMu.Lock()
	defer outMu.Unlock()
	return out
}

// DisableColor turns off ANSI escapes regardless of the output kind.
func DisableColor() {
	outMu.Lock()
	defer outMu.Unlock()
	colors = false
}

// Width returns the terminal width, or 80 when stdout is not a terminal.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// c returns the escape code when colors are on, empty otherwise.
func c(code string) string {
	if !colors {
		return ""
	}
	return code
}

func printf(format string, a ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(out, format, a...)
}

// Spinner provides a terminal spinner for long-running operations.
type Spinner struct {
	mu      sync.Mutex
	message string
	running bool
	done    chan struct{}
	stopped chan struct{}
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewSpinner creates a new spinner.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start begins the spinner animation. On a non-interactive output the
// message is printed once instead.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	msg := s.message
	s.mu.Unlock()

	if !interactive {
		printf("  %s...\n", msg)
		close(s.stopped)
		return
	}

	go func() {
		defer close(s.stopped)
		i := 0
		for {
			select {
			case <-s.done:
				return
			default:
				s.mu.Lock()
				msg := s.message
				s.mu.Unlock()

				frame := spinnerFrames[i%len(spinnerFrames)]
				printf("\r%s%s %s%s", c(Cyan), frame, msg, c(Reset))
				i++
				time.Sleep(80 * time.Millisecond)
			}
		}
	}()
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.done)
	<-s.stopped
	if interactive {
		printf("\r%s\r", strings.Repeat(" ", 80))
	}
}

// StopWithMessage stops the spinner and prints a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.Stop()
	printf("%s\n", message)
}

// UI helper functions.

// Success prints a green success message.
func Success(msg string) {
	printf("%s%s✓%s %s\n", c(Bold), c(Green), c(Reset), msg)
}

// Error prints a red error message.
func Error(msg string) {
	printf("%s%s✗%s %s\n", c(Bold), c(Red), c(Reset), msg)
}

// Info prints a blue info message.
func Info(msg string) {
	printf("%s%si%s %s\n", c(Bold), c(Blue), c(Reset), msg)
}

// Warning prints a yellow warning message.
func Warning(msg string) {
	printf("%s%s!%s %s\n", c(Bold), c(Yellow), c(Reset), msg)
}

// Header prints a bold header.
func Header(msg string) {
	printf("\n%s%s%s\n", c(Bold), msg, c(Reset))
}

// Detail prints an indented detail line.
func Detail(label, value string) {
	printf("  %s%s:%s %s\n", c(Dim), label, c(Reset), value)
}

// Step prints a numbered checkpoint heading, e.g. "[3/6] Installing dependencies".
func Step(current, total int, label string) {
	printf("\n%s[%d/%d]%s %s%s%s\n", c(Cyan), current, total, c(Reset), c(Bold), label, c(Reset))
}

// Block prints captured command output indented under a label. Blank output
// prints nothing.
func Block(label, text string) {
	trimmed := strings.TrimRight(text, "\n")
	if strings.TrimSpace(trimmed) == "" {
		return
	}
	printf("  %s%s:%s\n", c(Dim), label, c(Reset))
	for _, line := range strings.Split(trimmed, "\n") {
		printf("    %s\n", line)
	}
}

// Divider prints a horizontal line.
func Divider() {
	printf("%s%s%s\n", c(Dim), strings.Repeat("─", min(Width(), 60)), c(Reset))
}

// Banner prints the welcome box with the given version.
func Banner(version string) {
	printf("\n")
	printf("  %s╭─────────────────────────────────╮%s\n", c(Dim), c(Reset))
	printf("  %s│%s  distcheck %s%-21s%s%s│%s\n", c(Dim), c(Reset), c(Bold), "v"+version, c(Reset), c(Dim), c(Reset))
	printf("  %s│%s  Front-end build smoke test     %s│%s\n", c(Dim), c(Reset), c(Dim), c(Reset))
	printf("  %s╰─────────────────────────────────╯%s\n", c(Dim), c(Reset))
	printf("\n")
}

// Mark returns a colored ✓ or ✗ for summary lines.
func Mark(ok bool) string {
	if ok {
		return c(Green) + "✓" + c(Reset)
	}
	return c(Red) + "✗" + c(Reset)
}
