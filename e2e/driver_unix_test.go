//go:build e2e && unix

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"
)

// Terminal input for the keys the prompt reacts to
const (
	keyEnter = "\r"
	keyCtrlC = "\x03"
	keyEsc   = "\x1b"
	keyDown  = "\x1b[B"
	keyUp    = "\x1b[A"
)

const waitTimeout = 3 * time.Second

// escapes matches CSI, OSC, charset and keypad sequences plus carriage returns
var escapes = regexp.MustCompile(`\x1b\[[0-9;?<>]*[ -/]*[@-~]|\x1b\][^\x07]*\x07|\x1b[()][A-Za-z0-9]|\x1b[=>]|\r`)

// session runs one autosuggest process on a pseudo terminal and records
// everything it draws
type session struct {
	t    *testing.T
	dir  string
	cmd  *exec.Cmd
	ptmx *os.File

	mu  sync.Mutex
	out bytes.Buffer

	exited  chan struct{}
	exitErr error
}

func newSession(t *testing.T) *session {
	t.Helper()
	s := &session{t: t, dir: t.TempDir(), exited: make(chan struct{})}
	t.Cleanup(s.close)
	return s
}

// writeFile creates a file in the session directory and returns its path
func (s *session) writeFile(name, content string) string {
	s.t.Helper()
	path := filepath.Join(s.dir, name)
	require.NoError(s.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// start launches the prompt and waits for its first frame
func (s *session) start(args ...string) {
	s.t.Helper()

	s.cmd = exec.Command(binary, args...)
	s.cmd.Dir = s.dir
	s.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"HOME="+s.dir,
		"XDG_CONFIG_HOME="+s.dir,
	)

	ptmx, err := pty.StartWithSize(s.cmd, &pty.Winsize{Rows: 24, Cols: 80})
	require.NoError(s.t, err, "failed to start autosuggest")
	s.ptmx = ptmx

	go s.record()
	go func() {
		s.exitErr = s.cmd.Wait()
		close(s.exited)
	}()

	s.expect("start typing")
}

func (s *session) record() {
	buf := make([]byte, 4096)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.out.Write(buf[:n])
			s.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// send writes raw terminal input
func (s *session) send(keys ...string) {
	s.t.Helper()
	for _, k := range keys {
		_, err := io.WriteString(s.ptmx, k)
		require.NoError(s.t, err)
	}
}

// click sends an SGR left press and release at a zero based cell
func (s *session) click(x, y int) {
	s.t.Helper()
	s.send(fmt.Sprintf("\x1b[<0;%d;%dM", x+1, y+1), fmt.Sprintf("\x1b[<0;%d;%dm", x+1, y+1))
}

// screen is everything drawn so far with escape sequences removed
func (s *session) screen() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return escapes.ReplaceAllString(s.out.String(), "")
}

// expect waits until text has been drawn, failing with the screen tail
func (s *session) expect(text string) {
	s.t.Helper()
	s.expectThat(func(screen string) bool { return strings.Contains(screen, text) }, "never saw %q", text)
}

// expectLast waits until the final output line ends with text
func (s *session) expectLast(text string) {
	s.t.Helper()
	s.expectThat(func(screen string) bool {
		lines := strings.Split(strings.TrimRight(screen, "\n"), "\n")
		return strings.HasSuffix(lines[len(lines)-1], text)
	}, "last line does not end with %q", text)
}

func (s *session) expectThat(ok func(string) bool, format string, args ...any) {
	s.t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !ok(s.screen()) {
		if time.Now().After(deadline) {
			s.t.Fatalf("%s\n--- screen tail ---\n%s", fmt.Sprintf(format, args...), s.tail(2048))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func (s *session) tail(n int) string {
	screen := s.screen()
	if len(screen) > n {
		screen = screen[len(screen)-n:]
	}
	return screen
}

// exitCode waits for the process and returns its status
func (s *session) exitCode() int {
	s.t.Helper()
	select {
	case <-s.exited:
	case <-time.After(waitTimeout):
		s.t.Fatalf("autosuggest did not exit\n--- screen tail ---\n%s", s.tail(2048))
	}

	var exitErr *exec.ExitError
	if errors.As(s.exitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	require.NoError(s.t, s.exitErr)
	return 0
}

func (s *session) close() {
	if s.cmd != nil && s.cmd.Process != nil {
		select {
		case <-s.exited:
		default:
			_ = s.cmd.Process.Kill()
			<-s.exited
		}
	}
	if s.ptmx != nil {
		_ = s.ptmx.Close()
	}
}
