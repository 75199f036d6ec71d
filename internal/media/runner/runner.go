// Package runner executes the external media tools (yt-dlp, ffmpeg,
// edge-tts) and normalizes their failures into diagnosable errors.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"syscall"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// yt-dlp can emit very long single lines (format tables, JSON blobs).
	maxLineBytes = 1 << 20
	errTailLines = 6
)

type Runner interface {
	// Run executes the command and returns its stdout. On failure the error
	// carries the exit status and the tail of stderr.
	Run(ctx context.Context, name string, args ...string) (string, error)
	// RunStreaming executes the command and feeds every output line (stdout
	// and stderr interleaved) to onLine as it appears.
	RunStreaming(ctx context.Context, onLine func(string), name string, args ...string) error
}

// Exec is the Runner backed by real processes.
type Exec struct{}

func New() *Exec { return &Exec{} }

func (e *Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.WithField("cmd", name).Debug(strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return stdout.String(), commandError(name, err, stderr.Bytes())
	}
	return stdout.String(), nil
}

func (e *Exec) RunStreaming(ctx context.Context, onLine func(string), name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrapf(err, "stdout pipe for %s", name)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrapf(err, "stderr pipe for %s", name)
	}

	log.WithField("cmd", name).Debug(strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "start %s", name)
	}

	var tail tailBuffer
	var wg sync.WaitGroup
	wg.Add(2)
	go streamPipe(stdoutPipe, onLine, nil, &wg)
	go streamPipe(stderrPipe, onLine, &tail, &wg)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return commandError(name, err, []byte(tail.String()))
	}
	return nil
}

func streamPipe(pipe io.Reader, onLine func(string), tail *tailBuffer, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if tail != nil {
			tail.Add(line)
		}
		if onLine != nil {
			onLine(line)
		}
	}
}

// tailBuffer keeps the last few lines written to it.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (t *tailBuffer) Add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > errTailLines {
		t.lines = t.lines[len(t.lines)-errTailLines:]
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines, "\n")
}

func commandError(desc string, err error, stderr []byte) error {
	tail := tailOf(stderr, errTailLines)
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if tail != "" {
				return errors.Wrapf(err, "%s exited with status %d: %s", desc, status.ExitStatus(), tail)
			}
			return errors.Wrapf(err, "%s exited with status %d", desc, status.ExitStatus())
		}
	}
	if tail != "" {
		return errors.Wrapf(err, "%s failed: %s", desc, tail)
	}
	return errors.Wrapf(err, "%s failed", desc)
}

func tailOf(out []byte, n int) string {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
