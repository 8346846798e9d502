package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"meeting_autopause/internal/logger"
)

// CameraPredicate limits `log stream` to camera state messages.
const CameraPredicate = `eventMessage contains "Cameras changed to"`

// stderrLimit caps how much subprocess stderr is kept for diagnostics.
const stderrLimit = 4 << 10

// DefaultLogStreamArgs are the arguments passed to the log command.
func DefaultLogStreamArgs() []string {
	return []string{"stream", "--predicate", CameraPredicate}
}

// LogStreamSource spawns the macOS unified log stream.
type LogStreamSource struct {
	command string
	args    []string
	log     *logger.Logger
}

func NewLogStreamSource(command string, log *logger.Logger) *LogStreamSource {
	return &LogStreamSource{command: command, args: DefaultLogStreamArgs(), log: log}
}

var _ LineSource = (*LogStreamSource)(nil)

// Open starts the subprocess and returns its stdout. Closing the stream,
// or cancelling ctx, kills the subprocess.
func (s *LogStreamSource) Open(ctx context.Context) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, s.command, s.args...)
	stderr := &boundedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe for %s: %w", s.command, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn %s: %w", s.command, err)
	}
	if s.log != nil {
		s.log.Infow("log_stream_started", "command", s.command, "args", s.args, "pid", cmd.Process.Pid)
	}
	return &processStream{cmd: cmd, stdout: stdout, stderr: stderr, log: s.log}, nil
}

type processStream struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *boundedBuffer
	log    *logger.Logger

	once sync.Once
	err  error
}

func (p *processStream) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

// Close kills the subprocess if it is still running and reaps it.
func (p *processStream) Close() error {
	p.once.Do(func() {
		if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.err = err
		}
		waitErr := p.cmd.Wait()
		if p.log != nil {
			p.log.Debugw("log_stream_exited", "err", waitErr, "stderr", p.stderr.String())
		}
	})
	return p.err
}

// boundedBuffer keeps the first limit bytes written to it.
type boundedBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.limit - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *boundedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
