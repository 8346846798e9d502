package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"meeting_autopause/internal/logger"
	"meeting_autopause/internal/models"
	"meeting_autopause/internal/repository"
)

// MonitorOptions bounds restarts after the log stream ends on its own.
// MaxRestarts == 0 stops monitoring on the first end of stream.
type MonitorOptions struct {
	MaxRestarts    int
	RestartBackoff time.Duration
	MaxBackoff     time.Duration
}

const (
	defaultRestartBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second

	// maxLineBytes is well above any unified-log line.
	maxLineBytes = 1 << 20
)

var (
	ErrMonitorStarted = errors.New("camera monitor already started")
	errStreamEnded    = errors.New("log stream ended")
)

// CameraMonitorService reads the camera log stream on one background
// goroutine, applies transitions to the shared status and issues
// pause/resume commands.
type CameraMonitorService struct {
	source     LineSource
	media      MediaController
	statusRepo repository.StatusRepo
	eventRepo  repository.EventRepo
	log        *logger.Logger
	opts       MonitorOptions
	now        func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewCameraMonitorService(
	source LineSource,
	media MediaController,
	statusRepo repository.StatusRepo,
	eventRepo repository.EventRepo,
	log *logger.Logger,
	opts MonitorOptions,
) *CameraMonitorService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.RestartBackoff <= 0 {
		opts.RestartBackoff = defaultRestartBackoff
	}
	if opts.MaxBackoff < opts.RestartBackoff {
		opts.MaxBackoff = maxDuration(defaultMaxBackoff, opts.RestartBackoff)
	}
	return &CameraMonitorService{
		source:     source,
		media:      media,
		statusRepo: statusRepo,
		eventRepo:  eventRepo,
		log:        log,
		opts:       opts,
		now:        time.Now,
	}
}

// Start opens the log stream and launches the read loop. A failure to open
// the stream is returned as is: the monitor cannot run without it.
func (s *CameraMonitorService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return ErrMonitorStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	stream, err := s.source.Open(runCtx)
	if err != nil {
		cancel()
		s.setMonitor(ctx, models.MonitorStopped, err.Error())
		return fmt.Errorf("start log stream: %w", err)
	}

	s.cancel = cancel
	s.done = make(chan struct{})

	s.setMonitor(runCtx, models.MonitorRunning, "")
	s.record(runCtx, models.EventMonitorStarted, "Camera monitor started", nil)
	s.log.Infow("camera_monitor_started", "max_restarts", s.opts.MaxRestarts)

	go s.run(runCtx, stream)
	return nil
}

// Stop cancels the read loop, kills the subprocess and waits for the loop
// to return. Safe to call more than once or before Start.
func (s *CameraMonitorService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the read loop has returned for good.
func (s *CameraMonitorService) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		// never started: nothing will ever close a fresh channel
		return make(chan struct{})
	}
	return s.done
}

// HandleLine classifies one log line and applies the transition, if any.
// It reports whether the camera state changed.
func (s *CameraMonitorService) HandleLine(ctx context.Context, line string) bool {
	s.log.Debugw("log_line", "line", line)

	cam := Classify(line)
	at := s.now()

	st, changed, err := s.statusRepo.Update(ctx, func(st *models.Status) bool {
		return applyTransition(st, cam, at)
	})
	if err != nil || !changed {
		return false
	}

	eventType := models.EventCameraOff
	if st.Camera == models.CameraOn {
		s.log.Infow("camera_transition", "camera", st.Camera.String(), "action", "pause")
		s.media.Pause(ctx)
		eventType = models.EventCameraOn
	} else {
		s.log.Infow("camera_transition", "camera", st.Camera.String(), "action", "resume")
		s.media.Resume(ctx)
	}

	s.record(ctx, eventType, st.LastEvent, map[string]any{
		"playback": st.Playback.String(),
	})
	return true
}

// run consumes the stream until it ends, restarting it within the
// configured budget. The budget is refilled whenever a stream yields lines.
func (s *CameraMonitorService) run(ctx context.Context, stream io.ReadCloser) {
	defer close(s.done)

	attempts := 0
	var cause error
	for {
		if stream != nil {
			n, err := s.consume(ctx, stream)
			_ = stream.Close()
			stream = nil
			if n > 0 {
				attempts = 0
			}
			cause = err
			if cause == nil {
				cause = errStreamEnded
			}
		}
		if ctx.Err() != nil {
			return
		}

		if attempts >= s.opts.MaxRestarts {
			s.log.Warnw("camera_monitor_stopped", "err", cause, "restarts", attempts)
			s.setMonitor(ctx, models.MonitorStopped, cause.Error())
			s.record(ctx, models.EventMonitorStopped, "Camera monitor stopped: "+cause.Error(), nil)
			return
		}

		attempts++
		delay := s.backoff(attempts)
		s.log.Warnw("camera_monitor_restarting", "err", cause, "attempt", attempts, "delay", delay)
		s.setMonitor(ctx, models.MonitorRestarting, cause.Error())
		if !sleepCtx(ctx, delay) {
			return
		}

		next, err := s.source.Open(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Errorw("camera_monitor_reopen_failed", "err", err, "attempt", attempts)
			// loop again with no stream so the failure consumes an attempt
			cause = err
			continue
		}
		stream = next
		s.setMonitor(ctx, models.MonitorRunning, "")
		s.record(ctx, models.EventMonitorRestarted, fmt.Sprintf("Camera monitor restarted (attempt %d)", attempts), nil)
	}
}

// consume feeds every line to HandleLine until EOF, a read error or
// cancellation. Lines read after cancellation are dropped.
func (s *CameraMonitorService) consume(ctx context.Context, stream io.ReadCloser) (int, error) {
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer stop()

	sc := bufio.NewScanner(stream)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	n := 0
	for sc.Scan() {
		if ctx.Err() != nil {
			return n, nil
		}
		n++
		s.HandleLine(ctx, sc.Text())
	}
	if ctx.Err() != nil {
		return n, nil
	}
	return n, sc.Err()
}

// backoff doubles from RestartBackoff, capped at MaxBackoff.
func (s *CameraMonitorService) backoff(attempt int) time.Duration {
	d := s.opts.RestartBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= s.opts.MaxBackoff {
			return s.opts.MaxBackoff
		}
	}
	return d
}

func (s *CameraMonitorService) setMonitor(ctx context.Context, state models.MonitorState, msg string) {
	_, _, err := s.statusRepo.Update(ctx, func(st *models.Status) bool {
		if st.Monitor == state && st.MonitorError == msg {
			return false
		}
		st.Monitor = state
		st.MonitorError = msg
		return true
	})
	if err != nil && ctx.Err() == nil {
		s.log.Errorw("status_update_failed", "err", err)
	}
}

// record appends to the history. Failures never reach the caller.
func (s *CameraMonitorService) record(ctx context.Context, typ, description string, meta map[string]any) {
	if s.eventRepo == nil {
		return
	}
	err := s.eventRepo.Append(ctx, models.CameraEvent{
		OccurredAt:  s.now().UTC(),
		Type:        typ,
		Description: description,
		Metadata:    meta,
	})
	if err != nil && ctx.Err() == nil {
		s.log.Errorw("history_append_failed", "type", typ, "err", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a >= b {
		return a
	}
	return b
}
