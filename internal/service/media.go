package service

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"meeting_autopause/internal/logger"
)

// CommandRunner runs an external command to completion.
type CommandRunner func(ctx context.Context, name string, args ...string) error

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// AppleScriptController drives a scriptable media application through
// osascript. Failures are logged and otherwise ignored.
type AppleScriptController struct {
	app     string
	timeout time.Duration
	run     CommandRunner
	log     *logger.Logger
}

func NewAppleScriptController(app string, timeout time.Duration, log *logger.Logger) *AppleScriptController {
	return &AppleScriptController{app: app, timeout: timeout, run: runCommand, log: log}
}

var _ MediaController = (*AppleScriptController)(nil)

func (c *AppleScriptController) Pause(ctx context.Context) { c.tell(ctx, "pause") }

func (c *AppleScriptController) Resume(ctx context.Context) { c.tell(ctx, "play") }

func (c *AppleScriptController) script(verb string) string {
	return fmt.Sprintf("tell application %q to %s", c.app, verb)
}

func (c *AppleScriptController) tell(ctx context.Context, verb string) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	script := c.script(verb)
	if err := c.run(ctx, "osascript", "-e", script); err != nil {
		if c.log != nil {
			c.log.Debugw("media_command_failed", "app", c.app, "verb", verb, "err", err)
		}
		return
	}
	if c.log != nil {
		c.log.Debugw("media_command_sent", "app", c.app, "verb", verb)
	}
}
