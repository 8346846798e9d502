// Package display renders the shared status in the terminal. It only
// reads snapshots and never drives the monitor.
package display

import (
	"context"
	"strings"
	"time"

	"meeting_autopause/internal/models"
	"meeting_autopause/internal/service"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

const (
	// Title is the heading of the status display.
	Title = "Mac Meeting Auto-Pause"

	defaultRefresh = 250 * time.Millisecond
	fetchTimeout   = time.Second
)

// statusMsg carries one snapshot, or the error that prevented reading it.
// Manual snapshots come from a key press and do not schedule a tick; only
// the polling chain does.
type statusMsg struct {
	status models.Status
	err    error
	manual bool
}

type tickMsg struct{}

// Model is the bubbletea model for the status display.
type Model struct {
	source    service.Monitoring
	refresh   time.Duration
	predicate string
	keys      KeyMap
	now       func() time.Time

	status   models.Status
	err      error
	loaded   bool
	quitting bool
	width    int
}

// New returns a display polling source every refresh interval.
func New(source service.Monitoring, refresh time.Duration, predicate string) Model {
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	return Model{
		source:    source,
		refresh:   refresh,
		predicate: predicate,
		keys:      DefaultKeyMap,
		now:       time.Now,
		status:    models.NewStatus(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.fetch(false)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.fetch(true)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case statusMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.status = msg.status
			m.err = nil
			m.loaded = true
		}
		if msg.manual {
			return m, nil
		}
		return m, m.scheduleTick()
	case tickMsg:
		return m, m.fetch(false)
	}
	return m, nil
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool { return m.quitting }

func (m Model) fetch(manual bool) tea.Cmd {
	source := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		st, err := source.GetStatus(ctx)
		return statusMsg{status: st, err: err, manual: manual}
	}
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(Title))
	b.WriteString("\n")
	b.WriteString(row("Camera:", cameraText(m.status.Camera)))
	b.WriteString(row("Music:", playbackText(m.status.Playback)))
	b.WriteString(row("Monitor:", m.monitorText()))
	b.WriteString("\n")
	b.WriteString(row("Last:", m.status.LastEvent))
	if !m.status.DetectedAt.IsZero() {
		b.WriteString(row("", dimStyle.Render(humanize.RelTime(m.status.DetectedAt, m.now(), "ago", "from now"))))
	}
	if m.predicate != "" {
		b.WriteString(row("Watching:", dimStyle.Render(m.predicate)))
	}
	if m.err != nil {
		b.WriteString(row("Error:", errorStyle.Render(m.err.Error())))
	}

	box := boxStyle
	if m.width > 4 {
		box = box.MaxWidth(m.width)
	}
	return box.Render(strings.TrimRight(b.String(), "\n")) + "\n" + m.helpLine() + "\n"
}

func (m Model) monitorText() string {
	switch m.status.Monitor {
	case models.MonitorRunning:
		return onStyle.Render("running")
	case models.MonitorRestarting:
		return pausedStyle.Render("restarting") + dimStyle.Render(" ("+m.status.MonitorError+")")
	case models.MonitorStopped:
		text := offStyle.Render("stopped")
		if m.status.MonitorError != "" {
			text += dimStyle.Render(" (" + m.status.MonitorError + ")")
		}
		return text
	default:
		return unknownStyle.Render(string(models.MonitorIdle))
	}
}

func (m Model) helpLine() string {
	parts := make([]string, 0, 2)
	for _, binding := range []key.Binding{m.keys.Refresh, m.keys.Quit} {
		h := binding.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return dimStyle.Render(strings.Join(parts, " • "))
}

func row(label, value string) string {
	return labelStyle.Render(label) + value + "\n"
}

func cameraText(s models.CameraState) string {
	switch s {
	case models.CameraOn:
		return onStyle.Render("ON (In Meeting)")
	case models.CameraOff:
		return offStyle.Render("OFF")
	default:
		return unknownStyle.Render("Unknown")
	}
}

func playbackText(s models.PlaybackState) string {
	if s == models.Paused {
		return pausedStyle.Render("PAUSED")
	}
	return playingStyle.Render("PLAYING")
}
