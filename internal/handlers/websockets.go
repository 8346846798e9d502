package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"meeting_autopause/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	// clients only send control frames
	wsReadLimit = 512

	streamDefault = time.Second
	streamMax     = 10 * time.Second

	wsTypeStatus = "status"
)

type statusFrame struct {
	Type string        `json:"type"`
	Data models.Status `json:"data"`
}

// Peers are already restricted by loopbackOnly, so any origin is accepted.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// @Summary      Status stream
// @Description  Upgrades to a WebSocket and pushes {"type":"status","data":Status} immediately and then every interval (default 1s, max 10s).
// @Tags         status
// @Param        interval     query  string  false  "Go duration, e.g. 500ms"
// @Param        interval_ms  query  int     false  "Interval in milliseconds"
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := streamInterval(c.Query("interval"), c.Query("interval_ms"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	h.streamStatus(c.Request.Context(), conn, interval, watchClient(conn))
}

// streamInterval prefers ?interval (a Go duration) over ?interval_ms. The
// first value in (0, streamMax] wins; otherwise the default applies.
func streamInterval(duration, millis string) time.Duration {
	var candidates []time.Duration
	if d, err := time.ParseDuration(duration); err == nil {
		candidates = append(candidates, d)
	}
	if n, err := strconv.Atoi(millis); err == nil {
		candidates = append(candidates, time.Duration(n)*time.Millisecond)
	}
	for _, d := range candidates {
		if d > 0 && d <= streamMax {
			return d
		}
	}
	return streamDefault
}

// watchClient drains incoming frames so pongs are processed. The returned
// channel closes when the client goes away or stops answering pings.
func watchClient(conn *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})
	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return gone
}

// streamStatus writes a snapshot now and on every tick, pinging in between.
// Any write or status failure ends the stream.
func (h *Handler) streamStatus(ctx context.Context, conn *websocket.Conn, interval time.Duration, gone <-chan struct{}) {
	push := time.NewTicker(interval)
	defer push.Stop()
	ping := time.NewTicker(wsPongWait * 9 / 10)
	defer ping.Stop()

	if err := h.writeStatus(ctx, conn); err != nil {
		return
	}
	for {
		select {
		case <-gone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-push.C:
			if err := h.writeStatus(ctx, conn); err != nil {
				if h.log != nil {
					h.log.Debugw("ws_stream_closed", "err", err)
				}
				return
			}
		}
	}
}

func (h *Handler) writeStatus(ctx context.Context, conn *websocket.Conn) error {
	st, err := h.services.Monitoring.GetStatus(ctx)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_get_status_failed", "err", err)
		}
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(statusFrame{Type: wsTypeStatus, Data: st})
}
