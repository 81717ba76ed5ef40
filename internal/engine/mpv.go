package engine

import (
	"bufio"
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

// ipcConn is a line-oriented JSON-IPC connection to an mpv process
// (--input-ipc-server). Requests carry a request_id for correlation;
// everything without one is an asynchronous event.
type ipcConn struct {
	conn    net.Conn
	logger  *slog.Logger
	onEvent func(ipcMessage)

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan ipcMessage

	closeOnce sync.Once
	done      chan struct{}
}

type ipcMessage struct {
	Event     string `json:"event,omitempty"`
	Name      string `json:"name,omitempty"`
	Data      any    `json:"data,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID int64  `json:"request_id,omitempty"`
}

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

func dialIPC(socketPath string, onEvent func(ipcMessage), logger *slog.Logger) (*ipcConn, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial engine socket %s: %w", socketPath, err)
	}

	c := &ipcConn{
		conn:    conn,
		logger:  logger,
		onEvent: onEvent,
		pending: make(map[int64]chan ipcMessage),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *ipcConn) readLoop() {
	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			if c.logger != nil {
				c.logger.Warn("unparseable engine message", "error", err)
			}
			continue
		}

		if msg.RequestID != 0 {
			c.mu.Lock()
			ch, ok := c.pending[msg.RequestID]
			delete(c.pending, msg.RequestID)
			c.mu.Unlock()
			if ok {
				ch <- msg
			}
			continue
		}
		if msg.Event != "" && c.onEvent != nil {
			c.onEvent(msg)
		}
	}
	c.close()
}

// command sends one command and waits for its reply.
func (c *ipcConn) command(ctx context.Context, args ...any) (any, error) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	ch := make(chan ipcMessage, 1)
	c.pending[id] = ch

	payload, err := json.Marshal(ipcRequest{Command: args, RequestID: id})
	if err != nil {
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, err
	}
	_, err = c.conn.Write(append(payload, '\n'))
	c.mu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("write engine command: %w", err)
	}

	select {
	case msg := <-ch:
		if msg.Error != "" && msg.Error != "success" {
			return nil, fmt.Errorf("engine command %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("engine connection closed")
	}
}

func (c *ipcConn) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *ipcConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Observed property ids for the current engine connection.
const (
	obsTimePos  = 1
	obsDuration = 2
)

// MPVDriver is the current engine's driver: an mpv process spoken to over
// JSON-IPC with property observers, translated into millisecond events.
type MPVDriver struct {
	conn   *ipcConn
	logger *slog.Logger
	events chan DriverEvent
}

// DialMPV connects to a running mpv instance and subscribes to playback
// property changes.
func DialMPV(socketPath string, logger *slog.Logger) (*MPVDriver, error) {
	d := &MPVDriver{
		logger: logger,
		events: make(chan DriverEvent, 64),
	}

	conn, err := dialIPC(socketPath, d.handleEvent, logger)
	if err != nil {
		return nil, err
	}
	d.conn = conn

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := conn.command(ctx, "observe_property", obsTimePos, "time-pos"); err != nil {
		conn.close()
		return nil, err
	}
	if _, err := conn.command(ctx, "observe_property", obsDuration, "duration"); err != nil {
		conn.close()
		return nil, err
	}
	return d, nil
}

func (d *MPVDriver) Load(ctx context.Context, url string) error {
	// Hold paused until an explicit Play.
	if _, err := d.conn.command(ctx, "set_property", "pause", true); err != nil {
		return err
	}
	_, err := d.conn.command(ctx, "loadfile", url, "replace")
	return err
}

func (d *MPVDriver) Play(ctx context.Context) error {
	_, err := d.conn.command(ctx, "set_property", "pause", false)
	return err
}

func (d *MPVDriver) Pause(ctx context.Context) error {
	_, err := d.conn.command(ctx, "set_property", "pause", true)
	return err
}

func (d *MPVDriver) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := d.conn.command(ctx, "stop")
	return err
}

func (d *MPVDriver) Seek(ctx context.Context, positionMs int64) error {
	_, err := d.conn.command(ctx, "set_property", "time-pos", secondsFromMs(positionMs))
	return err
}

func (d *MPVDriver) SetRate(rate float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := d.conn.command(ctx, "set_property", "speed", rate)
	return err
}

func (d *MPVDriver) Events() <-chan DriverEvent { return d.events }

func (d *MPVDriver) Close() error {
	d.conn.close()
	return nil
}

func (d *MPVDriver) handleEvent(msg ipcMessage) {
	switch msg.Event {
	case "property-change":
		value, ok := msg.Data.(float64)
		if !ok {
			return
		}
		switch msg.Name {
		case "time-pos":
			d.emit(DriverEvent{Kind: DriverPosition, PositionMs: msFromSeconds(value)})
		case "duration":
			d.emit(DriverEvent{Kind: DriverLoaded, DurationMs: msFromSeconds(value)})
		}
	case "end-file":
		switch msg.Reason {
		case "eof":
			d.emit(DriverEvent{Kind: DriverEnded})
		case "error":
			d.emit(DriverEvent{Kind: DriverFailed, Reason: "engine reported playback error"})
		}
	}
}

func (d *MPVDriver) emit(ev DriverEvent) {
	select {
	case d.events <- ev:
	default:
		if d.logger != nil {
			d.logger.Warn("engine event dropped", "kind", ev.Kind)
		}
	}
}
