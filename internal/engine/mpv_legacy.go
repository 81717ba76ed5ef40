package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MPVSecondsDriver is the legacy engine's driver. It predates the event
// rewrite: the same mpv JSON-IPC socket, but no property observers.
// Callers poll Progress, which issues synchronous get_property calls, and
// the only event the connection is read for is end-of-file.
type MPVSecondsDriver struct {
	conn   *ipcConn
	logger *slog.Logger

	mu       sync.Mutex
	finished chan struct{}
}

// DialMPVSeconds connects to a running mpv instance in the legacy
// poll-based mode.
func DialMPVSeconds(socketPath string, logger *slog.Logger) (*MPVSecondsDriver, error) {
	d := &MPVSecondsDriver{
		logger:   logger,
		finished: make(chan struct{}),
	}

	conn, err := dialIPC(socketPath, d.handleEvent, logger)
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return d, nil
}

func (d *MPVSecondsDriver) LoadTrack(ctx context.Context, url string) error {
	if _, err := d.conn.command(ctx, "set_property", "pause", true); err != nil {
		return err
	}
	if _, err := d.conn.command(ctx, "loadfile", url, "replace"); err != nil {
		return err
	}

	d.mu.Lock()
	d.finished = make(chan struct{})
	d.mu.Unlock()
	return nil
}

func (d *MPVSecondsDriver) StartPlayback(ctx context.Context) error {
	_, err := d.conn.command(ctx, "set_property", "pause", false)
	return err
}

func (d *MPVSecondsDriver) PausePlayback(ctx context.Context) error {
	_, err := d.conn.command(ctx, "set_property", "pause", true)
	return err
}

func (d *MPVSecondsDriver) StopPlayback() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := d.conn.command(ctx, "stop")
	return err
}

func (d *MPVSecondsDriver) SeekTo(ctx context.Context, seconds float64) error {
	_, err := d.conn.command(ctx, "set_property", "time-pos", seconds)
	return err
}

func (d *MPVSecondsDriver) SetSpeed(speed float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := d.conn.command(ctx, "set_property", "speed", speed)
	return err
}

// Progress queries position and duration synchronously. Errors degrade to
// zero values; pollers just pick up the next tick.
func (d *MPVSecondsDriver) Progress() (position, duration float64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if data, err := d.conn.command(ctx, "get_property", "time-pos"); err == nil {
		if v, ok := data.(float64); ok {
			position = v
		}
	}
	if data, err := d.conn.command(ctx, "get_property", "duration"); err == nil {
		if v, ok := data.(float64); ok {
			duration = v
		}
	}
	return position, duration
}

func (d *MPVSecondsDriver) Finished() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}

func (d *MPVSecondsDriver) Close() error {
	d.conn.close()
	return nil
}

func (d *MPVSecondsDriver) handleEvent(msg ipcMessage) {
	if msg.Event != "end-file" || msg.Reason != "eof" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.finished:
	default:
		close(d.finished)
	}
}
