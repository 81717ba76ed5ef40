package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
)

// CurrentAdapter drives the current platform engine. The driver is already
// millisecond-native and pushes events, so this adapter only has to track
// state, serialize commands, and discard completions of superseded loads.
type CurrentAdapter struct {
	driver Driver
	logger *slog.Logger
	fanout *statusFanout

	mu     sync.Mutex
	unit   *domain.PlaybackUnit
	status domain.EngineStatus
	// gen is bumped by every Load and Stop. In-flight work captured under
	// an older generation is discarded on completion: latest request wins.
	gen uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewCurrentAdapter wraps a millisecond-native driver and starts consuming
// its event stream.
func NewCurrentAdapter(driver Driver, logger *slog.Logger) *CurrentAdapter {
	a := &CurrentAdapter{
		driver: driver,
		logger: logger,
		fanout: newStatusFanout(logger),
		status: domain.EngineStatus{State: domain.StateIdle, Rate: 1.0},
		done:   make(chan struct{}),
	}
	go a.pump()
	return a
}

func (a *CurrentAdapter) ID() domain.EngineID { return domain.EngineCurrent }

// Load begins loading the unit. A load that is overtaken by a newer load or
// a stop completes without effect and without error.
func (a *CurrentAdapter) Load(ctx context.Context, unit *domain.PlaybackUnit) error {
	a.mu.Lock()
	if !unit.Resolvable() {
		// Reject before touching the driver. An actively playing unit is
		// stopped; anything else keeps its prior status.
		if a.status.State == domain.StatePlaying {
			if err := a.driver.Stop(); err != nil && a.logger != nil {
				a.logger.Warn("stop before rejected load failed", "error", err)
			}
			a.status.State = domain.StateStopped
			a.emitLocked()
		}
		a.mu.Unlock()
		return errors.LoadFailedf("unit %s has no resolvable audio resource", unit.ID)
	}

	a.gen++
	gen := a.gen
	a.unit = unit
	a.status = domain.EngineStatus{
		State:      domain.StateLoading,
		DurationMs: unit.DurationMs,
		Rate:       a.status.Rate,
	}
	a.emitLocked()
	url := unit.PrimarySource()
	a.mu.Unlock()

	err := a.driver.Load(ctx, url)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		// A newer load or stop won while we were in flight.
		return nil
	}
	if err != nil {
		a.status.State = domain.StateFailed
		a.status.FailureReason = err.Error()
		a.emitLocked()
		return errors.LoadFailed("engine rejected media").WithCause(err)
	}

	a.status.State = domain.StatePaused
	a.status.PositionMs = 0
	a.emitLocked()
	return nil
}

func (a *CurrentAdapter) Play(ctx context.Context) error {
	a.mu.Lock()
	if a.unit == nil {
		a.mu.Unlock()
		return errors.NotLoaded("no unit loaded")
	}
	if a.status.State == domain.StatePlaying {
		a.mu.Unlock()
		return nil
	}
	gen := a.gen
	a.mu.Unlock()

	err := a.driver.Play(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return nil
	}
	if err != nil {
		a.status.State = domain.StateFailed
		a.status.FailureReason = err.Error()
		a.emitLocked()
		return errors.Playback("play command failed").WithCause(err)
	}
	a.status.State = domain.StatePlaying
	a.status.FailureReason = ""
	a.emitLocked()
	return nil
}

func (a *CurrentAdapter) Pause(ctx context.Context) error {
	a.mu.Lock()
	if a.unit == nil {
		a.mu.Unlock()
		return errors.NotLoaded("no unit loaded")
	}
	if a.status.State == domain.StatePaused {
		a.mu.Unlock()
		return nil
	}
	gen := a.gen
	a.mu.Unlock()

	err := a.driver.Pause(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return nil
	}
	if err != nil {
		return errors.Playback("pause command failed").WithCause(err)
	}
	a.status.State = domain.StatePaused
	a.emitLocked()
	return nil
}

// Stop releases the loaded unit. Safe to call at any time, including with
// nothing loaded.
func (a *CurrentAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	a.unit = nil
	if err := a.driver.Stop(); err != nil && a.logger != nil {
		a.logger.Warn("engine stop failed", "engine", a.ID(), "error", err)
	}
	a.status = domain.EngineStatus{State: domain.StateIdle, Rate: a.status.Rate}
	a.emitLocked()
	return nil
}

func (a *CurrentAdapter) Seek(ctx context.Context, positionMs int64) error {
	a.mu.Lock()
	if a.unit == nil {
		a.mu.Unlock()
		return errors.NotLoaded("no unit loaded")
	}
	target := clampPosition(positionMs, a.status.DurationMs)
	gen := a.gen
	a.mu.Unlock()

	err := a.driver.Seek(ctx, target)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return nil
	}
	if err != nil {
		return errors.Playback("seek command failed").WithCause(err)
	}
	a.status.PositionMs = target
	a.emitLocked()
	return nil
}

func (a *CurrentAdapter) SetRate(rate float64) error {
	clamped := clampRate(rate)
	if err := a.driver.SetRate(clamped); err != nil {
		return errors.Playback("rate change failed").WithCause(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Rate = clamped
	a.emitLocked()
	return nil
}

func (a *CurrentAdapter) Loaded() *domain.PlaybackUnit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unit
}

func (a *CurrentAdapter) Status() domain.EngineStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *CurrentAdapter) Subscribe(fn Listener) (cancel func()) {
	return a.fanout.subscribe(fn)
}

// Close stops event consumption and releases the driver.
func (a *CurrentAdapter) Close() error {
	a.closeOnce.Do(func() {
		close(a.done)
		a.fanout.close()
	})
	return a.driver.Close()
}

// pump translates driver events into status updates. Events arriving after
// a stop (nothing loaded) are leftovers from a released unit and dropped.
func (a *CurrentAdapter) pump() {
	for {
		select {
		case ev, ok := <-a.driver.Events():
			if !ok {
				return
			}
			a.handle(ev)
		case <-a.done:
			return
		}
	}
}

func (a *CurrentAdapter) handle(ev DriverEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unit == nil {
		return
	}

	switch ev.Kind {
	case DriverLoaded:
		if ev.DurationMs > 0 {
			a.status.DurationMs = ev.DurationMs
		}
		a.emitLocked()
	case DriverPosition:
		a.status.PositionMs = ev.PositionMs
		if ev.DurationMs > 0 {
			a.status.DurationMs = ev.DurationMs
		}
		a.emitLocked()
	case DriverEnded:
		// Natural end of media. Distinct from Stop, which goes to idle;
		// the reconciler uses stopped to trigger queue advance.
		a.status.State = domain.StateStopped
		if a.status.DurationMs > 0 {
			a.status.PositionMs = a.status.DurationMs
		}
		a.emitLocked()
	case DriverFailed:
		a.status.State = domain.StateFailed
		a.status.FailureReason = ev.Reason
		a.emitLocked()
		if a.logger != nil {
			a.logger.Error("engine failure", "engine", a.ID(), "reason", ev.Reason)
		}
	}
}

func (a *CurrentAdapter) emitLocked() {
	a.fanout.emit(a.status)
}
