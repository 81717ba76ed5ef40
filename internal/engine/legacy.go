package engine

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/errors"
)

// LegacyAdapter drives the legacy platform engine. The driver speaks float
// seconds and exposes no event stream, so the adapter polls progress on a
// ticker and converts at the boundary. Everything emitted from here is
// milliseconds; no seconds value escapes this file.
type LegacyAdapter struct {
	driver   SecondsDriver
	logger   *slog.Logger
	fanout   *statusFanout
	interval time.Duration

	mu     sync.Mutex
	unit   *domain.PlaybackUnit
	status domain.EngineStatus
	// gen is bumped by every Load and Stop; the poll goroutine for a
	// superseded track notices and exits.
	gen uint64

	closeOnce sync.Once
	done      chan struct{}
}

// NewLegacyAdapter wraps a seconds-native driver. interval is how often
// progress is polled while a track is loaded; values outside (0, 1s]
// fall back to one second so position updates stay at least 1 Hz.
func NewLegacyAdapter(driver SecondsDriver, interval time.Duration, logger *slog.Logger) *LegacyAdapter {
	if interval <= 0 || interval > time.Second {
		interval = time.Second
	}
	return &LegacyAdapter{
		driver:   driver,
		logger:   logger,
		fanout:   newStatusFanout(logger),
		interval: interval,
		status:   domain.EngineStatus{State: domain.StateIdle, Rate: 1.0},
		done:     make(chan struct{}),
	}
}

func (a *LegacyAdapter) ID() domain.EngineID { return domain.EngineLegacy }

func (a *LegacyAdapter) Load(ctx context.Context, unit *domain.PlaybackUnit) error {
	a.mu.Lock()
	if !unit.Resolvable() {
		if a.status.State == domain.StatePlaying {
			if err := a.driver.StopPlayback(); err != nil && a.logger != nil {
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

	err := a.driver.LoadTrack(ctx, url)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
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
	if _, dur := a.driver.Progress(); dur > 0 {
		a.status.DurationMs = msFromSeconds(dur)
	}
	a.emitLocked()
	go a.watch(gen)
	return nil
}

func (a *LegacyAdapter) Play(ctx context.Context) error {
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

	err := a.driver.StartPlayback(ctx)

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

func (a *LegacyAdapter) Pause(ctx context.Context) error {
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

	err := a.driver.PausePlayback(ctx)

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

func (a *LegacyAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.gen++
	a.unit = nil
	if err := a.driver.StopPlayback(); err != nil && a.logger != nil {
		a.logger.Warn("engine stop failed", "engine", a.ID(), "error", err)
	}
	a.status = domain.EngineStatus{State: domain.StateIdle, Rate: a.status.Rate}
	a.emitLocked()
	return nil
}

func (a *LegacyAdapter) Seek(ctx context.Context, positionMs int64) error {
	a.mu.Lock()
	if a.unit == nil {
		a.mu.Unlock()
		return errors.NotLoaded("no unit loaded")
	}
	target := clampPosition(positionMs, a.status.DurationMs)
	gen := a.gen
	a.mu.Unlock()

	err := a.driver.SeekTo(ctx, secondsFromMs(target))

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

func (a *LegacyAdapter) SetRate(rate float64) error {
	clamped := clampRate(rate)
	if err := a.driver.SetSpeed(clamped); err != nil {
		return errors.Playback("rate change failed").WithCause(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Rate = clamped
	a.emitLocked()
	return nil
}

func (a *LegacyAdapter) Loaded() *domain.PlaybackUnit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unit
}

func (a *LegacyAdapter) Status() domain.EngineStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *LegacyAdapter) Subscribe(fn Listener) (cancel func()) {
	return a.fanout.subscribe(fn)
}

// Close stops polling and releases the driver.
func (a *LegacyAdapter) Close() error {
	a.closeOnce.Do(func() {
		close(a.done)
		a.fanout.close()
	})
	return a.driver.Close()
}

// watch polls progress for one loaded track and watches for its natural
// end. It exits when the track is superseded or the adapter closes.
func (a *LegacyAdapter) watch(gen uint64) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	finished := a.driver.Finished()
	for {
		select {
		case <-ticker.C:
			if !a.poll(gen) {
				return
			}
		case <-finished:
			a.finish(gen)
			return
		case <-a.done:
			return
		}
	}
}

// poll reads progress from the driver and publishes it. Returns false once
// the generation is stale.
func (a *LegacyAdapter) poll(gen uint64) bool {
	pos, dur := a.driver.Progress()

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return false
	}
	if a.status.State != domain.StatePlaying {
		// Keep ticking but do not publish stale positions while paused.
		return true
	}
	a.status.PositionMs = msFromSeconds(pos)
	if dur > 0 {
		a.status.DurationMs = msFromSeconds(dur)
	}
	a.emitLocked()
	return true
}

func (a *LegacyAdapter) finish(gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		return
	}
	a.status.State = domain.StateStopped
	if a.status.DurationMs > 0 {
		a.status.PositionMs = a.status.DurationMs
	}
	a.emitLocked()
}

func (a *LegacyAdapter) emitLocked() {
	a.fanout.emit(a.status)
}

func msFromSeconds(s float64) int64 {
	return int64(math.Round(s * 1000))
}

func secondsFromMs(ms int64) float64 {
	return float64(ms) / 1000.0
}
