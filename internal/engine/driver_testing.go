package engine

import (
	"context"
	"sync"
)

// FakeDriver is an in-memory Driver for tests. Commands record their
// arguments and return scripted errors; tests push events through Emit to
// simulate the engine.
type FakeDriver struct {
	mu     sync.Mutex
	events chan DriverEvent

	LoadErr  error
	PlayErr  error
	PauseErr error
	SeekErr  error
	RateErr  error

	// LoadGate, when non-nil, blocks Load until the gate is closed. Used
	// to hold a load in flight while a competing request overtakes it.
	LoadGate chan struct{}
	// LoadStarted, when non-nil, receives a signal as each Load begins.
	LoadStarted chan struct{}

	loadedURL  string
	seekedToMs int64
	rate       float64
	calls      []string
}

func NewFakeDriver() *FakeDriver {
	return &FakeDriver{events: make(chan DriverEvent, 64), rate: 1.0}
}

func (d *FakeDriver) Load(ctx context.Context, url string) error {
	d.mu.Lock()
	gate := d.LoadGate
	started := d.LoadStarted
	d.mu.Unlock()
	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "load")
	if d.LoadErr != nil {
		return d.LoadErr
	}
	d.loadedURL = url
	return nil
}

func (d *FakeDriver) Play(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "play")
	return d.PlayErr
}

func (d *FakeDriver) Pause(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "pause")
	return d.PauseErr
}

func (d *FakeDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "stop")
	d.loadedURL = ""
	return nil
}

func (d *FakeDriver) Seek(ctx context.Context, positionMs int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "seek")
	if d.SeekErr != nil {
		return d.SeekErr
	}
	d.seekedToMs = positionMs
	return nil
}

func (d *FakeDriver) SetRate(rate float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "rate")
	if d.RateErr != nil {
		return d.RateErr
	}
	d.rate = rate
	return nil
}

func (d *FakeDriver) Events() <-chan DriverEvent { return d.events }

func (d *FakeDriver) Close() error { return nil }

// Emit simulates an engine event.
func (d *FakeDriver) Emit(ev DriverEvent) { d.events <- ev }

// SetLoadGate swaps the load gate between calls.
func (d *FakeDriver) SetLoadGate(gate chan struct{}) {
	d.mu.Lock()
	d.LoadGate = gate
	d.mu.Unlock()
}

// LoadedURL reports the last successfully loaded URL.
func (d *FakeDriver) LoadedURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadedURL
}

// SeekedToMs reports the last seek target.
func (d *FakeDriver) SeekedToMs() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seekedToMs
}

// Rate reports the last applied rate.
func (d *FakeDriver) Rate() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rate
}

// Calls returns the command names in invocation order.
func (d *FakeDriver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.calls))
	copy(out, d.calls)
	return out
}

// FakeSecondsDriver is an in-memory SecondsDriver for tests. Progress is
// whatever the test last set; FinishTrack simulates playing to the end.
type FakeSecondsDriver struct {
	mu       sync.Mutex
	finished chan struct{}

	LoadErr  error
	PlayErr  error
	PauseErr error
	SeekErr  error
	SpeedErr error

	position float64
	duration float64
	loaded   string
	seekedTo float64
	speed    float64
}

func NewFakeSecondsDriver() *FakeSecondsDriver {
	return &FakeSecondsDriver{finished: make(chan struct{}), speed: 1.0}
}

func (d *FakeSecondsDriver) LoadTrack(ctx context.Context, url string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.LoadErr != nil {
		return d.LoadErr
	}
	d.loaded = url
	d.position = 0
	d.finished = make(chan struct{})
	return nil
}

func (d *FakeSecondsDriver) StartPlayback(ctx context.Context) error { return d.PlayErr }
func (d *FakeSecondsDriver) PausePlayback(ctx context.Context) error { return d.PauseErr }

func (d *FakeSecondsDriver) StopPlayback() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loaded = ""
	return nil
}

func (d *FakeSecondsDriver) SeekTo(ctx context.Context, seconds float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SeekErr != nil {
		return d.SeekErr
	}
	d.seekedTo = seconds
	d.position = seconds
	return nil
}

func (d *FakeSecondsDriver) SetSpeed(speed float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.SpeedErr != nil {
		return d.SpeedErr
	}
	d.speed = speed
	return nil
}

func (d *FakeSecondsDriver) Progress() (position, duration float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position, d.duration
}

func (d *FakeSecondsDriver) Finished() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.finished
}

func (d *FakeSecondsDriver) Close() error { return nil }

// SetProgress scripts the next Progress answer, in seconds.
func (d *FakeSecondsDriver) SetProgress(position, duration float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.position = position
	d.duration = duration
}

// FinishTrack simulates the loaded track reaching its natural end.
func (d *FakeSecondsDriver) FinishTrack() {
	d.mu.Lock()
	defer d.mu.Unlock()
	select {
	case <-d.finished:
	default:
		close(d.finished)
	}
}

// LoadedURL reports the last successfully loaded URL.
func (d *FakeSecondsDriver) LoadedURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// SeekedToSeconds reports the last seek target, in seconds.
func (d *FakeSecondsDriver) SeekedToSeconds() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seekedTo
}

// Speed reports the last applied speed.
func (d *FakeSecondsDriver) Speed() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}
