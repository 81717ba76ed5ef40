// Package session reconciles the two media engines into a single
// observable playback state. The reconciler is the only component allowed
// to talk to the engine adapters; every UI surface reads one snapshot
// stream and never learns which engine produced it except for diagnostics.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/engine"
	"github.com/narrifyapp/narrify-playback/internal/errors"
	"github.com/narrifyapp/narrify-playback/internal/id"
	"github.com/narrifyapp/narrify-playback/internal/queue"
)

// DiagKindEngineRepair marks a forced stop of the legacy engine because
// both engines reported active at once.
const DiagKindEngineRepair = "engine_repair"

// DiagnosticEvent records a reconciler repair or anomaly. Purely
// observational; UI logic must never branch on these.
type DiagnosticEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	EmittedAt time.Time `json:"emitted_at"`
}

// Reconciler owns both engine adapters and is the single source of truth
// for what is playing right now.
//
// Activation rule: an engine is active if it has a loaded unit and its
// state is not idle. If both report active at once the current engine is
// authoritative and the legacy engine is stopped, observably, via a
// diagnostic event. New units always route to the current engine; the
// legacy engine only ever receives sessions adopted from a previous run.
type Reconciler struct {
	legacy  engine.Adapter
	current engine.Adapter
	queue   *queue.Manager
	logger  *slog.Logger

	// opMu serializes mutating public calls so rapid repeated commands
	// cannot interleave mid-load. Snapshot reads never take it.
	opMu sync.Mutex

	snapMu sync.RWMutex
	snap   domain.Snapshot

	subs  *fanout[domain.Snapshot]
	diags *fanout[DiagnosticEvent]

	engineCancels []func()
	closeOnce     sync.Once
}

// NewReconciler wires the reconciler to its two adapters and the pending
// queue. It immediately subscribes to both engines' status streams.
func NewReconciler(legacy, current engine.Adapter, q *queue.Manager, logger *slog.Logger) *Reconciler {
	r := &Reconciler{
		legacy:  legacy,
		current: current,
		queue:   q,
		logger:  logger,
		snap:    domain.NoPlayback(),
		subs:    newFanout[domain.Snapshot](logger),
		diags:   newFanout[DiagnosticEvent](logger),
	}

	r.engineCancels = append(r.engineCancels,
		legacy.Subscribe(func(domain.EngineStatus) { r.onEngineUpdate() }),
		current.Subscribe(func(domain.EngineStatus) { r.onEngineUpdate() }),
	)
	return r
}

// Snapshot returns the current playback snapshot. Pure read; never blocks
// on in-flight engine commands and never mutates engine state.
func (r *Reconciler) Snapshot() domain.Snapshot {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snap
}

// Subscribe delivers a new snapshot on every status or position change
// from whichever engine is active. The returned cancel is idempotent.
func (r *Reconciler) Subscribe(fn func(domain.Snapshot)) (cancel func()) {
	return r.subs.subscribe(fn)
}

// SubscribeDiagnostics delivers repair events so tests and telemetry can
// observe inconsistencies the reconciler fixed.
func (r *Reconciler) SubscribeDiagnostics(fn func(DiagnosticEvent)) (cancel func()) {
	return r.diags.subscribe(fn)
}

// Play loads the unit into the current engine and starts playback. The
// legacy engine is never a new session's destination. A load or play
// failure propagates to the caller; if something else was already playing
// it is left untouched, otherwise the snapshot reports the failure.
func (r *Reconciler) Play(ctx context.Context, unit *domain.PlaybackUnit) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.repair()

	if err := r.current.Load(ctx, unit); err != nil {
		// A prior session, if any, stays untouched; the UI is never
		// blanked because a new unit failed to load.
		r.reportCommandFailure(err)
		return errors.Playbackf("unit %s failed to load", unit.ID).WithCause(err)
	}

	// The load succeeded; retire whatever the legacy engine still holds.
	if r.isActive(r.legacy) {
		_ = r.legacy.Stop()
	}

	if err := r.current.Play(ctx); err != nil {
		r.reportCommandFailure(err)
		return errors.Playbackf("unit %s failed to start", unit.ID).WithCause(err)
	}

	r.publish()
	return nil
}

// AdoptInFlight restores a session that was already underway on the
// legacy engine in a previous run: load, seek to where it left off, stay
// paused. This is the only path that routes a unit into the legacy engine.
func (r *Reconciler) AdoptInFlight(ctx context.Context, unit *domain.PlaybackUnit, positionMs int64) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.isActive(r.current) {
		return errors.Conflict("cannot adopt a session while the current engine is active")
	}

	if err := r.legacy.Load(ctx, unit); err != nil {
		return errors.Playbackf("unit %s failed to load", unit.ID).WithCause(err)
	}
	if positionMs > 0 {
		if err := r.legacy.Seek(ctx, positionMs); err != nil {
			return err
		}
	}

	r.publish()
	return nil
}

// TogglePlayPause flips the active engine between playing and paused.
// No-op, not an error, when nothing is active.
func (r *Reconciler) TogglePlayPause(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.repair()
	active := r.active()
	if active == nil {
		return nil
	}

	var err error
	switch active.Status().State {
	case domain.StatePlaying:
		err = active.Pause(ctx)
	case domain.StatePaused, domain.StateStopped:
		err = active.Play(ctx)
	default:
		return nil
	}
	r.publish()
	return err
}

// Stop halts whichever engine is active. Always succeeds, idempotent.
func (r *Reconciler) Stop() {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	_ = r.legacy.Stop()
	_ = r.current.Stop()
	r.publish()
}

// Seek moves the active engine to positionMs, clamped by the adapter.
// Fails with NOT_LOADED when nothing is active.
func (r *Reconciler) Seek(ctx context.Context, positionMs int64) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.repair()
	active := r.active()
	if active == nil {
		return errors.NotLoaded("no active playback to seek")
	}
	if err := active.Seek(ctx, positionMs); err != nil {
		return err
	}
	r.publish()
	return nil
}

// SetRate applies a playback rate to the active engine, or to the current
// engine when nothing is active so the rate takes effect on the next unit.
func (r *Reconciler) SetRate(rate float64) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	target := r.active()
	if target == nil {
		target = r.current
	}
	if err := target.SetRate(rate); err != nil {
		return err
	}
	r.publish()
	return nil
}

// ActiveUnit returns the unit loaded in the active engine, or nil.
func (r *Reconciler) ActiveUnit() *domain.PlaybackUnit {
	return r.Snapshot().Unit
}

// Close detaches from the engines and stops the snapshot stream.
func (r *Reconciler) Close() {
	r.closeOnce.Do(func() {
		for _, cancel := range r.engineCancels {
			cancel()
		}
		r.subs.close()
		r.diags.close()
	})
}

// onEngineUpdate recomputes the snapshot whenever either engine reports a
// change, and triggers queue advance when the active unit plays to its end.
func (r *Reconciler) onEngineUpdate() {
	// Repair only between operations. Mid-operation the engines may be
	// transiently inconsistent; the operation restores the invariant
	// before it returns.
	if r.opMu.TryLock() {
		r.repair()
		r.opMu.Unlock()
	}

	prev := r.Snapshot()
	next := r.publish()

	if next.State == domain.StateStopped && prev.State != domain.StateStopped && next.Unit != nil {
		go r.advanceQueue()
	}
}

// advanceQueue plays the next pending unit after the current one finished.
func (r *Reconciler) advanceQueue() {
	entry, err := r.queue.DequeueNext()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("queue advance failed", "error", err)
		}
		return
	}
	if entry == nil {
		return
	}

	if r.logger != nil {
		r.logger.Info("advancing to queued unit", "unit_id", entry.Unit.ID)
	}
	if err := r.Play(context.Background(), entry.Unit); err != nil && r.logger != nil {
		r.logger.Error("queued unit failed to play", "unit_id", entry.Unit.ID, "error", err)
	}
}

// repair enforces the single-active invariant: if both engines report
// active, the current engine wins and the legacy engine is stopped. Not a
// silent ignore; a diagnostic event records every repair.
func (r *Reconciler) repair() {
	if !r.isActive(r.legacy) || !r.isActive(r.current) {
		return
	}

	if r.logger != nil {
		r.logger.Warn("both engines active, stopping legacy engine")
	}
	_ = r.legacy.Stop()
	r.diags.emit(DiagnosticEvent{
		ID:        id.MustGenerate("diag"),
		Kind:      DiagKindEngineRepair,
		Message:   "both engines reported active; stopped legacy, current is authoritative",
		EmittedAt: time.Now(),
	})
}

func (r *Reconciler) isActive(a engine.Adapter) bool {
	return a.Loaded() != nil && a.Status().State != domain.StateIdle
}

// active returns the authoritative engine, preferring current when both
// qualify (repair will separately stop legacy).
func (r *Reconciler) active() engine.Adapter {
	if r.isActive(r.current) {
		return r.current
	}
	if r.isActive(r.legacy) {
		return r.legacy
	}
	return nil
}

// publish recomputes the snapshot from engine state and notifies
// subscribers. Returns the snapshot it published.
func (r *Reconciler) publish() domain.Snapshot {
	snap := r.compute()

	r.snapMu.Lock()
	r.snap = snap
	r.snapMu.Unlock()

	r.subs.emit(snap)
	return snap
}

func (r *Reconciler) compute() domain.Snapshot {
	active := r.active()
	if active == nil {
		rate := r.current.Status().Rate
		snap := domain.NoPlayback()
		snap.Rate = rate
		return snap
	}

	status := active.Status()
	return domain.Snapshot{
		Unit:          active.Loaded(),
		State:         status.State,
		PositionMs:    status.PositionMs,
		DurationMs:    status.DurationMs,
		Rate:          status.Rate,
		Engine:        active.ID(),
		FailureReason: status.FailureReason,
	}
}

// reportCommandFailure reflects a failed load/play in the snapshot when
// there is no prior playback to preserve. An existing session is never
// blanked because a new unit failed.
func (r *Reconciler) reportCommandFailure(err error) {
	if r.active() != nil {
		r.publish()
		return
	}

	snap := domain.NoPlayback()
	snap.State = domain.StateFailed
	snap.FailureReason = err.Error()
	snap.Rate = r.current.Status().Rate

	r.snapMu.Lock()
	r.snap = snap
	r.snapMu.Unlock()
	r.subs.emit(snap)
}
