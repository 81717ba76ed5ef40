package providers

import (
	"context"
	"errors"
	"time"

	"github.com/samber/do/v2"

	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/logger"
	"github.com/narrifyapp/narrify-playback/internal/queue"
	"github.com/narrifyapp/narrify-playback/internal/session"
	"github.com/narrifyapp/narrify-playback/internal/sse"
	"github.com/narrifyapp/narrify-playback/internal/store"
)

// prefRateKey mirrors the API's preference key for the playback rate.
const prefRateKey = "prefs:rate"

// sessionMarkerKey holds the last known in-flight session so it can be
// re-adopted after a restart.
const sessionMarkerKey = "session:active"

// markerWriteStepMs is how far playback must advance before the marker
// is rewritten. Keeps store churn down during normal playback.
const markerWriteStepMs = 5000

type sessionMarker struct {
	Unit       *domain.PlaybackUnit `json:"unit"`
	PositionMs int64                `json:"position_ms"`
	SavedAt    time.Time            `json:"saved_at"`
}

// ReconcilerHandle wraps the reconciler with its stream bindings.
type ReconcilerHandle struct {
	*session.Reconciler
	unbind func()
}

// Shutdown implements do.Shutdownable.
func (h *ReconcilerHandle) Shutdown() error {
	h.unbind()
	h.Reconciler.Close()
	return nil
}

// ProvideReconciler provides the session reconciler with both engine
// adapters wired in, snapshots bound to the event stream, the persisted
// rate preference restored, and the previous run's in-flight session
// re-adopted onto the legacy engine.
func ProvideReconciler(i do.Injector) (*ReconcilerHandle, error) {
	legacy := do.MustInvoke[*LegacyAdapterHandle](i)
	current := do.MustInvoke[*CurrentAdapterHandle](i)
	q := do.MustInvoke[*queue.Manager](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	r := session.NewReconciler(legacy.LegacyAdapter, current.CurrentAdapter, q, log.Logger)
	unbindSSE := sse.BindReconciler(sseHandle.Manager, r)

	restoreSession(r, storeHandle.Store, log)
	restoreRate(r, storeHandle.Store, log)
	unbindMarker := bindSessionMarker(r, storeHandle.Store, log)

	unbind := func() {
		unbindSSE()
		unbindMarker()
	}
	return &ReconcilerHandle{Reconciler: r, unbind: unbind}, nil
}

// restoreSession re-adopts the previous run's session, paused, at the
// position it left off. A stale or unreadable marker is dropped.
func restoreSession(r *session.Reconciler, kv store.KV, log *logger.Logger) {
	var marker sessionMarker
	err := kv.Get(sessionMarkerKey, &marker)
	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		return
	case err != nil:
		log.Warn("Session marker unreadable", "error", err)
		return
	case marker.Unit == nil:
		_ = kv.Remove(sessionMarkerKey)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.AdoptInFlight(ctx, marker.Unit, marker.PositionMs); err != nil {
		log.Warn("Previous session not adopted",
			"unit_id", marker.Unit.ID, "error", err)
		_ = kv.Remove(sessionMarkerKey)
		return
	}
	log.Info("Previous session adopted",
		"unit_id", marker.Unit.ID, "position_ms", marker.PositionMs)
}

// restoreRate applies the user's preferred rate from the last run.
func restoreRate(r *session.Reconciler, kv store.KV, log *logger.Logger) {
	var rate float64
	err := kv.Get(prefRateKey, &rate)
	switch {
	case err == nil && rate > 0:
		if err := r.SetRate(rate); err != nil {
			log.Warn("Persisted rate not applied", "rate", rate, "error", err)
		} else {
			log.Info("Playback rate restored", "rate", rate)
		}
	case err != nil && !errors.Is(err, store.ErrKeyNotFound):
		log.Warn("Rate preference unreadable", "error", err)
	}
}

// bindSessionMarker keeps the on-disk session marker in step with the
// snapshot stream: written while a unit is loaded, cleared when playback
// goes idle.
func bindSessionMarker(r *session.Reconciler, kv store.KV, log *logger.Logger) (cancel func()) {
	var lastState domain.EngineState
	var lastWrittenMs int64 = -1

	return r.Subscribe(func(snap domain.Snapshot) {
		stateChanged := snap.State != lastState
		lastState = snap.State

		if snap.Unit == nil || snap.State == domain.StateIdle {
			if stateChanged {
				if err := kv.Remove(sessionMarkerKey); err != nil {
					log.Warn("Session marker not cleared", "error", err)
				}
				lastWrittenMs = -1
			}
			return
		}

		moved := snap.PositionMs-lastWrittenMs >= markerWriteStepMs || snap.PositionMs < lastWrittenMs
		if !stateChanged && !moved {
			return
		}

		marker := sessionMarker{
			Unit:       snap.Unit,
			PositionMs: snap.PositionMs,
			SavedAt:    time.Now(),
		}
		if err := kv.Set(sessionMarkerKey, marker); err != nil {
			log.Warn("Session marker not written", "error", err)
			return
		}
		lastWrittenMs = snap.PositionMs
	})
}

// ProvideNavigator provides chapter and offset navigation over the
// reconciler.
func ProvideNavigator(i do.Injector) (*session.Navigator, error) {
	r := do.MustInvoke[*ReconcilerHandle](i)
	return session.NewNavigator(r.Reconciler), nil
}
