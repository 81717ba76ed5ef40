package sse

import (
	"github.com/narrifyapp/narrify-playback/internal/domain"
	"github.com/narrifyapp/narrify-playback/internal/session"
)

// BindReconciler forwards reconciler snapshots and diagnostics into the
// event stream. Returns a cancel function that detaches both listeners.
func BindReconciler(m *Manager, r *session.Reconciler) (cancel func()) {
	cancelSnap := r.Subscribe(func(snap domain.Snapshot) {
		m.Emit(NewSnapshotEvent(snap))
	})
	cancelDiag := r.SubscribeDiagnostics(func(diag session.DiagnosticEvent) {
		m.Emit(NewDiagnosticEvent(diag))
	})
	return func() {
		cancelSnap()
		cancelDiag()
	}
}
