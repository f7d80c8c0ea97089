package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/selection"
)

var (
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Scanned values by match status.",
		},
		[]string{"status"},
	)

	selectionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selection_events_total",
			Help:      "Range selector events by kind.",
		},
		[]string{"kind"},
	)
)

// ScanRecorder counts ingested scans. It satisfies ledger.Recorder.
type ScanRecorder struct{}

// RecordScan increments the counter for the record's status.
func (ScanRecorder) RecordScan(rec models.ScanRecord) {
	scansTotal.WithLabelValues(string(rec.Result.Status)).Inc()
}

// ObserveSelection counts a selector event. It satisfies selection.Listener.
func ObserveSelection(ev selection.Event) {
	selectionEvents.WithLabelValues(ev.Kind.String()).Inc()
}
