// Package ledger keeps the append-only log of scan attempts for a session.
package ledger

import (
	"io"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/matcher"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

// Snapshot is the full ledger state delivered to subscribers.
type Snapshot struct {
	// Records are in ingestion order.
	Records []models.ScanRecord
	Stats   models.Stats
}

// Recorder observes every ingested record, e.g. for metrics.
type Recorder interface {
	RecordScan(rec models.ScanRecord)
}

// Ledger owns the record sequence and counters. Ingest and Clear are the
// only mutations and each is atomic.
type Ledger struct {
	mu      sync.Mutex
	records []models.ScanRecord
	stats   models.Stats
	grid    models.Grid
	mapping models.ColumnMapping

	now         func() time.Time
	newID       func() string
	recorder    Recorder
	subscribers []func(Snapshot)
	logger      *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDs overrides record id generation.
func WithIDs(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// WithRecorder attaches a Recorder.
func WithRecorder(r Recorder) Option {
	return func(l *Ledger) { l.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates an empty ledger with no reference data.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetReference sets the grid and mapping scans are matched against.
// Existing records are kept.
func (l *Ledger) SetReference(grid models.Grid, mapping models.ColumnMapping) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.grid = grid
	l.mapping = mapping
}

// Subscribe registers fn to receive a snapshot after every mutation.
func (l *Ledger) Subscribe(fn func(Snapshot)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribers = append(l.subscribers, fn)
}

// Ingest matches value, appends a record and returns the result. Counters
// and the record are updated before the result is returned.
func (l *Ledger) Ingest(value string, details models.ScanDetails) models.MatchResult {
	l.mu.Lock()
	now := l.now()
	l.stats.TotalScanned++
	if l.stats.StartTime == nil {
		start := now
		l.stats.StartTime = &start
	}

	result := matcher.Match(value, l.grid, l.mapping)
	rec := models.ScanRecord{
		ID:           l.newID(),
		ScannedValue: value,
		Timestamp:    now,
		ScanIndex:    l.stats.TotalScanned,
		Result:       result,
		Details:      details,
	}
	l.records = append(l.records, rec)
	if result.Matched() {
		l.stats.SuccessfulMatches++
	}
	snap, subs := l.snapshotLocked()
	recorder := l.recorder
	l.mu.Unlock()

	l.logger.Debug("scan ingested",
		"scan_index", rec.ScanIndex,
		"value", value,
		"status", string(result.Status),
		"row", result.RowIndex,
	)
	if recorder != nil {
		recorder.RecordScan(rec)
	}
	notify(subs, snap)
	return result
}

// Clear empties the ledger and resets every counter.
func (l *Ledger) Clear() {
	l.mu.Lock()
	l.records = nil
	l.stats = models.Stats{}
	snap, subs := l.snapshotLocked()
	l.mu.Unlock()

	l.logger.Debug("ledger cleared")
	notify(subs, snap)
}

// Records returns a copy of the records in ingestion order.
func (l *Ledger) Records() []models.ScanRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.ScanRecord(nil), l.records...)
}

// ExportRows returns records by ascending scan index.
func (l *Ledger) ExportRows() []models.ScanRecord {
	rows := l.Records()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ScanIndex < rows[j].ScanIndex })
	return rows
}

// DisplayRows returns records newest first, the order a live view shows.
func (l *Ledger) DisplayRows() []models.ScanRecord {
	rows := l.Records()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ScanIndex > rows[j].ScanIndex })
	return rows
}

// Stats returns the current counters.
func (l *Ledger) Stats() models.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyStats(l.stats)
}

// Summary derives the export footer at time now.
func (l *Ledger) Summary(now time.Time) models.Summary {
	return Summarize(l.Stats(), now)
}

// Summarize computes match rate and duration from stats. MatchRate stays nil
// when nothing was scanned.
func Summarize(stats models.Stats, now time.Time) models.Summary {
	s := models.Summary{
		TotalScanned:      stats.TotalScanned,
		SuccessfulMatches: stats.SuccessfulMatches,
	}
	if stats.TotalScanned > 0 {
		rate := math.Round(float64(stats.SuccessfulMatches)/float64(stats.TotalScanned)*1000) / 10
		s.MatchRate = &rate
	}
	if stats.StartTime != nil {
		minutes := now.Sub(*stats.StartTime).Minutes()
		s.DurationMinutes = &minutes
	}
	return s
}

func (l *Ledger) snapshotLocked() (Snapshot, []func(Snapshot)) {
	if len(l.subscribers) == 0 {
		return Snapshot{}, nil
	}
	snap := Snapshot{
		Records: append([]models.ScanRecord(nil), l.records...),
		Stats:   copyStats(l.stats),
	}
	subs := make([]func(Snapshot), len(l.subscribers))
	copy(subs, l.subscribers)
	return snap, subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func copyStats(s models.Stats) models.Stats {
	if s.StartTime != nil {
		t := *s.StartTime
		s.StartTime = &t
	}
	return s
}
