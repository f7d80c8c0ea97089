package bomscan

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/ledger"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/mapping"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/parser"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/selection"
)

// SessionOptions configures a Session.
type SessionOptions struct {
	// Mode is the initial selection mode.
	Mode selection.Mode
	// Timeout is the click-mode inactivity timeout. Zero uses the default.
	Timeout time.Duration
	// MoveThreshold is the touch scroll threshold in pixels. Zero uses the default.
	MoveThreshold float64
	// Recorder observes every ingested scan.
	Recorder ledger.Recorder
	// Logger receives session diagnostics. Nil discards.
	Logger *slog.Logger
}

// Session wires a sheet grid, a range selector, the column mapping and the
// scan ledger together. A confirmed range proposes a mapping from its header
// row; confirming the mapping arms the match engine.
//
// Lock order is Session then Ledger. Selector events arrive outside the
// selector lock, so selector calls must not hold mu.
type Session struct {
	sheet    models.Grid
	selector *selection.Selector
	ledger   *ledger.Ledger
	logger   *slog.Logger
	unsub    func()

	mu        sync.Mutex
	rng       models.Range
	hasRange  bool
	data      models.Grid
	proposed  models.ColumnMapping
	confirmed models.ColumnMapping
	hasMap    bool
}

// NewSession creates a session over a full sheet grid.
func NewSession(sheet models.Grid, opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Session{
		sheet:  sheet,
		logger: logger,
	}
	s.selector = selection.New(
		selection.WithMode(opts.Mode),
		selection.WithTimeout(opts.Timeout),
		selection.WithMoveThreshold(opts.MoveThreshold),
		selection.WithBounds(sheet.Rows(), sheet.Width()),
		selection.WithLogger(logger.With("component", "selection")),
	)
	ledgerOpts := []ledger.Option{ledger.WithLogger(logger.With("component", "ledger"))}
	if opts.Recorder != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithRecorder(opts.Recorder))
	}
	s.ledger = ledger.New(ledgerOpts...)
	s.unsub = s.selector.Subscribe(s.onSelection)
	return s
}

// Close detaches the session from its selector and stops any pending timeout.
func (s *Session) Close() {
	s.unsub()
	s.selector.Clear()
}

// Sheet returns the full sheet grid.
func (s *Session) Sheet() models.Grid {
	return s.sheet
}

// Selector returns the range selector driving the session.
func (s *Session) Selector() *selection.Selector {
	return s.selector
}

// Ledger returns the scan ledger.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

func (s *Session) onSelection(ev selection.Event) {
	switch ev.Kind {
	case selection.EventRangeConfirmed:
		s.mu.Lock()
		s.rng, s.hasRange = ev.Range, true
		s.data = parser.SliceRange(s.sheet, ev.Range)
		s.proposed = mapping.AutoDetect(s.data.Header())
		s.confirmed, s.hasMap = models.ColumnMapping{}, false
		proposed := s.proposed
		s.ledger.SetReference(nil, models.ColumnMapping{})
		s.mu.Unlock()

		s.logger.Info("range confirmed",
			"range", cellref.FormatRange(ev.Range),
			"mapped_slots", proposed.Mapped(),
		)
	case selection.EventRangeCleared:
		s.mu.Lock()
		s.rng, s.hasRange = models.Range{}, false
		s.data = nil
		s.proposed, s.confirmed, s.hasMap = models.ColumnMapping{}, models.ColumnMapping{}, false
		s.ledger.SetReference(nil, models.ColumnMapping{})
		s.mu.Unlock()

		s.logger.Debug("range cleared")
	case selection.EventTimeout:
		s.logger.Info("selection timed out")
	}
}

// SelectRange confirms a range given in A1 notation, either "B2:F40" or a
// single reference. Input is case-insensitive.
func (s *Session) SelectRange(ref string) error {
	r, err := cellref.ParseRange(strings.ToUpper(ref))
	if err != nil {
		return err
	}
	return s.selector.SetManual(cellref.Format(r.Start()), cellref.Format(r.End()))
}

// Range returns the confirmed range.
func (s *Session) Range() (models.Range, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng, s.hasRange
}

// Data returns the cells of the confirmed range, header first.
func (s *Session) Data() models.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Headers returns the header row of the confirmed range.
func (s *Session) Headers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Header()
}

// ProposedMapping returns the auto-detected mapping for the confirmed range.
func (s *Session) ProposedMapping() models.ColumnMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proposed
}

// OverrideColumns returns the proposed mapping with slots moved to the
// given 1-based sheet columns. Columns outside the confirmed range fail
// with ErrInvalidMapping.
func (s *Session) OverrideColumns(cols map[models.Slot]int) (models.ColumnMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasRange {
		return models.ColumnMapping{}, fmt.Errorf("override columns: no range selected: %w", ErrNoData)
	}
	m := s.proposed
	for _, slot := range models.Slots {
		col, ok := cols[slot]
		if !ok {
			continue
		}
		if !s.rng.Contains(models.CellPosition{Row: s.rng.StartRow, Col: col}) {
			return models.ColumnMapping{}, fmt.Errorf("%w: %s column %s is outside %s",
				ErrInvalidMapping, slot, cellref.NumToCol(col), cellref.FormatRange(s.rng))
		}
		m = m.With(slot, col-s.rng.StartCol)
	}
	return m, nil
}

// Mapping returns the confirmed mapping.
func (s *Session) Mapping() (models.ColumnMapping, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmed, s.hasMap
}

// ConfirmMapping freezes m and arms matching. It fails with ErrNoData
// before a range is confirmed and with ErrInvalidMapping when m has no
// target column.
func (s *Session) ConfirmMapping(m models.ColumnMapping) error {
	s.mu.Lock()
	if !s.hasRange {
		s.mu.Unlock()
		return fmt.Errorf("confirm mapping: no range selected: %w", ErrNoData)
	}
	frozen, err := mapping.Confirm(m)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if width := s.data.Width(); width > 0 {
		for _, slot := range models.Slots {
			if col, ok := frozen.Column(slot); ok && col >= width {
				s.mu.Unlock()
				return fmt.Errorf("%w: %s column %s is outside the range",
					ErrInvalidMapping, slot, cellref.NumToCol(col+1))
			}
		}
	}
	s.confirmed, s.hasMap = frozen, true
	s.ledger.SetReference(s.data, frozen)
	s.mu.Unlock()

	s.logger.Info("mapping confirmed", "mapped_slots", frozen.Mapped())
	return nil
}

// Scan matches one decoded value and records it.
func (s *Session) Scan(value string, details models.ScanDetails) models.MatchResult {
	return s.ledger.Ingest(value, details)
}

// Reset clears the selection, the mapping and every recorded scan.
func (s *Session) Reset() {
	s.selector.Clear()
	s.ledger.Clear()
}
