// Package selection turns pointer and touch gestures over a rendered grid
// into a confirmed rectangular cell range.
//
// A Selector is either Idle, Anchoring (one corner fixed) or Confirmed.
// Every transition is guarded on the current state, so stray or duplicated
// events (touch and mouse firing together, a late pointer-up) are no-ops.
package selection

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

const (
	// DefaultTimeout is how long click mode waits for the second tap.
	DefaultTimeout = 15 * time.Second
	// DefaultMoveThreshold is the touch travel, in pixels, above which a
	// gesture counts as a scroll or drag rather than a tap.
	DefaultMoveThreshold = 10.0
)

// State is the selector's lifecycle state.
type State int

const (
	Idle State = iota
	Anchoring
	Confirmed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Anchoring:
		return "anchoring"
	case Confirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Mode selects how gestures are interpreted. Only one is active at a time.
type Mode int

const (
	// ModeDrag selects by press, drag and release.
	ModeDrag Mode = iota
	// ModeClick selects by tapping two corners.
	ModeClick
)

func (m Mode) String() string {
	if m == ModeClick {
		return "click"
	}
	return "drag"
}

// ParseMode parses "drag" or "click".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "drag", "":
		return ModeDrag, nil
	case "click":
		return ModeClick, nil
	default:
		return ModeDrag, fmt.Errorf("invalid selection mode: %s (must be drag or click)", s)
	}
}

// EventKind identifies a published selector event.
type EventKind int

const (
	// EventRangeConfirmed fires when a new range is published.
	EventRangeConfirmed EventKind = iota
	// EventRangeCleared fires when a published range is withdrawn.
	EventRangeCleared
	// EventTimeout fires when click mode gave up waiting for a second tap.
	EventTimeout
)

func (k EventKind) String() string {
	switch k {
	case EventRangeConfirmed:
		return "range_confirmed"
	case EventRangeCleared:
		return "range_cleared"
	case EventTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to listeners after the selector lock is released.
type Event struct {
	Kind EventKind
	// Range is set for EventRangeConfirmed.
	Range models.Range
}

// Listener observes selector events.
type Listener func(Event)

// Point is a screen coordinate in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

type listenerEntry struct {
	id int
	fn Listener
}

type touchState struct {
	active bool
	origin Point
	start  models.CellPosition
	last   models.CellPosition
	moved  bool
}

// Selector is the range selection state machine.
type Selector struct {
	mu sync.Mutex

	mode      Mode
	state     State
	anchor    models.CellPosition
	hover     models.CellPosition
	rng       models.Range
	rows      int
	cols      int
	timeout   time.Duration
	threshold float64

	timer *time.Timer
	gen   uint64
	touch touchState

	listeners   []listenerEntry
	nextID      int
	pending     []Event
	dispatching bool
	logger      *slog.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithMode sets the initial interaction mode.
func WithMode(m Mode) Option {
	return func(s *Selector) { s.mode = m }
}

// WithTimeout sets the click-mode inactivity timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Selector) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMoveThreshold sets the tap/scroll disambiguation distance.
func WithMoveThreshold(px float64) Option {
	return func(s *Selector) {
		if px > 0 {
			s.threshold = px
		}
	}
}

// WithBounds limits selectable cells to the grid extents. Zero means unbounded.
func WithBounds(rows, cols int) Option {
	return func(s *Selector) { s.rows, s.cols = rows, cols }
}

// WithLogger sets the logger used for transition diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Selector) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an Idle selector.
func New(opts ...Option) *Selector {
	s := &Selector{
		timeout:   DefaultTimeout,
		threshold: DefaultMoveThreshold,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l and returns a function that removes it.
func (s *Selector) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, e := range s.listeners {
			if e.id == id {
				s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// apply runs fn under the lock and queues the events it returns. Listeners
// are called without the lock held, by one goroutine at a time, in the order
// the transitions happened. A call made while another goroutine is
// delivering returns once its events are queued; that goroutine delivers
// them. A listener may call back into the Selector; its events are
// delivered after the current ones.
func (s *Selector) apply(fn func() []Event) {
	s.mu.Lock()
	s.pending = append(s.pending, fn()...)
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	defer func() {
		// A panicking listener must not leave the queue claimed.
		if r := recover(); r != nil {
			s.mu.Lock()
			s.dispatching = false
			s.pending = nil
			s.mu.Unlock()
			panic(r)
		}
	}()
	for len(s.pending) > 0 {
		events := s.pending
		s.pending = nil
		listeners := make([]listenerEntry, len(s.listeners))
		copy(listeners, s.listeners)
		s.mu.Unlock()

		for _, ev := range events {
			for _, l := range listeners {
				l.fn(ev)
			}
		}
		s.mu.Lock()
	}
	s.dispatching = false
	s.mu.Unlock()
}

// State returns the current state.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the active interaction mode.
func (s *Selector) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Range returns the published range, if any.
func (s *Selector) Range() (models.Range, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng, s.state == Confirmed
}

// Anchor returns the fixed corner of an in-progress selection.
func (s *Selector) Anchor() (models.CellPosition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.anchor, s.state == Anchoring
}

// Preview returns the rectangle to highlight while anchoring. It is never
// published.
func (s *Selector) Preview() (models.Range, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Anchoring {
		return models.Range{}, false
	}
	return models.NewRange(s.anchor, s.hover), true
}

// SetBounds updates the selectable extents, e.g. after switching sheets.
// Any selection is cleared.
func (s *Selector) SetBounds(rows, cols int) {
	s.apply(func() []Event {
		s.rows, s.cols = rows, cols
		return s.clear()
	})
}

// SetMode switches interaction mode. An in-progress anchor is discarded;
// a confirmed range survives.
func (s *Selector) SetMode(m Mode) {
	s.apply(func() []Event {
		if m == s.mode {
			return nil
		}
		s.mode = m
		s.touch = touchState{}
		if s.state == Anchoring {
			s.stopTimer()
			s.state = Idle
		}
		s.logger.Debug("selection mode changed", "mode", m.String())
		return nil
	})
}

// BeginSelection fixes the anchor corner. It is ignored while another
// selection is already anchoring.
func (s *Selector) BeginSelection(anchor models.CellPosition) {
	s.apply(func() []Event { return s.begin(anchor) })
}

// UpdateHover moves the preview corner during a drag.
func (s *Selector) UpdateHover(pos models.CellPosition) {
	s.apply(func() []Event {
		s.updateHover(pos)
		return nil
	})
}

// FinalizeSelection publishes the rectangle between the anchor and pos.
func (s *Selector) FinalizeSelection(pos models.CellPosition) {
	s.apply(func() []Event { return s.finalize(pos) })
}

// Clear discards any anchor, pending timeout and published range.
func (s *Selector) Clear() {
	s.apply(s.clear)
}

// PointerDown handles a mouse press on a cell.
func (s *Selector) PointerDown(pos models.CellPosition) {
	s.apply(func() []Event {
		if s.mode != ModeDrag {
			return nil
		}
		return s.begin(pos)
	})
}

// PointerEnter handles the pointer entering a cell.
func (s *Selector) PointerEnter(pos models.CellPosition) {
	s.apply(func() []Event {
		s.updateHover(pos)
		return nil
	})
}

// PointerUp handles a mouse release over a cell.
func (s *Selector) PointerUp(pos models.CellPosition) {
	s.apply(func() []Event {
		if s.mode != ModeDrag {
			return nil
		}
		return s.finalize(pos)
	})
}

// PointerLeave handles the pointer leaving the grid. A drag in progress is
// finalized at the last hovered cell when a button is still held.
func (s *Selector) PointerLeave(buttonHeld bool) {
	s.apply(func() []Event {
		if s.mode != ModeDrag || !buttonHeld {
			return nil
		}
		return s.finalize(s.hover)
	})
}

// Click handles a click or tap in click-to-select mode.
func (s *Selector) Click(pos models.CellPosition) {
	s.apply(func() []Event { return s.click(pos) })
}

// TouchStart records the origin of a touch gesture.
func (s *Selector) TouchStart(pos models.CellPosition, at Point) {
	s.apply(func() []Event {
		if !s.inBounds(pos) {
			return nil
		}
		s.touch = touchState{active: true, origin: at, start: pos, last: pos}
		return nil
	})
}

// TouchMove tracks a touch. Once it travels past the move threshold it is
// a scroll in click mode and a drag-select in drag mode.
func (s *Selector) TouchMove(pos models.CellPosition, at Point) {
	s.apply(func() []Event {
		if !s.touch.active {
			return nil
		}
		var events []Event
		if !s.touch.moved && distance(at, s.touch.origin) > s.threshold {
			s.touch.moved = true
			if s.mode == ModeDrag {
				events = s.begin(s.touch.start)
			}
		}
		if s.inBounds(pos) {
			s.touch.last = pos
			if s.touch.moved {
				s.updateHover(pos)
			}
		}
		return events
	})
}

// TouchEnd completes a touch gesture.
func (s *Selector) TouchEnd(pos models.CellPosition, at Point) {
	s.apply(func() []Event {
		t := s.touch
		s.touch = touchState{}
		if !t.active {
			return nil
		}
		if !t.moved && distance(at, t.origin) > s.threshold {
			t.moved = true
		}
		end := t.last
		if s.inBounds(pos) {
			end = pos
		}

		if s.mode == ModeClick {
			if t.moved {
				// Scrolling the page; do not hijack it.
				return nil
			}
			return s.click(t.start)
		}

		if !t.moved {
			end = t.start
		}
		var events []Event
		if s.state != Anchoring {
			events = s.begin(t.start)
		}
		return append(events, s.finalize(end)...)
	})
}

// SetManual publishes the range between two typed references. Input is
// upper-cased before parsing. On error the current state is left unchanged.
func (s *Selector) SetManual(startRef, endRef string) error {
	start, err := cellref.Parse(strings.ToUpper(strings.TrimSpace(startRef)))
	if err != nil {
		return err
	}
	end, err := cellref.Parse(strings.ToUpper(strings.TrimSpace(endRef)))
	if err != nil {
		return err
	}

	var outErr error
	s.apply(func() []Event {
		for _, p := range []models.CellPosition{start, end} {
			if !s.inBounds(p) {
				outErr = fmt.Errorf("%w: %s is outside the %dx%d grid",
					cellref.ErrInvalidReference, cellref.Format(p), s.rows, s.cols)
				return nil
			}
		}
		s.stopTimer()
		s.touch = touchState{}
		return s.publish(models.NewRange(start, end))
	})
	return outErr
}

func (s *Selector) inBounds(p models.CellPosition) bool {
	if !p.Valid() {
		return false
	}
	if s.rows > 0 && p.Row > s.rows {
		return false
	}
	if s.cols > 0 && p.Col > s.cols {
		return false
	}
	return true
}

func (s *Selector) begin(anchor models.CellPosition) []Event {
	if s.state == Anchoring || !s.inBounds(anchor) {
		return nil
	}
	var events []Event
	if s.state == Confirmed {
		events = append(events, Event{Kind: EventRangeCleared})
	}
	s.state = Anchoring
	s.anchor = anchor
	s.hover = anchor
	s.rng = models.Range{}
	if s.mode == ModeClick {
		s.startTimer()
	}
	s.logger.Debug("selection anchored", "cell", cellref.Format(anchor), "mode", s.mode.String())
	return events
}

func (s *Selector) updateHover(pos models.CellPosition) {
	if s.state != Anchoring || s.mode != ModeDrag || !s.inBounds(pos) {
		return
	}
	s.hover = pos
}

func (s *Selector) finalize(pos models.CellPosition) []Event {
	if s.state != Anchoring {
		return nil
	}
	if !s.inBounds(pos) {
		pos = s.hover
	}
	s.stopTimer()
	return s.publish(models.NewRange(s.anchor, pos))
}

func (s *Selector) publish(r models.Range) []Event {
	s.state = Confirmed
	s.rng = r
	s.anchor = models.CellPosition{}
	s.hover = models.CellPosition{}
	s.logger.Debug("selection confirmed", "range", cellref.FormatRange(r))
	return []Event{{Kind: EventRangeConfirmed, Range: r}}
}

func (s *Selector) click(pos models.CellPosition) []Event {
	if s.mode != ModeClick || !s.inBounds(pos) {
		return nil
	}
	if s.state != Anchoring {
		return s.begin(pos)
	}
	if pos == s.anchor {
		s.stopTimer()
		s.state = Idle
		s.anchor = models.CellPosition{}
		s.hover = models.CellPosition{}
		s.logger.Debug("selection cancelled", "cell", cellref.Format(pos))
		return nil
	}
	return s.finalize(pos)
}

func (s *Selector) clear() []Event {
	s.stopTimer()
	s.touch = touchState{}
	was := s.state
	s.state = Idle
	s.anchor = models.CellPosition{}
	s.hover = models.CellPosition{}
	s.rng = models.Range{}
	if was == Confirmed {
		return []Event{{Kind: EventRangeCleared}}
	}
	return nil
}

// startTimer replaces any pending timeout. Callers hold s.mu.
func (s *Selector) startTimer() {
	s.stopTimer()
	gen := s.gen
	s.timer = time.AfterFunc(s.timeout, func() { s.expire(gen) })
}

// stopTimer cancels the pending timeout and invalidates any fire already in
// flight. Callers hold s.mu.
func (s *Selector) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Selector) expire(gen uint64) {
	s.apply(func() []Event {
		if gen != s.gen || s.state != Anchoring {
			return nil
		}
		s.timer = nil
		s.state = Idle
		s.anchor = models.CellPosition{}
		s.hover = models.CellPosition{}
		s.logger.Info("selection timed out waiting for second cell", "timeout", s.timeout)
		return []Event{{Kind: EventTimeout}}
	})
}
