package main

import (
	"fmt"
	"log/slog"

	"github.com/ukaji3/bomscan-go/internal/config"
	"github.com/ukaji3/bomscan-go/pkg/bomscan"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/cellref"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/ledger"
	"github.com/ukaji3/bomscan-go/pkg/bomscan/models"
)

// bomSession is a loaded sheet with a session over it.
type bomSession struct {
	BookName  string
	SheetName string
	Sheet     models.SheetData
	Session   *bomscan.Session
}

func openSession(path string, cfg *config.Config, logger *slog.Logger, recorder ledger.Recorder) (*bomSession, error) {
	wb, err := bomscan.Load(path, bomscan.DefaultOptions())
	if err != nil {
		return nil, err
	}
	name, sheet, ok := wb.Sheet(cfg.Sheet)
	if !ok {
		return nil, fmt.Errorf("sheet %q: %w", cfg.Sheet, bomscan.ErrNoData)
	}

	session := bomscan.NewSession(sheet.Grid, bomscan.SessionOptions{
		Mode:          cfg.SelectionMode(),
		Timeout:       cfg.Selection.Timeout,
		MoveThreshold: cfg.Selection.MoveThreshold,
		Recorder:      recorder,
		Logger:        logger.With("sheet", name),
	})
	return &bomSession{BookName: wb.BookName, SheetName: name, Sheet: sheet, Session: session}, nil
}

// selectRange confirms the configured range, falling back to the sheet's
// suggested range.
func (b *bomSession) selectRange(ref string) error {
	if ref == "" {
		rng, ok := b.Sheet.SuggestedRange()
		if !ok {
			return fmt.Errorf("no --range given and no table found on sheet %q: %w", b.SheetName, bomscan.ErrNoData)
		}
		ref = cellref.FormatRange(rng)
	}
	return b.Session.SelectRange(ref)
}

// confirmMapping applies configured column overrides to the proposed
// mapping and confirms it.
func (b *bomSession) confirmMapping(cfg *config.Config) (models.ColumnMapping, error) {
	overrides, err := cfg.MappingOverrides()
	if err != nil {
		return models.ColumnMapping{}, err
	}
	m, err := b.Session.OverrideColumns(overrides)
	if err != nil {
		return models.ColumnMapping{}, err
	}
	if err := b.Session.ConfirmMapping(m); err != nil {
		return models.ColumnMapping{}, fmt.Errorf("%w (use --map target=COLUMN)", err)
	}
	return m, nil
}
