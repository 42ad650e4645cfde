// Package notes manages the per-instrument investment note table. Every
// mutation re-serializes the whole note set and overwrites the backing table,
// so the persisted table always matches memory exactly.
package notes

import (
	"context"
	"strings"
	"time"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
	"github.com/damoa-dev/damoa/internal/models"
)

// Compile-time interface check
var _ interfaces.NoteService = (*Service)(nil)

// Service implements NoteService
type Service struct {
	storage interfaces.StorageManager
	table   string
	logger  *common.Logger

	// now is the clock for LastModified stamps. Tests pin it.
	now func() time.Time
}

// NewService creates a new note service
func NewService(storage interfaces.StorageManager, table string, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		table:   table,
		logger:  logger,
		now:     time.Now,
	}
}

// load reads the full note set from the backing table.
func (s *Service) load(ctx context.Context) ([]models.NoteRecord, error) {
	raw, err := s.storage.TableStore().ReadAll(ctx, s.table)
	if err != nil {
		return nil, &models.PersistenceError{Op: "read", Table: s.table, Err: err}
	}
	if len(raw) == 0 {
		return nil, nil
	}

	rows := raw
	if len(rows[0]) > 0 && rows[0][0] == models.NoteColumns[0] {
		rows = rows[1:]
	}

	notes := make([]models.NoteRecord, 0, len(rows))
	for _, cells := range rows {
		if len(cells) == 0 || strings.TrimSpace(cells[0]) == "" {
			continue
		}
		notes = append(notes, models.NoteFromTableRow(cells))
	}
	return notes, nil
}

// save overwrites the backing table with the full note set.
func (s *Service) save(ctx context.Context, notes []models.NoteRecord) error {
	rows := make([][]string, 0, len(notes))
	for _, n := range notes {
		rows = append(rows, n.TableRow())
	}
	if err := s.storage.TableStore().ReplaceAll(ctx, s.table, models.NoteColumns, rows); err != nil {
		return &models.PersistenceError{Op: "replace", Table: s.table, Err: err}
	}
	return nil
}

// List returns every note in persisted order.
func (s *Service) List(ctx context.Context) ([]models.NoteRecord, error) {
	return s.load(ctx)
}

// ListByStatus filters notes by reconcile status.
func (s *Service) ListByStatus(ctx context.Context, status string) ([]models.NoteRecord, error) {
	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]models.NoteRecord, 0, len(notes))
	for _, n := range notes {
		if n.Status == status {
			filtered = append(filtered, n)
		}
	}
	return filtered, nil
}

// Get returns the note for an instrument code.
func (s *Service) Get(ctx context.Context, code string) (*models.NoteRecord, error) {
	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range notes {
		if notes[i].Code == code {
			return &notes[i], nil
		}
	}
	return nil, models.ErrNoteNotFound
}

// Add creates a note. The instrument code is the unique key; a duplicate is
// rejected without touching the existing record.
func (s *Service) Add(ctx context.Context, note models.NoteRecord) error {
	notes, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, n := range notes {
		if n.Code == note.Code {
			return models.ErrNoteExists
		}
	}

	note.LastModified = s.now().Format(models.DateFormat)
	notes = append(notes, note)
	if err := s.save(ctx, notes); err != nil {
		return err
	}

	s.logger.Info().Str("code", note.Code).Msg("note added")
	return nil
}

// Update replaces the operator-authored fields of an existing note. The
// reconciler-owned status and dates survive unless the caller sets them
// explicitly.
func (s *Service) Update(ctx context.Context, note models.NoteRecord) error {
	notes, err := s.load(ctx)
	if err != nil {
		return err
	}

	for i := range notes {
		if notes[i].Code != note.Code {
			continue
		}

		if note.Status == "" {
			note.Status = notes[i].Status
		}
		if note.FirstBuyDate == "" {
			note.FirstBuyDate = notes[i].FirstBuyDate
		}
		if note.LastSellDate == "" {
			note.LastSellDate = notes[i].LastSellDate
		}
		note.LastModified = s.now().Format(models.DateFormat)
		notes[i] = note

		if err := s.save(ctx, notes); err != nil {
			return err
		}
		s.logger.Info().Str("code", note.Code).Msg("note updated")
		return nil
	}
	return models.ErrNoteNotFound
}

// Delete removes the note for a code. The reconciler never calls this; only
// an explicit operator delete does.
func (s *Service) Delete(ctx context.Context, code string) error {
	notes, err := s.load(ctx)
	if err != nil {
		return err
	}

	for i := range notes {
		if notes[i].Code != code {
			continue
		}
		notes = append(notes[:i], notes[i+1:]...)
		if err := s.save(ctx, notes); err != nil {
			return err
		}
		s.logger.Info().Str("code", code).Msg("note deleted")
		return nil
	}
	return models.ErrNoteNotFound
}

// Missing returns the held codes that have no note yet, in input order.
func (s *Service) Missing(ctx context.Context, heldCodes []string) ([]string, error) {
	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(notes))
	for _, n := range notes {
		known[n.Code] = true
	}

	missing := make([]string, 0)
	for _, code := range heldCodes {
		if !known[code] {
			missing = append(missing, code)
		}
	}
	return missing, nil
}

// Migrate rewrites the table under the current schema, backfilling columns
// added since the rows were written with empty values. Rows counted are the
// ones shorter than the current column set.
func (s *Service) Migrate(ctx context.Context) (int, error) {
	raw, err := s.storage.TableStore().ReadAll(ctx, s.table)
	if err != nil {
		return 0, &models.PersistenceError{Op: "read", Table: s.table, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}

	rows := raw
	if len(rows[0]) > 0 && rows[0][0] == models.NoteColumns[0] {
		rows = rows[1:]
	}

	short := 0
	notes := make([]models.NoteRecord, 0, len(rows))
	for _, cells := range rows {
		if len(cells) == 0 || strings.TrimSpace(cells[0]) == "" {
			continue
		}
		if len(cells) < len(models.NoteColumns) {
			short++
		}
		notes = append(notes, models.NoteFromTableRow(cells))
	}

	if short == 0 {
		return 0, nil
	}
	if err := s.save(ctx, notes); err != nil {
		return 0, err
	}

	s.logger.Info().Int("backfilled", short).Msg("note table migrated to current schema")
	return short, nil
}
