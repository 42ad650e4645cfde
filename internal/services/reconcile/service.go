// Package reconcile aligns note statuses with the instruments currently held
// in the consolidated portfolio.
//
// The transition dates it stamps are the reconciliation run's date, not trade
// dates: the holdings feed reports current positions only, with no
// transaction history to recover the real fill date from.
package reconcile

import (
	"context"
	"strings"
	"time"

	"github.com/damoa-dev/damoa/internal/common"
	"github.com/damoa-dev/damoa/internal/interfaces"
	"github.com/damoa-dev/damoa/internal/models"
)

// Compile-time interface check
var _ interfaces.ReconcileService = (*Service)(nil)

// Service implements ReconcileService. It reads and writes the note table
// directly so one reconcile pass costs exactly one read and, when anything
// changed, one write.
type Service struct {
	storage interfaces.StorageManager
	table   string
	logger  *common.Logger

	// now is the clock for transition dates. Tests pin it.
	now func() time.Time
}

// NewService creates a new reconcile service
func NewService(storage interfaces.StorageManager, table string, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		table:   table,
		logger:  logger,
		now:     time.Now,
	}
}

// Reconcile applies the status state machine to every note:
//
//	held, status != holding     -> holding (first-buy date set if empty)
//	not held, status = holding  -> sold (last-sell date set)
//	not held, status empty      -> watch
//	anything else               -> unchanged
//
// "sold" is re-enterable: a code that reappears in the holdings transitions
// back to holding. Running twice against the same holdings changes nothing
// the second time.
func (s *Service) Reconcile(ctx context.Context, heldCodes []string) (*models.ReconcileResult, error) {
	held := make(map[string]bool, len(heldCodes))
	for _, code := range heldCodes {
		held[code] = true
	}

	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(models.DateFormat)
	result := &models.ReconcileResult{Checked: len(notes)}

	for i := range notes {
		n := &notes[i]
		from := n.Status

		switch {
		case held[n.Code] && n.Status != models.NoteStatusHolding:
			n.Status = models.NoteStatusHolding
			if n.FirstBuyDate == "" {
				n.FirstBuyDate = today
			}
		case !held[n.Code] && n.Status == models.NoteStatusHolding:
			n.Status = models.NoteStatusSold
			n.LastSellDate = today
		case !held[n.Code] && n.Status == "":
			n.Status = models.NoteStatusWatch
		default:
			continue
		}

		n.LastModified = today
		result.Updated++
		result.Changes = append(result.Changes, models.StatusChange{Code: n.Code, From: from, To: n.Status})
		s.logger.Info().Str("code", n.Code).Str("from", from).Str("to", n.Status).Msg("note status transition")
	}

	if result.Updated == 0 {
		s.logger.Info().Int("checked", result.Checked).Msg("reconcile found nothing to change")
		return result, nil
	}

	if err := s.save(ctx, notes); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int("checked", result.Checked).
		Int("updated", result.Updated).
		Msg("notes reconciled against holdings")
	return result, nil
}

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
