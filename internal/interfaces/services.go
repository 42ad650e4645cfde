package interfaces

import (
	"context"

	"github.com/damoa-dev/damoa/internal/models"
)

// PortfolioService aggregates all configured accounts into one consolidated view.
type PortfolioService interface {
	// Aggregate collects holdings and cash from every account, converts and
	// weights them. Per-account failures degrade to empty results; an empty
	// run returns models.ErrNoData.
	Aggregate(ctx context.Context) (*models.ConsolidatedPortfolio, error)

	// Sync aggregates and persists the consolidated table plus the rate-info
	// record. On models.ErrNoData nothing is written.
	Sync(ctx context.Context) (*models.ConsolidatedPortfolio, error)

	// Load reads back the last persisted consolidated table.
	Load(ctx context.Context) (*models.ConsolidatedPortfolio, error)
}

// NoteService manages the per-instrument investment notes.
//
// Mutations re-serialize the full note set; there are no partial writes.
type NoteService interface {
	// List returns every note in persisted order.
	List(ctx context.Context) ([]models.NoteRecord, error)

	// ListByStatus filters notes by reconcile status (watch, holding, sold).
	ListByStatus(ctx context.Context, status string) ([]models.NoteRecord, error)

	// Get returns the note for an instrument code, or models.ErrNoteNotFound.
	Get(ctx context.Context, code string) (*models.NoteRecord, error)

	// Add creates a note. A duplicate code returns models.ErrNoteExists.
	Add(ctx context.Context, note models.NoteRecord) error

	// Update replaces the note for note.Code, preserving the reconciler-owned
	// status and dates when the incoming values are empty. An unknown code
	// returns models.ErrNoteNotFound.
	Update(ctx context.Context, note models.NoteRecord) error

	// Delete removes the note for a code, or returns models.ErrNoteNotFound.
	Delete(ctx context.Context, code string) error

	// Missing returns the held codes that have no note yet.
	Missing(ctx context.Context, heldCodes []string) ([]string, error)

	// Migrate backfills rows written under an older schema to the current
	// column set and reports how many rows changed.
	Migrate(ctx context.Context) (int, error)
}

// ReconcileService aligns note statuses with the currently held instruments.
type ReconcileService interface {
	// Reconcile applies the status transitions for the given held codes and
	// writes the notes back once when anything changed. Reconciling the same
	// holdings twice is a no-op the second time.
	Reconcile(ctx context.Context, heldCodes []string) (*models.ReconcileResult, error)
}
