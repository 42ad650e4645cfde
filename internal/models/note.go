package models

// DateFormat is the day precision used for note dates and reconcile stamps.
const DateFormat = "2006-01-02"

// Note status values maintained by the reconciler.
const (
	NoteStatusWatch   = "watch"
	NoteStatusHolding = "holding"
	NoteStatusSold    = "sold"
)

// Conviction levels for a note.
const (
	ConvictionLow    = "low"
	ConvictionMedium = "medium"
	ConvictionHigh   = "high"
)

// NoteColumns is the notes table header, in persisted column order. New
// columns are appended only; rows written under an older schema are
// backfilled by Migrate.
var NoteColumns = []string{
	"Code", "Name", "Thesis", "Conviction", "Sector", "Asset Type",
	"Catalysts", "Risks", "KPIs", "Horizon", "Target Price", "Exit Plan",
	"Status", "First Buy", "Last Sell", "Last Modified",
}

// StatusChange records one transition applied by the reconciler.
type StatusChange struct {
	Code string `json:"code"`
	From string `json:"from"`
	To   string `json:"to"`
}

// ReconcileResult summarizes one reconcile pass over the notes.
type ReconcileResult struct {
	Checked int            `json:"checked"`
	Updated int            `json:"updated"`
	Changes []StatusChange `json:"changes,omitempty"`
}

// NoteRecord is one free-text investment note, keyed by instrument code.
// Status and its two dates are owned by the reconciler; everything else is
// operator-authored text.
type NoteRecord struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Thesis       string `json:"thesis"`
	Conviction   string `json:"conviction"`
	Sector       string `json:"sector"`
	AssetType    string `json:"asset_type"`
	Catalysts    string `json:"catalysts"`
	Risks        string `json:"risks"`
	KPIs         string `json:"kpis"`
	Horizon      string `json:"horizon"`
	TargetPrice  string `json:"target_price"`
	ExitPlan     string `json:"exit_plan"`
	Status       string `json:"status"`
	FirstBuyDate string `json:"first_buy_date"`
	LastSellDate string `json:"last_sell_date"`
	LastModified string `json:"last_modified"`
}

// TableRow renders the note for tabular persistence, in NoteColumns order.
func (n NoteRecord) TableRow() []string {
	return []string{
		n.Code, n.Name, n.Thesis, n.Conviction, n.Sector, n.AssetType,
		n.Catalysts, n.Risks, n.KPIs, n.Horizon, n.TargetPrice, n.ExitPlan,
		n.Status, n.FirstBuyDate, n.LastSellDate, n.LastModified,
	}
}

// NoteFromTableRow parses one persisted note row. Rows shorter than the
// current schema are accepted with the missing columns left empty, so reads
// tolerate tables written before a column was added.
func NoteFromTableRow(row []string) NoteRecord {
	padded := make([]string, len(NoteColumns))
	copy(padded, row)
	return NoteRecord{
		Code:         padded[0],
		Name:         padded[1],
		Thesis:       padded[2],
		Conviction:   padded[3],
		Sector:       padded[4],
		AssetType:    padded[5],
		Catalysts:    padded[6],
		Risks:        padded[7],
		KPIs:         padded[8],
		Horizon:      padded[9],
		TargetPrice:  padded[10],
		ExitPlan:     padded[11],
		Status:       padded[12],
		FirstBuyDate: padded[13],
		LastSellDate: padded[14],
		LastModified: padded[15],
	}
}
