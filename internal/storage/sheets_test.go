package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"github.com/damoa-dev/damoa/internal/common"
)

// fakeSheetsAPI implements just enough of the Sheets REST surface for the
// store: spreadsheet metadata, clear, update and batchUpdate.
type fakeSheetsAPI struct {
	tabs    []string
	cleared []string
	written []string
	added   []string
}

func (f *fakeSheetsAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Path

		switch {
		case strings.HasSuffix(path, ":batchUpdate"):
			var req struct {
				Requests []struct {
					AddSheet struct {
						Properties struct {
							Title string `json:"title"`
						} `json:"properties"`
					} `json:"addSheet"`
				} `json:"requests"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			for _, rq := range req.Requests {
				f.added = append(f.added, rq.AddSheet.Properties.Title)
				f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
			}
			fmt.Fprint(w, `{}`)

		case strings.HasSuffix(path, ":clear"):
			f.cleared = append(f.cleared, rangeFromPath(path, ":clear"))
			fmt.Fprint(w, `{}`)

		case strings.Contains(path, "/values/"):
			f.written = append(f.written, rangeFromPath(path, ""))
			fmt.Fprint(w, `{}`)

		case strings.Contains(path, "/spreadsheets/"):
			sheets := make([]map[string]interface{}, 0, len(f.tabs))
			for _, tab := range f.tabs {
				sheets = append(sheets, map[string]interface{}{
					"properties": map[string]interface{}{"title": tab},
				})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"sheets": sheets})

		default:
			t.Errorf("unexpected sheets API path %s", path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// rangeFromPath extracts the URL-escaped range segment after /values/.
func rangeFromPath(path, suffix string) string {
	idx := strings.Index(path, "/values/")
	if idx < 0 {
		return ""
	}
	return strings.TrimSuffix(path[idx+len("/values/"):], suffix)
}

func newTestSheetsStore(t *testing.T, api *fakeSheetsAPI, opts ...interface{}) *SheetsStore {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	opts = append(opts,
		option.WithEndpoint(srv.URL),
		option.WithoutAuthentication(),
	)
	store, err := NewSheetsStore(common.NewSilentLogger(), &common.SheetsConfig{SpreadsheetID: "sheet-1"}, opts...)
	if err != nil {
		t.Fatalf("NewSheetsStore: %v", err)
	}
	return store
}

func TestSheetsStore_ReplaceAllClearsThenWrites(t *testing.T) {
	api := &fakeSheetsAPI{tabs: []string{"Portfolio"}}
	store := newTestSheetsStore(t, api)

	err := store.ReplaceAll(context.Background(), "Portfolio", []string{"Code"}, [][]string{{"AAA"}})
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if len(api.cleared) != 1 {
		t.Fatalf("clear called %d times, want 1", len(api.cleared))
	}
	if len(api.written) != 1 {
		t.Fatalf("update called %d times, want 1", len(api.written))
	}
	if len(api.added) != 0 {
		t.Errorf("a tab was added even though Portfolio exists: %v", api.added)
	}
}

func TestSheetsStore_MissingTabFallsBackToFirst(t *testing.T) {
	api := &fakeSheetsAPI{tabs: []string{"Sheet1", "Other"}}
	store := newTestSheetsStore(t, api, WithFirstSheetFallback("Portfolio"))

	err := store.ReplaceAll(context.Background(), "Portfolio", []string{"Code"}, nil)
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if len(api.added) != 0 {
		t.Errorf("fallback table created a tab: %v", api.added)
	}
	if len(api.cleared) != 1 || !strings.Contains(api.cleared[0], "Sheet1") {
		t.Errorf("cleared range %v, want the first tab Sheet1", api.cleared)
	}
}

func TestSheetsStore_MissingTabIsCreated(t *testing.T) {
	api := &fakeSheetsAPI{tabs: []string{"Sheet1"}}
	store := newTestSheetsStore(t, api, WithFirstSheetFallback("Portfolio"))

	err := store.ReplaceAll(context.Background(), "InvestmentNotes", []string{"Code"}, nil)
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	if len(api.added) != 1 || api.added[0] != "InvestmentNotes" {
		t.Errorf("added tabs %v, want InvestmentNotes", api.added)
	}
}

func TestSheetsStore_MissingTabReadsEmpty(t *testing.T) {
	api := &fakeSheetsAPI{tabs: []string{"Sheet1"}}
	store := newTestSheetsStore(t, api)

	rows, err := store.ReadAll(context.Background(), "InvestmentNotes")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if rows != nil {
		t.Errorf("missing tab read rows %v, want none", rows)
	}
}
