package fx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/damoa-dev/damoa/internal/models"
)

// stubProvider serves a fixed body (or status) and counts hits.
func stubProvider(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	calls := new(int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestResolve_FirstPositiveRateWins(t *testing.T) {
	first, firstCalls := stubProvider(t, http.StatusOK, `{"rates":{"KRW":1385.2}}`)
	second, secondCalls := stubProvider(t, http.StatusOK, `{"rates":{"KRW":9999}}`)

	r := NewResolver()
	r.providers = []provider{
		{"primary", first.URL, "$.rates.KRW"},
		{"secondary", second.URL, "$.rates.KRW"},
	}

	quote := r.Resolve(context.Background())
	if quote.Rate != 1385.2 || quote.Source != "primary" {
		t.Errorf("quote = %+v, want 1385.2 from primary", quote)
	}
	if *firstCalls != 1 || *secondCalls != 0 {
		t.Errorf("provider calls = %d/%d, want 1/0", *firstCalls, *secondCalls)
	}
}

func TestResolve_FallsThroughFailures(t *testing.T) {
	down, _ := stubProvider(t, http.StatusInternalServerError, "")
	negative, _ := stubProvider(t, http.StatusOK, `{"rates":{"KRW":-3}}`)
	nested, _ := stubProvider(t, http.StatusOK, `{"data":{"KRW":{"value":1402.07}}}`)

	r := NewResolver()
	r.providers = []provider{
		{"down", down.URL, "$.rates.KRW"},
		{"negative", negative.URL, "$.rates.KRW"},
		{"nested", nested.URL, "$.data.KRW.value"},
	}

	quote := r.Resolve(context.Background())
	if quote.Rate != 1402.07 || quote.Source != "nested" {
		t.Errorf("quote = %+v, want 1402.07 from nested", quote)
	}
}

func TestResolve_AllProvidersFailUsesDefault(t *testing.T) {
	down, _ := stubProvider(t, http.StatusBadGateway, "")
	garbage, _ := stubProvider(t, http.StatusOK, `{"unexpected":true}`)

	r := NewResolver()
	r.providers = []provider{
		{"down", down.URL, "$.rates.KRW"},
		{"garbage", garbage.URL, "$.rates.KRW"},
	}

	quote := r.Resolve(context.Background())
	if quote.Rate != models.DefaultUSDKRW {
		t.Errorf("rate = %v, want default %v", quote.Rate, models.DefaultUSDKRW)
	}
	if quote.Source != models.RateSourceDefault {
		t.Errorf("source = %q, want %q", quote.Source, models.RateSourceDefault)
	}
}

func TestResolve_MemoizedUntilReset(t *testing.T) {
	srv, calls := stubProvider(t, http.StatusOK, `{"rates":{"KRW":1390}}`)

	r := NewResolver()
	r.providers = []provider{{"only", srv.URL, "$.rates.KRW"}}

	ctx := context.Background()
	r.Resolve(ctx)
	r.Resolve(ctx)
	if *calls != 1 {
		t.Errorf("provider hit %d times before Reset, want 1", *calls)
	}

	r.Reset()
	r.Resolve(ctx)
	if *calls != 2 {
		t.Errorf("provider hit %d times after Reset, want 2", *calls)
	}
}

func TestResolve_DefaultQuoteIsMemoizedToo(t *testing.T) {
	down, calls := stubProvider(t, http.StatusInternalServerError, "")

	r := NewResolver()
	r.providers = []provider{{"down", down.URL, "$.rates.KRW"}}

	ctx := context.Background()
	first := r.Resolve(ctx)
	second := r.Resolve(ctx)
	if first != second {
		t.Errorf("memoized quotes differ: %+v vs %+v", first, second)
	}
	if *calls != 1 {
		t.Errorf("failed provider retried within one run: %d calls", *calls)
	}
}
