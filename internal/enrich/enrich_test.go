package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmuehlb/esefscan/pkg/models"
)

// fakeTerminal scripts per-call answers so the retry and degradation
// paths can be driven deterministically.
type fakeTerminal struct {
	calls   int
	answers []func(instrument string, fields []TRField, params map[string]string) (Row, error)
}

func (f *fakeTerminal) Get(_ context.Context, instrument string, fields []TRField, params map[string]string) (Row, error) {
	if f.calls >= len(f.answers) {
		return nil, &TermError{Code: 400, Message: "unscripted call"}
	}
	answer := f.answers[f.calls]
	f.calls++
	return answer(instrument, fields, params)
}

func (f *fakeTerminal) Ping(context.Context) error { return nil }

func answerRow(row Row) func(string, []TRField, map[string]string) (Row, error) {
	return func(string, []TRField, map[string]string) (Row, error) {
		return row, nil
	}
}

func answerErr(err error) func(string, []TRField, map[string]string) (Row, error) {
	return func(string, []TRField, map[string]string) (Row, error) {
		return nil, err
	}
}

func fastClient(t *fakeTerminal) *Client {
	return NewClient(t, WithMinInterval(0), WithOutput(io.Discard))
}

func TestFetchSuccess(t *testing.T) {
	term := &fakeTerminal{answers: []func(string, []TRField, map[string]string) (Row, error){
		func(instrument string, fields []TRField, _ map[string]string) (Row, error) {
			if instrument != "529900NNUPAGGOMPXZ31@LEI" {
				t.Fatalf("unexpected instrument in ISIN step: %q", instrument)
			}
			if len(fields) != 1 || fields[0].Name != FieldISIN {
				t.Fatalf("ISIN step requested wrong fields: %+v", fields)
			}
			return Row{FieldISIN: "DE0007664039"}, nil
		},
		func(instrument string, _ []TRField, params map[string]string) (Row, error) {
			if instrument != "DE0007664039" {
				t.Fatalf("company step keyed by %q, want ISIN", instrument)
			}
			if params["SDate"] != "20211231" {
				t.Fatalf("company step SDate = %q, want 20211231", params["SDate"])
			}
			return Row{
				FieldCommonName:  "Volkswagen AG",
				FieldSector:      "Manufacturing",
				FieldCountry:     "Germany",
				FieldMarketCap:   "112000",
				FieldAuditor:     "EY",
				FieldTotalAssets: "528609",
			}, nil
		},
		func(_ string, fields []TRField, params map[string]string) (Row, error) {
			if len(fields) != 1 || fields[0].Name != FieldTotalAssets {
				t.Fatalf("prior-period step requested wrong fields: %+v", fields)
			}
			if params["SDate"] != "20201231" {
				t.Fatalf("prior-period SDate = %q, want 20201231", params["SDate"])
			}
			return Row{FieldTotalAssets: "497114"}, nil
		},
	}}

	c, err := fastClient(term).Fetch(context.Background(), "529900NNUPAGGOMPXZ31", "20211231")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if c.ISIN != "DE0007664039" || c.Name != "Volkswagen AG" {
		t.Fatalf("identity not applied: %+v", c)
	}
	if c.TotalAssets != "528609" || c.TotalAssetsPrior != "497114" {
		t.Fatalf("balance figures not applied: assets=%q prior=%q", c.TotalAssets, c.TotalAssetsPrior)
	}
	if c.FreeFloat != models.NotAvailable {
		t.Fatalf("missing field should degrade to placeholder, got %q", c.FreeFloat)
	}
}

func TestFetchRetriesTransientErrors(t *testing.T) {
	serverDown := &TermError{Code: 500, Message: "backend unavailable"}
	term := &fakeTerminal{answers: []func(string, []TRField, map[string]string) (Row, error){
		answerErr(serverDown),
		answerErr(serverDown),
		answerRow(Row{FieldISIN: "FI0009000681"}),
		answerRow(Row{FieldCommonName: "Nokia Oyj"}),
		answerRow(Row{FieldTotalAssets: "39000"}),
	}}

	c, err := fastClient(term).Fetch(context.Background(), "549300A0JPRWG1KI7U06", "20211231")
	if err != nil {
		t.Fatalf("Fetch after transient errors: %v", err)
	}
	if c.ISIN != "FI0009000681" {
		t.Fatalf("ISIN = %q after retries", c.ISIN)
	}
	if term.calls != 5 {
		t.Fatalf("terminal called %d times, want 5", term.calls)
	}
}

func TestFetchGivesUpAfterMaxAttempts(t *testing.T) {
	serverDown := &TermError{Code: 503, Message: "service unavailable"}
	term := &fakeTerminal{}
	for i := 0; i < 10; i++ {
		term.answers = append(term.answers, answerErr(serverDown))
	}

	c, err := fastClient(term).Fetch(context.Background(), "549300A0JPRWG1KI7U06", "20211231")
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if term.calls != 5 {
		t.Fatalf("terminal called %d times, want exactly 5", term.calls)
	}
	// Every field of the degraded company must be the placeholder.
	if c.ISIN != models.NotAvailable || c.Name != models.NotAvailable || c.TotalAssets != models.NotAvailable {
		t.Fatalf("degraded company carries live values: %+v", c)
	}
}

func TestFetchDefinitiveErrorNotRetried(t *testing.T) {
	term := &fakeTerminal{answers: []func(string, []TRField, map[string]string) (Row, error){
		answerErr(&TermError{Code: 400, Message: "unknown instrument"}),
	}}

	_, err := fastClient(term).Fetch(context.Background(), "BAD", "20211231")
	if err == nil {
		t.Fatal("expected error")
	}
	if term.calls != 1 {
		t.Fatalf("definitive error retried: %d calls", term.calls)
	}
}

func TestFetchNoISINResolvable(t *testing.T) {
	term := &fakeTerminal{answers: []func(string, []TRField, map[string]string) (Row, error){
		answerRow(Row{FieldISIN: ""}),
	}}

	c, err := fastClient(term).Fetch(context.Background(), "529900XXXXXXXXXXXX00", "20211231")
	if err == nil {
		t.Fatal("expected error for unresolvable ISIN")
	}
	if !strings.Contains(err.Error(), "529900XXXXXXXXXXXX00") {
		t.Fatalf("error does not name the LEI: %v", err)
	}
	if c.Name != models.NotAvailable {
		t.Fatalf("company not degraded: %+v", c)
	}
}

func TestEnrichAllContinuesPastFailures(t *testing.T) {
	term := &fakeTerminal{answers: []func(string, []TRField, map[string]string) (Row, error){
		// First company fails definitively.
		answerErr(&TermError{Code: 404, Message: "no data"}),
		// Second company succeeds.
		answerRow(Row{FieldISIN: "DE0007664039"}),
		answerRow(Row{FieldCommonName: "Volkswagen AG"}),
		answerRow(Row{FieldTotalAssets: "497114"}),
	}}

	filings := []*models.Filing{
		{PackageName: "broken2021", LEI: "AAAA00000000000000AA", PeriodEnd: "20211231"},
		{PackageName: "vw2021", LEI: "529900NNUPAGGOMPXZ31", PeriodEnd: "20211231"},
	}

	companies, failures := fastClient(term).EnrichAll(context.Background(), filings)
	if len(companies) != 2 {
		t.Fatalf("got %d companies, want 2", len(companies))
	}
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1: %v", len(failures), failures)
	}
	if _, ok := failures["AAAA00000000000000AA"]; !ok {
		t.Fatalf("failure not recorded for failing LEI: %v", failures)
	}

	degraded := companies["AAAA00000000000000AA"]
	if degraded.Name != models.NotAvailable {
		t.Fatalf("failed company carries live values: %+v", degraded)
	}
	if degraded.Filings["20211231"] == nil {
		t.Fatal("failed company lost its filing")
	}
	if companies["529900NNUPAGGOMPXZ31"].Name != "Volkswagen AG" {
		t.Fatalf("successful company not enriched: %+v", companies["529900NNUPAGGOMPXZ31"])
	}
}

func TestEnrichAllFetchesEachLEIOnce(t *testing.T) {
	term := &fakeTerminal{answers: []func(string, []TRField, map[string]string) (Row, error){
		answerRow(Row{FieldISIN: "DE0007664039"}),
		answerRow(Row{FieldCommonName: "Volkswagen AG"}),
		answerRow(Row{FieldTotalAssets: "497114"}),
	}}

	filings := []*models.Filing{
		{PackageName: "vw2020", LEI: "529900NNUPAGGOMPXZ31", PeriodEnd: "20201231"},
		{PackageName: "vw2021", LEI: "529900NNUPAGGOMPXZ31", PeriodEnd: "20201231"},
	}

	companies, failures := fastClient(term).EnrichAll(context.Background(), filings)
	if len(failures) != 0 {
		t.Fatalf("unexpected failures: %v", failures)
	}
	if term.calls != 3 {
		t.Fatalf("terminal called %d times for one LEI, want 3", term.calls)
	}
	if len(companies["529900NNUPAGGOMPXZ31"].Filings) != 1 {
		t.Fatalf("filings map: %+v", companies["529900NNUPAGGOMPXZ31"].Filings)
	}
}

func TestHTTPTerminalGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-TR-ApplicationID") != "test-key" {
			t.Errorf("app key header = %q", r.Header.Get("X-TR-ApplicationID"))
		}
		var req terminalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Instruments) != 1 || req.Instruments[0] != "DE0007664039" {
			t.Errorf("instruments = %v", req.Instruments)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"instrument": "DE0007664039", "values": map[string]string{FieldCommonName: "Volkswagen AG"}},
			},
		})
	}))
	defer srv.Close()

	term := NewHTTPTerminal(srv.URL, "test-key")
	row, err := term.Get(context.Background(), "DE0007664039", []TRField{{Name: FieldCommonName}}, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row[FieldCommonName] != "Volkswagen AG" {
		t.Fatalf("row = %v", row)
	}
}

func TestHTTPTerminalServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	term := NewHTTPTerminal(srv.URL, "test-key")
	_, err := term.Get(context.Background(), "DE0007664039", []TRField{{Name: FieldCommonName}}, nil)
	var termErr *TermError
	if !errors.As(err, &termErr) {
		t.Fatalf("want TermError, got %T: %v", err, err)
	}
	if !termErr.Transient() {
		t.Fatalf("502 should be transient: %+v", termErr)
	}
}

func TestHTTPTerminalBodyErrorIsDefinitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 412, "message": "unknown instrument"},
		})
	}))
	defer srv.Close()

	term := NewHTTPTerminal(srv.URL, "test-key")
	_, err := term.Get(context.Background(), "NOSUCH", []TRField{{Name: FieldCommonName}}, nil)
	var termErr *TermError
	if !errors.As(err, &termErr) {
		t.Fatalf("want TermError, got %T: %v", err, err)
	}
	if termErr.Transient() {
		t.Fatalf("in-body error should be definitive: %+v", termErr)
	}
}

func TestHTTPTerminalPing(t *testing.T) {
	var gotInstrument string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req terminalRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Instruments) == 1 {
			gotInstrument = req.Instruments[0]
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"instrument": req.Instruments[0], "values": map[string]string{probeField: "103.56"}},
			},
		})
	}))
	defer srv.Close()

	term := NewHTTPTerminal(srv.URL, "test-key")
	if err := term.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if gotInstrument != probeInstrument {
		t.Fatalf("probe instrument = %q", gotInstrument)
	}

	down := NewHTTPTerminal("http://127.0.0.1:1", "test-key")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := down.Ping(ctx); err == nil {
		t.Fatal("Ping against closed port should fail")
	}
}
