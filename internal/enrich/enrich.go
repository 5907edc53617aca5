// Package enrich fetches descriptive and financial company attributes from
// the external financial-data terminal, keyed by LEI, with request pacing,
// bounded retries on transient server errors, and placeholder degradation
// so that one unresolvable company never blocks the batch.
package enrich

import (
	"context"
	"fmt"
)

// TRField is a typed request descriptor for one terminal data field,
// e.g. {"TR.CompanyMarketCap", {"Scale": "6", "Curn": "EUR"}}.
type TRField struct {
	Name   string
	Params map[string]string
}

// Row holds one instrument's returned values, keyed by field name.
type Row map[string]string

// TermError is the structured error the terminal answers with.
type TermError struct {
	Code    int
	Message string
}

func (e *TermError) Error() string {
	return fmt.Sprintf("terminal error %d: %s", e.Code, e.Message)
}

// Transient reports whether the request may succeed if re-issued
// unchanged. Server-side failures are transient; bad identifiers or
// parameters are not.
func (e *TermError) Transient() bool {
	return e.Code >= 500
}

// Terminal is the external financial-data source. Requests are keyed by
// instrument identifier ("<LEI>@LEI" or a bare ISIN) against an explicit
// field list with optional request-level parameters.
type Terminal interface {
	Get(ctx context.Context, instrument string, fields []TRField, params map[string]string) (Row, error)
	Ping(ctx context.Context) error
}
