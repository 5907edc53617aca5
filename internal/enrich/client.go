package enrich

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jmuehlb/esefscan/internal/infra"
	"github.com/jmuehlb/esefscan/pkg/models"
	"github.com/jmuehlb/esefscan/pkg/utils"
)

// Client enriches companies through a Terminal. One Client serves one run.
type Client struct {
	terminal    Terminal
	pacer       *infra.Pacer
	cache       *infra.Cache
	maxAttempts int
	out         io.Writer
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithMaxAttempts bounds the retry budget per terminal request.
func WithMaxAttempts(n int) ClientOption {
	return func(c *Client) { c.maxAttempts = n }
}

// WithMinInterval sets the minimum spacing between terminal requests.
func WithMinInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.pacer = infra.NewPacer(d) }
}

// WithOutput redirects progress output.
func WithOutput(w io.Writer) ClientOption {
	return func(c *Client) { c.out = w }
}

// NewClient creates an enrichment client with the terminal's documented
// ceiling of five requests per second (200ms spacing) and five attempts
// per request.
func NewClient(terminal Terminal, opts ...ClientOption) *Client {
	c := &Client{
		terminal:    terminal,
		pacer:       infra.NewPacer(200 * time.Millisecond),
		cache:       infra.NewCache(1 * time.Hour),
		maxAttempts: 5,
		out:         os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the full attribute set for one company as of the given
// period end (YYYYMMDD).
//
// The terminal cannot serve the auditor field family against a LEI, so the
// lookup is two-step: resolve the ISIN via "<LEI>@LEI" first, then request
// the fields against the ISIN with the period end as the as-of date, plus
// one extra request for the prior-period total assets.
//
// On failure the returned Company carries "n/a" placeholders for every
// field and the error states the reason; callers record it and continue.
func (c *Client) Fetch(ctx context.Context, lei, periodEnd string) (*models.Company, error) {
	cacheKey := lei + "@" + periodEnd
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(*models.Company), nil
	}

	company := models.NewCompany(lei)

	isinRow, err := c.getWithRetry(ctx, lei+"@LEI", []TRField{{Name: FieldISIN}}, nil)
	if err != nil {
		return company, fmt.Errorf("resolve ISIN for %s: %w", lei, err)
	}
	isin := isinRow[FieldISIN]
	if isin == "" {
		return company, fmt.Errorf("no instrument identifier resolvable for %s", lei)
	}
	company.ISIN = isin

	row, err := c.getWithRetry(ctx, isin, companyFields(), map[string]string{"SDate": periodEnd})
	if err != nil {
		return company, fmt.Errorf("fetch company data for %s: %w", isin, err)
	}
	applyRow(company, row)

	if prior, err := utils.PriorPeriodEnd(periodEnd); err == nil {
		priorRow, err := c.getWithRetry(ctx, isin, []TRField{{Name: FieldTotalAssets, Params: eurMillions}}, map[string]string{"SDate": prior})
		if err != nil {
			return company, fmt.Errorf("fetch prior-period assets for %s: %w", isin, err)
		}
		company.TotalAssetsPrior = fieldOr(priorRow, FieldTotalAssets)
	}

	c.cache.Set(cacheKey, company)
	return company, nil
}

// getWithRetry issues one paced terminal request, re-issuing it unchanged
// on transient server errors up to the attempt budget. Definitive errors
// are returned immediately.
func (c *Client) getWithRetry(ctx context.Context, instrument string, fields []TRField, params map[string]string) (Row, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		row, err := c.terminal.Get(ctx, instrument, fields, params)
		if err == nil {
			return row, nil
		}
		lastErr = err

		var termErr *TermError
		if !errors.As(err, &termErr) || !termErr.Transient() {
			return nil, err
		}
		if attempt < c.maxAttempts {
			fmt.Fprintf(c.out, "  Terminal answered with a server error (%v), retrying... (attempt %d/%d)\n",
				err, attempt+1, c.maxAttempts)
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxAttempts, lastErr)
}

func applyRow(c *models.Company, row Row) {
	c.Name = fieldOr(row, FieldCommonName)
	c.Sector = fieldOr(row, FieldSector)
	c.Country = fieldOr(row, FieldCountry)
	c.Exchange = fieldOr(row, FieldExchange)
	c.MarketCap = fieldOr(row, FieldMarketCap)
	c.FreeFloat = fieldOr(row, FieldFreeFloat)
	c.Auditor = fieldOr(row, FieldAuditor)
	c.AuditorFees = fieldOr(row, FieldAuditorFees)
	c.Employees = fieldOr(row, FieldEmployees)
	c.Founded = fieldOr(row, FieldFounded)
	c.AnalystsFollowing = fieldOr(row, FieldAnalysts)
	c.TotalAssets = fieldOr(row, FieldTotalAssets)
	c.TotalDebt = fieldOr(row, FieldTotalDebt)
	c.Income = fieldOr(row, FieldIncome)
}

func fieldOr(row Row, name string) string {
	if v, ok := row[name]; ok && v != "" {
		return v
	}
	return models.NotAvailable
}

// EnrichAll fetches company attributes for every distinct LEI among the
// newly parsed filings, exactly once per LEI. Failures are recorded per
// LEI with their reason; the affected companies keep their placeholder
// values and the batch continues.
func (c *Client) EnrichAll(ctx context.Context, filings []*models.Filing) (map[string]*models.Company, map[string]string) {
	companies := make(map[string]*models.Company)
	failures := make(map[string]string)

	for _, f := range filings {
		company, ok := companies[f.LEI]
		if !ok {
			fmt.Fprintf(c.out, "\nFetching company data for %q (LEI %s) from the terminal.\n", f.PackageName, f.LEI)

			var err error
			company, err = c.Fetch(ctx, f.LEI, f.PeriodEnd)
			if err != nil {
				if ctx.Err() != nil {
					// Cancelled mid-batch: report what we have.
					failures[f.LEI] = ctx.Err().Error()
					companies[f.LEI] = company
					company.AddFiling(f)
					return companies, failures
				}
				fmt.Fprintf(c.out, "  ==> Company data not retrievable, substituting placeholders: %v\n", err)
				failures[f.LEI] = err.Error()
			} else {
				fmt.Fprintf(c.out, "  ==> Company data retrieved.\n")
			}
			companies[f.LEI] = company
		}
		company.AddFiling(f)
	}
	return companies, failures
}
