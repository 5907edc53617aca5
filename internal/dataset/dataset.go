// Package dataset implements the master research table: one row per
// ingested filing joined with its company's attributes, persisted as CSV
// and reloaded idempotently across runs.
package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jmuehlb/esefscan/pkg/models"
	"github.com/jmuehlb/esefscan/pkg/utils"
)

// ErrEmpty signals that an analyzer was asked to run over a dataset with
// no rows. Callers treat it as "nothing to do", not as a failure.
var ErrEmpty = errors.New("dataset has no rows")

// Columns is the canonical column set, in persisted order. Load rejects
// files whose header deviates from it.
var Columns = []string{
	"ESEF_PACKAGE_NAME", "LEI", "PERIOD_END",
	"ALL_TAGS", "PCT_ALL_TAGS", "ESEF_TAGS", "PCT_ESEF_TAGS", "EXT_TAGS", "PCT_EXT_TAGS",
	"SHA1", "ISIN", "COMPANY", "SECTOR", "COUNTRY",
	"MARKET_CAP", "FREE_FLOAT", "AUDITOR", "AUDITOR_FEES", "EMPLOYEES", "FOUNDED",
	"ANALYSTS_FOLLOWING", "TOTAL_ASSETS", "TOTAL_DEBT", "INCOME", "TOTAL_ASSETS_T-1",
}

// Row is one (company, filing) pair in the master dataset.
type Row struct {
	PackageName string
	LEI         string
	PeriodEnd   string

	AllTags     int
	PctAllTags  float64
	ESEFTags    int
	PctESEFTags float64
	ExtTags     int
	PctExtTags  float64

	SHA1 string

	ISIN              string
	Company           string
	Sector            string
	Country           string
	MarketCap         string
	FreeFloat         string
	Auditor           string
	AuditorFees       string
	Employees         string
	Founded           string
	AnalystsFollowing string
	TotalAssets       string
	TotalDebt         string
	Income            string
	TotalAssetsPrior  string
}

// BuildRow joins a completed filing, its summary, and its owning company
// into one dataset row.
func BuildRow(f *models.Filing, s models.FilingSummary, c *models.Company) Row {
	return Row{
		PackageName:       f.PackageName,
		LEI:               f.LEI,
		PeriodEnd:         f.PeriodEnd,
		AllTags:           s.AllTags,
		PctAllTags:        s.PctAllTags,
		ESEFTags:          s.ESEFTags,
		PctESEFTags:       s.PctESEFTags,
		ExtTags:           s.ExtTags,
		PctExtTags:        s.PctExtTags,
		SHA1:              f.SHA1,
		ISIN:              c.ISIN,
		Company:           c.Name,
		Sector:            c.Sector,
		Country:           c.Country,
		MarketCap:         c.MarketCap,
		FreeFloat:         c.FreeFloat,
		Auditor:           c.Auditor,
		AuditorFees:       c.AuditorFees,
		Employees:         c.Employees,
		Founded:           c.Founded,
		AnalystsFollowing: c.AnalystsFollowing,
		TotalAssets:       c.TotalAssets,
		TotalDebt:         c.TotalDebt,
		Income:            c.Income,
		TotalAssetsPrior:  c.TotalAssetsPrior,
	}
}

// Dataset is the in-memory master table for one sample.
type Dataset struct {
	rows []Row
}

// Load reads a persisted dataset. An absent file yields an empty dataset
// with the canonical column set, so first runs need no scaffolding.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	if len(records) == 0 {
		return &Dataset{}, nil
	}

	header := records[0]
	if len(header) != len(Columns) {
		return nil, fmt.Errorf("dataset %s: %d columns, want %d", path, len(header), len(Columns))
	}
	for i, col := range Columns {
		if header[i] != col {
			return nil, fmt.Errorf("dataset %s: column %d is %q, want %q", path, i, header[i], col)
		}
	}

	ds := &Dataset{rows: make([]Row, 0, len(records)-1)}
	for i, rec := range records[1:] {
		row, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("dataset %s row %d: %w", path, i+1, err)
		}
		ds.rows = append(ds.rows, row)
	}
	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Rows returns the rows in persisted order. The slice is shared; callers
// must not mutate it.
func (d *Dataset) Rows() []Row { return d.rows }

// HasChecksum reports whether a filing with the given content checksum is
// already part of the dataset.
func (d *Dataset) HasChecksum(sha1 string) bool {
	for _, row := range d.rows {
		if row.SHA1 == sha1 {
			return true
		}
	}
	return false
}

// LEIs returns the distinct legal entity identifiers across all rows, in
// first-seen order.
func (d *Dataset) LEIs() []string {
	seen := make(map[string]bool)
	var leis []string
	for _, row := range d.rows {
		if !seen[row.LEI] {
			seen[row.LEI] = true
			leis = append(leis, row.LEI)
		}
	}
	return leis
}

// Append adds rows to the in-memory table. Already-persisted rows are
// never mutated; a duplicate checksum among the new rows is an error, the
// caller must have deduplicated before row construction.
func (d *Dataset) Append(rows ...Row) error {
	for _, row := range rows {
		if d.HasChecksum(row.SHA1) {
			return fmt.Errorf("duplicate checksum %s (package %s)", row.SHA1, row.PackageName)
		}
		d.rows = append(d.rows, row)
	}
	return nil
}

// ApplyCompany overwrites the company-attribute columns of every row
// belonging to the given LEI. Used by the enrichment-refresh mode. Returns
// the number of rows touched.
func (d *Dataset) ApplyCompany(c *models.Company) int {
	var n int
	for i := range d.rows {
		if d.rows[i].LEI != c.LEI {
			continue
		}
		row := &d.rows[i]
		row.ISIN = c.ISIN
		row.Company = c.Name
		row.Sector = c.Sector
		row.Country = c.Country
		row.MarketCap = c.MarketCap
		row.FreeFloat = c.FreeFloat
		row.Auditor = c.Auditor
		row.AuditorFees = c.AuditorFees
		row.Employees = c.Employees
		row.Founded = c.Founded
		row.AnalystsFollowing = c.AnalystsFollowing
		row.TotalAssets = c.TotalAssets
		row.TotalDebt = c.TotalDebt
		row.Income = c.Income
		row.TotalAssetsPrior = c.TotalAssetsPrior
		n++
	}
	return n
}

// Persist writes the whole table back to path. The append is logical: the
// file is always rewritten in full, via a temp file and atomic rename.
func (d *Dataset) Persist(path string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}
	for _, row := range d.rows {
		if err := w.Write(row.Record()); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	if err := utils.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("persist dataset: %w", err)
	}
	return nil
}

// Record renders the row in persisted column order. Analyzers use it for
// per-group row exports.
func (r Row) Record() []string {
	return []string{
		r.PackageName, r.LEI, r.PeriodEnd,
		strconv.Itoa(r.AllTags), utils.FormatPct(r.PctAllTags),
		strconv.Itoa(r.ESEFTags), utils.FormatPct(r.PctESEFTags),
		strconv.Itoa(r.ExtTags), utils.FormatPct(r.PctExtTags),
		r.SHA1, r.ISIN, r.Company, r.Sector, r.Country,
		r.MarketCap, r.FreeFloat, r.Auditor, r.AuditorFees, r.Employees, r.Founded,
		r.AnalystsFollowing, r.TotalAssets, r.TotalDebt, r.Income, r.TotalAssetsPrior,
	}
}

func parseRow(rec []string) (Row, error) {
	if len(rec) != len(Columns) {
		return Row{}, fmt.Errorf("%d fields, want %d", len(rec), len(Columns))
	}

	allTags, err := strconv.Atoi(rec[3])
	if err != nil {
		return Row{}, fmt.Errorf("ALL_TAGS: %w", err)
	}
	pctAll, err := strconv.ParseFloat(rec[4], 64)
	if err != nil {
		return Row{}, fmt.Errorf("PCT_ALL_TAGS: %w", err)
	}
	esefTags, err := strconv.Atoi(rec[5])
	if err != nil {
		return Row{}, fmt.Errorf("ESEF_TAGS: %w", err)
	}
	pctESEF, err := strconv.ParseFloat(rec[6], 64)
	if err != nil {
		return Row{}, fmt.Errorf("PCT_ESEF_TAGS: %w", err)
	}
	extTags, err := strconv.Atoi(rec[7])
	if err != nil {
		return Row{}, fmt.Errorf("EXT_TAGS: %w", err)
	}
	pctExt, err := strconv.ParseFloat(rec[8], 64)
	if err != nil {
		return Row{}, fmt.Errorf("PCT_EXT_TAGS: %w", err)
	}

	return Row{
		PackageName: rec[0], LEI: rec[1], PeriodEnd: rec[2],
		AllTags: allTags, PctAllTags: pctAll,
		ESEFTags: esefTags, PctESEFTags: pctESEF,
		ExtTags: extTags, PctExtTags: pctExt,
		SHA1: rec[9], ISIN: rec[10], Company: rec[11], Sector: rec[12], Country: rec[13],
		MarketCap: rec[14], FreeFloat: rec[15], Auditor: rec[16], AuditorFees: rec[17],
		Employees: rec[18], Founded: rec[19], AnalystsFollowing: rec[20],
		TotalAssets: rec[21], TotalDebt: rec[22], Income: rec[23], TotalAssetsPrior: rec[24],
	}, nil
}
