// Package models defines the domain types shared across the esefscan
// pipeline: reported facts, parsed filings, reporting companies, and the
// rows of the master research dataset.
package models

import "time"

// NotAvailable is the placeholder recorded for any enrichment field the
// financial-data terminal could not supply.
const NotAvailable = "n/a"

// Fact is one tagged value reported inside an ESEF filing.
type Fact struct {
	QName       string `json:"qname"`        // qualified name, e.g. "ifrs-full:Revenue"
	Value       string `json:"value"`        // raw reported text
	IsExtension bool   `json:"is_extension"` // concept outside the IFRS base taxonomy
}

// Filing is one successfully parsed ESEF report package.
//
// A Filing is only considered complete once both the LEI and the period end
// were recovered from the identifying fact; incomplete filings are discarded
// by the extractor and never reach the repository.
type Filing struct {
	PackageName string `json:"package_name"` // directory name of the ESEF package
	LEI         string `json:"lei"`
	PeriodEnd   string `json:"period_end"` // closing date, YYYYMMDD
	SHA1        string `json:"sha1"`       // content checksum of the report document
	Facts       []Fact `json:"facts"`
}

// FilingSummary holds the per-filing tag counts and percentages that feed
// the master dataset.
type FilingSummary struct {
	AllTags     int     `json:"all_tags"`
	PctAllTags  float64 `json:"pct_all_tags"` // control column, always 100.00
	ESEFTags    int     `json:"esef_tags"`    // base-taxonomy tags
	PctESEFTags float64 `json:"pct_esef_tags"`
	ExtTags     int     `json:"ext_tags"` // extension-taxonomy tags
	PctExtTags  float64 `json:"pct_ext_tags"`
}

// Company is one reporting entity, keyed by LEI. Every descriptive and
// financial attribute is fetched from the external terminal and kept as a
// string so that missing values stay representable as "n/a".
type Company struct {
	LEI               string `json:"lei"`
	ISIN              string `json:"isin"`
	Name              string `json:"name"`
	Sector            string `json:"sector"`
	Country           string `json:"country"`
	Exchange          string `json:"exchange"`
	MarketCap         string `json:"market_cap"` // EUR millions as of period end
	FreeFloat         string `json:"free_float"` // percent
	Auditor           string `json:"auditor"`
	AuditorFees       string `json:"auditor_fees"` // EUR
	Employees         string `json:"employees"`
	Founded           string `json:"founded"`
	AnalystsFollowing string `json:"analysts_following"`
	TotalAssets       string `json:"total_assets"`       // EUR millions
	TotalAssetsPrior  string `json:"total_assets_prior"` // prior period, EUR millions
	TotalDebt         string `json:"total_debt"`         // EUR millions
	Income            string `json:"income"`             // income before discontinued ops

	// Filings maps reporting period (YYYYMMDD) to the filing covering it.
	// One company may file across several years.
	Filings map[string]*Filing `json:"-"`
}

// NewCompany returns a Company with every enrichment field set to the
// "n/a" placeholder.
func NewCompany(lei string) *Company {
	return &Company{
		LEI:               lei,
		ISIN:              NotAvailable,
		Name:              NotAvailable,
		Sector:            NotAvailable,
		Country:           NotAvailable,
		Exchange:          NotAvailable,
		MarketCap:         NotAvailable,
		FreeFloat:         NotAvailable,
		Auditor:           NotAvailable,
		AuditorFees:       NotAvailable,
		Employees:         NotAvailable,
		Founded:           NotAvailable,
		AnalystsFollowing: NotAvailable,
		TotalAssets:       NotAvailable,
		TotalAssetsPrior:  NotAvailable,
		TotalDebt:         NotAvailable,
		Income:            NotAvailable,
		Filings:           make(map[string]*Filing),
	}
}

// AddFiling registers a filing under its reporting period.
func (c *Company) AddFiling(f *Filing) {
	if c.Filings == nil {
		c.Filings = make(map[string]*Filing)
	}
	c.Filings[f.PeriodEnd] = f
}

// DiscoveredFiling is one entry from an ESEF filings registry feed.
type DiscoveredFiling struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}
