// Package regress estimates the relationship between the extension-tag
// share of a filing and the reporting company's characteristics: derived
// variables, a fixed set of OLS model specifications, and per-model
// output files.
package regress

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/jmuehlb/esefscan/internal/analysis"
	"github.com/jmuehlb/esefscan/internal/dataset"
	"github.com/jmuehlb/esefscan/pkg/utils"
)

// Dependent is the regressand in every model.
const Dependent = "LN_PCT_EXT_TAGS"

// oldCompanyYears is the age threshold for the OLD_COMPANY dummy.
const oldCompanyYears = 50

// Variable derives one regression variable from a dataset row. Rows the
// variable cannot be derived for are dropped listwise from the sample.
type Variable struct {
	Name   string
	Derive func(dataset.Row) (float64, bool)
}

// Variables returns the derivable variable set, the dependent first.
// Log transforms use a +1 offset where the underlying count or amount
// can legitimately be zero.
func Variables() []Variable {
	return []Variable{
		{Dependent, func(r dataset.Row) (float64, bool) {
			return math.Log(r.PctExtTags + 1), true
		}},
		{"LN_MARKET_CAP", logOf(func(r dataset.Row) string { return r.MarketCap })},
		{"LN_TOTAL_ASSETS", logOf(func(r dataset.Row) string { return r.TotalAssets })},
		{"LN_EMPLOYEES", logPlusOneOf(func(r dataset.Row) string { return r.Employees })},
		{"LN_AUDITOR_FEES", logPlusOneOf(func(r dataset.Row) string { return r.AuditorFees })},
		{"FREE_FLOAT", numericOf(func(r dataset.Row) string { return r.FreeFloat })},
		{"ANALYSTS", numericOf(func(r dataset.Row) string { return r.AnalystsFollowing })},
		{"BIG4", func(r dataset.Row) (float64, bool) {
			if r.Auditor == "" || strings.EqualFold(r.Auditor, "n/a") {
				return 0, false
			}
			if analysis.IsBig4(r.Auditor) {
				return 1, true
			}
			return 0, true
		}},
		{"OLD_COMPANY", func(r dataset.Row) (float64, bool) {
			founded, ok := utils.ParseTerminalFloat(r.Founded)
			if !ok {
				return 0, false
			}
			year, err := strconv.Atoi(utils.PeriodYear(r.PeriodEnd))
			if err != nil {
				return 0, false
			}
			if float64(year)-founded >= oldCompanyYears {
				return 1, true
			}
			return 0, true
		}},
		{"ROA", ratioOf(
			func(r dataset.Row) string { return r.Income },
			func(r dataset.Row) string { return r.TotalAssets })},
		{"DEBT_RATIO", ratioOf(
			func(r dataset.Row) string { return r.TotalDebt },
			func(r dataset.Row) string { return r.TotalAssets })},
		{"ASSETS_GROWTH", ratioOf(
			func(r dataset.Row) string { return r.TotalAssets },
			func(r dataset.Row) string { return r.TotalAssetsPrior })},
	}
}

func numericOf(field func(dataset.Row) string) func(dataset.Row) (float64, bool) {
	return func(r dataset.Row) (float64, bool) {
		return utils.ParseTerminalFloat(field(r))
	}
}

func logOf(field func(dataset.Row) string) func(dataset.Row) (float64, bool) {
	return func(r dataset.Row) (float64, bool) {
		v, ok := utils.ParseTerminalFloat(field(r))
		if !ok || v <= 0 {
			return 0, false
		}
		return math.Log(v), true
	}
}

func logPlusOneOf(field func(dataset.Row) string) func(dataset.Row) (float64, bool) {
	return func(r dataset.Row) (float64, bool) {
		v, ok := utils.ParseTerminalFloat(field(r))
		if !ok || v < 0 {
			return 0, false
		}
		return math.Log(v + 1), true
	}
}

func ratioOf(num, den func(dataset.Row) string) func(dataset.Row) (float64, bool) {
	return func(r dataset.Row) (float64, bool) {
		n, ok := utils.ParseTerminalFloat(num(r))
		if !ok {
			return 0, false
		}
		d, ok := utils.ParseTerminalFloat(den(r))
		if !ok || d == 0 {
			return 0, false
		}
		return n / d, true
	}
}

// SectorDummies builds one 0/1 variable per sector present in the rows,
// dropping the alphabetically first sector as the baseline. Rows without
// a sector are excluded from every dummy.
func SectorDummies(rows []dataset.Row) []Variable {
	seen := make(map[string]bool)
	var sectors []string
	for _, r := range rows {
		s := strings.TrimSpace(r.Sector)
		if s == "" || strings.EqualFold(s, "n/a") || seen[s] {
			continue
		}
		seen[s] = true
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)
	if len(sectors) < 2 {
		return nil
	}

	dummies := make([]Variable, 0, len(sectors)-1)
	for _, sector := range sectors[1:] {
		sector := sector
		dummies = append(dummies, Variable{
			Name: "SECTOR_" + sanitizeVarName(sector),
			Derive: func(r dataset.Row) (float64, bool) {
				s := strings.TrimSpace(r.Sector)
				if s == "" || strings.EqualFold(s, "n/a") {
					return 0, false
				}
				if s == sector {
					return 1, true
				}
				return 0, true
			},
		})
	}
	return dummies
}

func sanitizeVarName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Sample is the fully derived observation matrix for one model: every
// remaining row carries a value for every variable.
type Sample struct {
	Packages []string    // row identifiers, parallel to Values
	Names    []string    // variable names, dependent first
	Values   [][]float64 // one slice per observation, parallel to Names
	Dropped  int         // rows excluded listwise
}

// BuildSample derives the named variables over the rows, dropping every
// row that lacks any of them.
func BuildSample(rows []dataset.Row, vars []Variable) Sample {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}

	s := Sample{Names: names}
	for _, r := range rows {
		values := make([]float64, len(vars))
		ok := true
		for i, v := range vars {
			value, derivable := v.Derive(r)
			if !derivable {
				ok = false
				break
			}
			values[i] = value
		}
		if !ok {
			s.Dropped++
			continue
		}
		s.Packages = append(s.Packages, r.PackageName)
		s.Values = append(s.Values, values)
	}
	return s
}
