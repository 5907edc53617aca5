package regress

import "github.com/jmuehlb/esefscan/internal/dataset"

// ModelSpec is one enumerated regression of the log extension-tag share
// on a company characteristic set.
type ModelSpec struct {
	Name        string
	Description string
	Regressors  []string
	WithSectors bool // append the sector dummies derived from the sample
}

// Models returns the fixed model set, estimated in order.
func Models() []ModelSpec {
	return []ModelSpec{
		{
			Name:        "model_1_size",
			Description: "Firm size",
			Regressors:  []string{"LN_MARKET_CAP", "LN_TOTAL_ASSETS", "LN_EMPLOYEES"},
		},
		{
			Name:        "model_2_ownership",
			Description: "Size and capital-market visibility",
			Regressors:  []string{"LN_MARKET_CAP", "FREE_FLOAT", "ANALYSTS"},
		},
		{
			Name:        "model_3_audit",
			Description: "Audit characteristics",
			Regressors:  []string{"BIG4", "LN_AUDITOR_FEES"},
		},
		{
			Name:        "model_4_financials",
			Description: "Profitability, leverage and growth",
			Regressors:  []string{"ROA", "DEBT_RATIO", "ASSETS_GROWTH"},
		},
		{
			Name:        "model_5_full",
			Description: "Full specification with sector controls",
			Regressors: []string{
				"LN_MARKET_CAP", "LN_EMPLOYEES", "FREE_FLOAT", "ANALYSTS",
				"BIG4", "LN_AUDITOR_FEES", "OLD_COMPANY",
				"ROA", "DEBT_RATIO", "ASSETS_GROWTH",
			},
			WithSectors: true,
		},
	}
}

// variablesFor resolves a model's variable list, the dependent first.
func variablesFor(spec ModelSpec, rows []dataset.Row) []Variable {
	byName := make(map[string]Variable)
	for _, v := range Variables() {
		byName[v.Name] = v
	}

	vars := []Variable{byName[Dependent]}
	for _, name := range spec.Regressors {
		vars = append(vars, byName[name])
	}
	if spec.WithSectors {
		vars = append(vars, SectorDummies(rows)...)
	}
	return vars
}
