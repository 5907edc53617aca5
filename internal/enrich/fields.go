package enrich

// Terminal field names for the enrichment request. Monetary fields are
// requested in EUR, scaled to millions where the terminal supports it.
const (
	FieldISIN        = "TR.ISIN"
	FieldCommonName  = "TR.CommonName"
	FieldSector      = "TR.NAICSSector"
	FieldCountry     = "TR.ExchangeCountry"
	FieldExchange    = "TR.ExchangeName"
	FieldMarketCap   = "TR.CompanyMarketCap"
	FieldFreeFloat   = "TR.FreeFloatPct"
	FieldAuditor     = "TR.F.Auditor"
	FieldAuditorFees = "TR.F.AuditorFees"
	FieldEmployees   = "TR.CompanyNumEmploy"
	FieldFounded     = "TR.OrgFoundedYear"
	FieldAnalysts    = "TR.NumberOfAnalysts"
	FieldTotalAssets = "TR.F.TotAssets"
	FieldTotalDebt   = "TR.F.DebtTot"
	FieldIncome      = "TR.F.IncBefDiscOpsExordItems"
)

var eurMillions = map[string]string{"Scale": "6", "Curn": "EUR"}

// companyFields is the fixed field list fetched per company. The auditor
// family of fields is only served against an ISIN, which is why Fetch
// resolves the ISIN from the LEI first.
func companyFields() []TRField {
	return []TRField{
		{Name: FieldCommonName},
		{Name: FieldSector},
		{Name: FieldCountry},
		{Name: FieldExchange},
		{Name: FieldMarketCap, Params: eurMillions},
		{Name: FieldFreeFloat},
		{Name: FieldAuditor},
		{Name: FieldAuditorFees, Params: map[string]string{"Curn": "EUR"}},
		{Name: FieldEmployees},
		{Name: FieldFounded},
		{Name: FieldAnalysts},
		{Name: FieldTotalAssets, Params: eurMillions},
		{Name: FieldTotalDebt, Params: eurMillions},
		{Name: FieldIncome, Params: eurMillions},
	}
}
