package filing

import (
	"fmt"
	"math"
	"strings"

	"github.com/jmuehlb/esefscan/internal/xbrl"
	"github.com/jmuehlb/esefscan/pkg/models"
	"github.com/jmuehlb/esefscan/pkg/utils"
)

// identifyingConcept is the base-taxonomy element whose context carries the
// entity's LEI and the reporting period (EU 2018/815). It appears under
// the "ifrs-full" prefix in current filings and "ifrs" in early ones.
const identifyingConcept = "NameOfReportingEntityOrOtherMeansOfIdentification"

// ErrIncomplete marks a document in which the identifying concept never
// yielded both a LEI and a period end. Such filings are discarded, never
// persisted.
type ErrIncomplete struct {
	PackageName string
	Reason      string
}

func (e *ErrIncomplete) Error() string {
	return fmt.Sprintf("package %s: incomplete entity identification: %s", e.PackageName, e.Reason)
}

// ErrNoFacts is returned when a filing with zero facts is summarized.
var ErrNoFacts = fmt.Errorf("filing reports no facts")

// IsExtensionQName reports whether a qualified name belongs to the filer's
// extension taxonomy rather than the IFRS base taxonomy. The check keys
// off the namespace prefix: anything outside the recognized "ifrs"-family
// prefixes counts as an extension.
func IsExtensionQName(q xbrl.QName) bool {
	return !strings.Contains(strings.ToLower(q.Prefix), "ifrs")
}

// Extract walks the loaded document's fact set and builds the Filing: one
// Fact per document fact with its extension flag, plus the LEI and period
// end recovered from the identifying concept's context.
//
// A document with zero facts, or one where the identifying concept never
// appears or carries an unusable context, yields an ErrIncomplete; the
// caller skips the single package and continues the batch.
func Extract(doc *xbrl.Document, packageName string) (*models.Filing, error) {
	f := &models.Filing{
		PackageName: packageName,
		Facts:       make([]models.Fact, 0, len(doc.Facts)),
	}

	for _, fact := range doc.Facts {
		f.Facts = append(f.Facts, models.Fact{
			QName:       fact.Name.String(),
			Value:       fact.Value,
			IsExtension: IsExtensionQName(fact.Name),
		})

		if fact.Name.Local != identifyingConcept {
			continue
		}
		if fact.Name.Prefix != "ifrs-full" && fact.Name.Prefix != "ifrs" {
			continue
		}
		if fact.Context == nil || fact.Context.EndInstant.IsZero() {
			continue
		}

		f.LEI = fact.Context.EntityIdentifier

		periodEnd, err := utils.PeriodEndFromInstant(fact.Context.EndInstant)
		if err != nil {
			return nil, &ErrIncomplete{PackageName: packageName, Reason: err.Error()}
		}
		f.PeriodEnd = periodEnd
	}

	if f.LEI == "" || f.PeriodEnd == "" {
		reason := "identifying concept not found"
		if len(doc.Facts) == 0 {
			reason = "document reports no facts"
		}
		return nil, &ErrIncomplete{PackageName: packageName, Reason: reason}
	}
	return f, nil
}

// Summarize computes the per-filing tag counts and the two-decimal
// percentages recorded in the master dataset. A filing with zero facts
// cannot be summarized; it must have been rejected as incomplete upstream.
func Summarize(f *models.Filing) (models.FilingSummary, error) {
	if len(f.Facts) == 0 {
		return models.FilingSummary{}, ErrNoFacts
	}

	var ext int
	for _, fact := range f.Facts {
		if fact.IsExtension {
			ext++
		}
	}
	all := len(f.Facts)
	esef := all - ext

	return models.FilingSummary{
		AllTags:     all,
		PctAllTags:  100.0,
		ESEFTags:    esef,
		PctESEFTags: roundPct(esef, all),
		ExtTags:     ext,
		PctExtTags:  roundPct(ext, all),
	}, nil
}

func roundPct(part, total int) float64 {
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
