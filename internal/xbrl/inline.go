package xbrl

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// InlineLoader parses inline-XBRL (xhtml) report documents.
//
// It recovers the xbrli contexts from the hidden ix header and every
// ix:nonFraction / ix:nonNumeric fact in document order. Namespace prefixes
// are matched by local element name, so reports that bind xbrli/ix to
// non-standard prefixes still load.
type InlineLoader struct{}

// NewInlineLoader returns a loader for inline-XBRL report documents.
func NewInlineLoader() *InlineLoader {
	return &InlineLoader{}
}

// Load implements Loader.
func (l *InlineLoader) Load(reportPath string, taxonomyPackages []string) (*Document, error) {
	for _, tp := range taxonomyPackages {
		if err := checkTaxonomyPackage(tp); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(reportPath)
	if err != nil {
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse report %s: %w", reportPath, err)
	}

	contexts, err := parseContexts(doc)
	if err != nil {
		return nil, err
	}

	var facts []InlineFact
	var factErr error
	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		local := localName(goquery.NodeName(s))
		if local != "nonfraction" && local != "nonnumeric" {
			return true
		}

		nameAttr, ok := s.Attr("name")
		if !ok {
			factErr = fmt.Errorf("inline fact without name attribute in %s", reportPath)
			return false
		}
		qname, err := ParseQName(nameAttr)
		if err != nil {
			factErr = err
			return false
		}

		fact := InlineFact{
			Name:  qname,
			Value: strings.TrimSpace(s.Text()),
		}
		if ref, ok := s.Attr("contextref"); ok {
			fact.Context = contexts[ref]
		}
		facts = append(facts, fact)
		return true
	})
	if factErr != nil {
		return nil, factErr
	}

	return &Document{Facts: facts}, nil
}

// parseContexts collects every xbrli:context element into a map keyed by
// context id.
func parseContexts(doc *goquery.Document) (map[string]*Context, error) {
	contexts := make(map[string]*Context)
	var parseErr error

	doc.Find("*").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if localName(goquery.NodeName(s)) != "context" {
			return true
		}

		id, ok := s.Attr("id")
		if !ok {
			return true // context without id can never be referenced
		}
		ctx := &Context{ID: id}

		s.Find("*").Each(func(_ int, child *goquery.Selection) {
			switch localName(goquery.NodeName(child)) {
			case "identifier":
				ctx.EntityScheme, _ = child.Attr("scheme")
				ctx.EntityIdentifier = strings.TrimSpace(child.Text())
			case "enddate", "instant":
				t, err := parsePeriodBoundary(strings.TrimSpace(child.Text()))
				if err != nil {
					parseErr = fmt.Errorf("context %s: %w", id, err)
					return
				}
				ctx.EndInstant = t
			}
		})
		if parseErr != nil {
			return false
		}

		contexts[id] = ctx
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return contexts, nil
}

// parsePeriodBoundary converts an endDate/instant value to its exclusive
// end-instant. A date-only value designates the end of that day, so the
// instant is midnight of the following day.
func parsePeriodBoundary(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.AddDate(0, 0, 1), nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable period boundary %q", s)
}

// checkTaxonomyPackage verifies the descriptor exists and is well-formed
// enough to open. Resolving the package contents is the responsibility of
// downstream taxonomy tooling the fact extractor never needs.
func checkTaxonomyPackage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("taxonomy package: %w", err)
	}
	defer f.Close()

	if _, err := goquery.NewDocumentFromReader(f); err != nil {
		return fmt.Errorf("taxonomy package %s: %w", path, err)
	}
	return nil
}

// localName strips the namespace prefix from a parsed node name. The html
// parser lowercases element names, so comparisons are lowercase.
func localName(nodeName string) string {
	if _, local, ok := strings.Cut(nodeName, ":"); ok {
		return local
	}
	return nodeName
}
