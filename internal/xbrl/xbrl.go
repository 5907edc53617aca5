// Package xbrl defines the loaded inline-XBRL document model consumed by
// the ingestion pipeline, and a goquery-backed loader that produces it.
//
// The pipeline only ever sees the Document/InlineFact/Context types through
// the Loader interface; the parsing engine behind it is replaceable.
package xbrl

import (
	"fmt"
	"strings"
	"time"
)

// QName is the qualified name of a reported concept.
type QName struct {
	Prefix string // taxonomy namespace prefix, e.g. "ifrs-full"
	Local  string // local concept name, e.g. "Revenue"
}

// String renders the canonical "prefix:localName" form.
func (q QName) String() string {
	return q.Prefix + ":" + q.Local
}

// ParseQName splits a "prefix:localName" attribute value.
func ParseQName(s string) (QName, error) {
	prefix, local, ok := strings.Cut(s, ":")
	if !ok || prefix == "" || local == "" {
		return QName{}, fmt.Errorf("malformed qualified name %q", s)
	}
	return QName{Prefix: prefix, Local: local}, nil
}

// Context carries the entity and period information attached to a fact.
type Context struct {
	ID               string
	EntityScheme     string // identifier scheme URI, e.g. the ISO 17442 LEI scheme
	EntityIdentifier string
	// EndInstant is the exclusive period boundary: midnight of the day
	// after the period's true closing date, per the XBRL convention.
	EndInstant time.Time
}

// InlineFact is one tagged value in the document, with its resolved context.
type InlineFact struct {
	Name    QName
	Value   string
	Context *Context
}

// Document is the loaded fact set of one inline-XBRL report.
type Document struct {
	Facts []InlineFact
}

// Loader loads an inline-XBRL report document together with its taxonomy
// packages. Loader-level failures mean the package is not loadable.
type Loader interface {
	Load(reportPath string, taxonomyPackages []string) (*Document, error)
}
