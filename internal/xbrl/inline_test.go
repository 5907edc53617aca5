package xbrl

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleReport = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"
      xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"
      xmlns:xbrli="http://www.xbrl.org/2003/instance"
      xmlns:ifrs-full="http://xbrl.ifrs.org/taxonomy/2021-03-24/ifrs-full"
      xmlns:acme="http://acme.example.com/2021">
<head><title>Annual Report</title></head>
<body>
  <div style="display:none">
    <ix:header>
      <ix:resources>
        <xbrli:context id="D2021">
          <xbrli:entity>
            <xbrli:identifier scheme="http://standards.iso.org/iso/17442">529900NNUPAGGOMPXZ31</xbrli:identifier>
          </xbrli:entity>
          <xbrli:period>
            <xbrli:startDate>2021-01-01</xbrli:startDate>
            <xbrli:endDate>2021-12-31</xbrli:endDate>
          </xbrli:period>
        </xbrli:context>
      </ix:resources>
    </ix:header>
  </div>
  <p>Revenue was
    <ix:nonFraction name="ifrs-full:Revenue" contextRef="D2021" unitRef="EUR" decimals="-6">250,311</ix:nonFraction>
  </p>
  <p>
    <ix:nonNumeric name="ifrs-full:NameOfReportingEntityOrOtherMeansOfIdentification" contextRef="D2021">Volkswagen AG</ix:nonNumeric>
  </p>
  <p>
    <ix:nonFraction name="acme:AdjustedOperatingResult" contextRef="D2021" unitRef="EUR" decimals="-6">20,026</ix:nonFraction>
  </p>
</body>
</html>`

const sampleTaxonomyPackage = `<?xml version="1.0" encoding="UTF-8"?>
<tp:taxonomyPackage xmlns:tp="http://xbrl.org/2016/taxonomy-package">
  <tp:identifier>http://acme.example.com/esef/2021</tp:identifier>
</tp:taxonomyPackage>`

func writeSamplePackage(t *testing.T) (reportPath, taxonomyPath string) {
	t.Helper()
	dir := t.TempDir()
	reportPath = filepath.Join(dir, "report.xhtml")
	taxonomyPath = filepath.Join(dir, "taxonomyPackage.xml")
	if err := os.WriteFile(reportPath, []byte(sampleReport), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(taxonomyPath, []byte(sampleTaxonomyPackage), 0o644); err != nil {
		t.Fatal(err)
	}
	return reportPath, taxonomyPath
}

func TestInlineLoaderLoad(t *testing.T) {
	reportPath, taxonomyPath := writeSamplePackage(t)

	doc, err := NewInlineLoader().Load(reportPath, []string{taxonomyPath})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(doc.Facts) != 3 {
		t.Fatalf("got %d facts, want 3", len(doc.Facts))
	}

	revenue := doc.Facts[0]
	if revenue.Name.String() != "ifrs-full:Revenue" {
		t.Fatalf("got qname %s, want ifrs-full:Revenue", revenue.Name)
	}
	if revenue.Value != "250,311" {
		t.Fatalf("got value %q", revenue.Value)
	}
	if revenue.Context == nil {
		t.Fatal("expected context resolved for revenue fact")
	}
	if revenue.Context.EntityIdentifier != "529900NNUPAGGOMPXZ31" {
		t.Fatalf("got entity %q", revenue.Context.EntityIdentifier)
	}

	// endDate 2021-12-31 is an exclusive boundary: midnight of 2022-01-01.
	wantEnd := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	if !revenue.Context.EndInstant.Equal(wantEnd) {
		t.Fatalf("got end-instant %v, want %v", revenue.Context.EndInstant, wantEnd)
	}

	ext := doc.Facts[2]
	if ext.Name.Prefix != "acme" || ext.Name.Local != "AdjustedOperatingResult" {
		t.Fatalf("got qname %s", ext.Name)
	}
}

func TestInlineLoaderMissingTaxonomyPackage(t *testing.T) {
	reportPath, _ := writeSamplePackage(t)

	_, err := NewInlineLoader().Load(reportPath, []string{filepath.Join(t.TempDir(), "absent.xml")})
	if err == nil {
		t.Fatal("expected error for missing taxonomy package")
	}
}

func TestInlineLoaderZeroFacts(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "empty.xhtml")
	if err := os.WriteFile(reportPath, []byte("<html><body><p>no tags here</p></body></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewInlineLoader().Load(reportPath, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Facts) != 0 {
		t.Fatalf("got %d facts, want 0", len(doc.Facts))
	}
}

func TestParseQName(t *testing.T) {
	q, err := ParseQName("ifrs-full:Revenue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Prefix != "ifrs-full" || q.Local != "Revenue" {
		t.Fatalf("got %+v", q)
	}

	for _, bad := range []string{"Revenue", ":Revenue", "ifrs-full:", ""} {
		if _, err := ParseQName(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
