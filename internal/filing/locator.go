package filing

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// taxonomyPackageFile is the fixed descriptor name inside an ESEF package,
// conventionally under META-INF/.
const taxonomyPackageFile = "taxonomyPackage.xml"

// ErrMissingFiles marks a package in which the single report document or
// the single taxonomy descriptor could not be identified. The caller must
// treat the package as not loadable and skip it.
type ErrMissingFiles struct {
	PackageDir string
	Reports    int
	Taxonomies int
}

func (e *ErrMissingFiles) Error() string {
	return fmt.Sprintf("package %s: found %d report document(s) and %d taxonomy descriptor(s), need exactly one of each",
		filepath.Base(e.PackageDir), e.Reports, e.Taxonomies)
}

// Locate searches the package directory tree for the single inline-report
// document (.xhtml or .html) and the single taxonomy-package descriptor.
// Zero or ambiguous candidates of either kind yield an ErrMissingFiles
// rather than a guess.
func Locate(packageDir string) (reportPath, taxonomyPath string, err error) {
	var reports, taxonomies []string

	walkErr := filepath.WalkDir(packageDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch {
		case d.Name() == taxonomyPackageFile:
			taxonomies = append(taxonomies, path)
		case isReportDocument(d.Name()):
			reports = append(reports, path)
		}
		return nil
	})
	if walkErr != nil {
		return "", "", fmt.Errorf("scan package %s: %w", packageDir, walkErr)
	}

	if len(reports) != 1 || len(taxonomies) != 1 {
		return "", "", &ErrMissingFiles{
			PackageDir: packageDir,
			Reports:    len(reports),
			Taxonomies: len(taxonomies),
		}
	}
	return reports[0], taxonomies[0], nil
}

func isReportDocument(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xhtml" || ext == ".html"
}
