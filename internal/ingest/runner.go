// Package ingest drives the batch over the import directory: package
// discovery, checksum deduplication, XBRL loading, fact extraction, fact
// persistence, and the structured run report.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jmuehlb/esefscan/internal/dataset"
	"github.com/jmuehlb/esefscan/internal/filing"
	"github.com/jmuehlb/esefscan/internal/xbrl"
	"github.com/jmuehlb/esefscan/pkg/models"
)

// Runner owns the state of one ingestion run. Each run gets its own
// Runner; nothing is shared across runs.
type Runner struct {
	ImportDir   string // incoming unzipped ESEF packages
	PackagesDir string // successfully loaded packages are moved here
	ReportsDir  string // per-filing fact dumps
	Loader      xbrl.Loader
	Out         io.Writer // progress output; defaults to os.Stdout
}

// RunReport summarizes one ingestion run.
type RunReport struct {
	RunID      string
	Loaded     []*models.Filing
	Duplicates []string          // packages skipped because their checksum is already in the dataset
	Unloadable map[string]string // package name -> diagnostic reason
	Duration   time.Duration
}

// Run processes every package directory under ImportDir, strictly
// sequentially: a package is fully parsed and moved out of the import set
// before the next one begins. Package-level failures are recorded and
// skipped; only setup-level failures (unreadable import dir) abort.
func (r *Runner) Run(ctx context.Context, ds *dataset.Dataset) (*RunReport, error) {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	start := time.Now()
	report := &RunReport{
		RunID:      uuid.NewString(),
		Unloadable: make(map[string]string),
	}

	entries, err := os.ReadDir(r.ImportDir)
	if err != nil {
		return nil, fmt.Errorf("read import directory: %w", err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !entry.IsDir() {
			fmt.Fprintf(out, "Found a plain file in the import directory: %s. ESEF packages must be unzipped directories, skipping.\n", entry.Name())
			continue
		}

		name := entry.Name()
		pkgDir := filepath.Join(r.ImportDir, name)
		fmt.Fprintf(out, "\nLoading ESEF package %q:\n", name)

		f, dup, reason := r.loadPackage(pkgDir, name, ds, out)
		switch {
		case dup:
			report.Duplicates = append(report.Duplicates, name)
		case reason != "":
			fmt.Fprintf(out, "  ==> %s\n", reason)
			report.Unloadable[name] = reason
		case f != nil:
			report.Loaded = append(report.Loaded, f)
			fmt.Fprintf(out, "  ==> Package %q loaded (%d facts).\n", name, len(f.Facts))
		}
	}

	report.Duration = time.Since(start).Round(time.Second)
	printRunSummary(out, report)
	return report, nil
}

// loadPackage runs the per-package steps. It returns the completed filing,
// or dup=true for an already-ingested package, or a diagnostic reason for
// an unloadable one.
func (r *Runner) loadPackage(pkgDir, name string, ds *dataset.Dataset, out io.Writer) (f *models.Filing, dup bool, reason string) {
	reportPath, taxonomyPath, err := filing.Locate(pkgDir)
	if err != nil {
		var missing *filing.ErrMissingFiles
		if errors.As(err, &missing) {
			return nil, false, "report or taxonomy file missing, package is not loadable"
		}
		return nil, false, err.Error()
	}

	sha, err := filing.Checksum(reportPath)
	if err != nil {
		return nil, false, fmt.Sprintf("checksum failed: %v", err)
	}

	fmt.Fprintf(out, "  report file:      %s\n", reportPath)
	fmt.Fprintf(out, "  report checksum:  %s\n", sha)
	fmt.Fprintf(out, "  taxonomy package: %s\n", taxonomyPath)

	if ds.HasChecksum(sha) {
		fmt.Fprintf(out, "  ==> Report already in the sample, package skipped.\n")
		return nil, true, ""
	}

	doc, err := r.Loader.Load(reportPath, []string{taxonomyPath})
	if err != nil {
		return nil, false, fmt.Sprintf("XBRL loader failed: %v", err)
	}

	f, err = filing.Extract(doc, name)
	if err != nil {
		var incomplete *filing.ErrIncomplete
		if errors.As(err, &incomplete) {
			return nil, false, "incomplete entity identification: " + incomplete.Reason
		}
		return nil, false, err.Error()
	}
	f.SHA1 = sha

	if _, err := filing.SaveFacts(r.ReportsDir, name, f.Facts); err != nil {
		return nil, false, fmt.Sprintf("saving fact dump failed: %v", err)
	}

	// Take the package out of the to-be-loaded set before the next one
	// begins, so repeated runs never rediscover it.
	if err := os.Rename(pkgDir, filepath.Join(r.PackagesDir, name)); err != nil {
		return nil, false, fmt.Sprintf("moving processed package failed: %v", err)
	}

	return f, false, ""
}

func printRunSummary(out io.Writer, report *RunReport) {
	fmt.Fprintf(out, "\nRun %s: %d package(s) loaded, %d duplicate(s) skipped, %d not loadable. Took %s.\n",
		report.RunID, len(report.Loaded), len(report.Duplicates), len(report.Unloadable), report.Duration)

	if len(report.Unloadable) == 0 {
		return
	}
	fmt.Fprintln(out, "\nThe following ESEF packages could not be loaded:")
	for name, reason := range report.Unloadable {
		fmt.Fprintf(out, "  %s:\n    %s\n", name, reason)
	}
}
