// esefscan builds and analyzes research samples of ESEF report packages:
// ingestion, company enrichment, descriptive statistics, and regressions.
//
// Main CLI entrypoint using the cobra command framework.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmuehlb/esefscan/internal/analysis"
	"github.com/jmuehlb/esefscan/internal/config"
	"github.com/jmuehlb/esefscan/internal/dataset"
	"github.com/jmuehlb/esefscan/internal/discover"
	"github.com/jmuehlb/esefscan/internal/enrich"
	"github.com/jmuehlb/esefscan/internal/filing"
	"github.com/jmuehlb/esefscan/internal/ingest"
	"github.com/jmuehlb/esefscan/internal/regress"
	"github.com/jmuehlb/esefscan/internal/report"
	"github.com/jmuehlb/esefscan/internal/xbrl"
	"github.com/jmuehlb/esefscan/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "esefscan",
	Short: "esefscan is an ESEF extension-tag research pipeline",
	Long: `esefscan builds research samples from ESEF report packages:
it ingests inline-XBRL filings, classifies every tagged fact as base or
extension taxonomy, enriches the reporting companies via the local
financial-data terminal, and runs descriptive and regression analyses
over the resulting master dataset.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(regressCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("esefscan %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Ingest Command ---

var ingestCmd = &cobra.Command{
	Use:   "ingest [sample]",
	Short: "Ingest new ESEF packages into a sample",
	Long: `Extracts uploaded archives, loads every ESEF package in the sample's
import directory, enriches the reporting companies through the terminal,
and appends the results to the sample's master dataset. Packages that
cannot be loaded are reported and skipped; already-ingested reports are
detected by content checksum and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sample := config.NewSample(cfg, args[0])
		if err := sample.Setup(); err != nil {
			return err
		}

		ds, err := dataset.Load(sample.DatasetPath())
		if err != nil {
			return err
		}

		terminal := newTerminal()
		if err := terminal.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("terminal connectivity check failed, start the terminal application and register the app key: %w", err)
		}

		extracted, err := ingest.ExtractArchives(sample.ArchivesDir(), sample.ImportDir(), os.Stdout)
		if err != nil {
			return err
		}
		if len(extracted) > 0 {
			fmt.Printf("Extracted %d archive(s) into the import directory.\n", len(extracted))
		}

		runner := &ingest.Runner{
			ImportDir:   sample.ImportDir(),
			PackagesDir: sample.PackagesDir(),
			ReportsDir:  sample.ReportsDir(),
			Loader:      xbrl.NewInlineLoader(),
			Out:         os.Stdout,
		}
		runReport, err := runner.Run(cmd.Context(), ds)
		if err != nil {
			return err
		}

		if len(runReport.Loaded) == 0 {
			fmt.Println("\nNo new packages to ingest, the dataset is unchanged.")
			return nil
		}

		client := newEnrichClient(terminal)
		companies, failures := client.EnrichAll(cmd.Context(), runReport.Loaded)
		if len(failures) > 0 {
			fmt.Printf("\n%d company(ies) could not be enriched and carry placeholder values.\n", len(failures))
		}

		var rows []dataset.Row
		for _, f := range runReport.Loaded {
			summary, err := filing.Summarize(f)
			if err != nil {
				return fmt.Errorf("summarize %s: %w", f.PackageName, err)
			}
			rows = append(rows, dataset.BuildRow(f, summary, companies[f.LEI]))
		}
		if err := ds.Append(rows...); err != nil {
			return err
		}
		if err := ds.Persist(sample.DatasetPath()); err != nil {
			return err
		}
		fmt.Printf("\nDataset now holds %d row(s): %s\n", ds.Len(), sample.DatasetPath())

		return writeRunReport(sample, runReport, ds.Len())
	},
}

// writeRunReport renders the HTML run report into the sample's output
// directory.
func writeRunReport(sample config.Sample, r *ingest.RunReport, datasetRows int) error {
	view := report.NewRunView(r.RunID, len(r.Loaded), len(r.Duplicates), datasetRows, r.Unloadable, r.Duration)
	html, err := report.RenderRunHTML(view)
	if err != nil {
		return err
	}
	path := filepath.Join(sample.OutputDir(), fmt.Sprintf("run_%s.html", r.RunID))
	if err := utils.WriteFileAtomic(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	fmt.Printf("Run report written to %s\n", path)
	return nil
}

// --- Enrich Command ---

var enrichCmd = &cobra.Command{
	Use:   "enrich [sample]",
	Short: "Refresh the company attributes of an existing sample",
	Long: `Re-fetches every company in the sample's dataset from the terminal and
overwrites the company-attribute columns of its rows. Tag counts and
percentages are never touched. Useful after terminal outages left
placeholder values in the dataset.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sample := config.NewSample(cfg, args[0])
		ds, err := dataset.Load(sample.DatasetPath())
		if err != nil {
			return err
		}
		if ds.Len() == 0 {
			fmt.Println("The dataset has no rows yet, run an ingestion first.")
			return nil
		}

		terminal := newTerminal()
		if err := terminal.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("terminal connectivity check failed, start the terminal application and register the app key: %w", err)
		}
		client := newEnrichClient(terminal)

		var refreshed, failed int
		for _, lei := range ds.LEIs() {
			periodEnd := latestPeriodEnd(ds, lei)
			fmt.Printf("Refreshing company data for LEI %s (as of %s).\n", lei, periodEnd)
			company, err := client.Fetch(cmd.Context(), lei, periodEnd)
			if err != nil {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				fmt.Printf("  ==> Not retrievable, keeping placeholders: %v\n", err)
				failed++
			}
			refreshed += ds.ApplyCompany(company)
		}

		if err := ds.Persist(sample.DatasetPath()); err != nil {
			return err
		}
		fmt.Printf("\nRefreshed %d row(s), %d company(ies) not retrievable.\n", refreshed, failed)
		return nil
	},
}

// latestPeriodEnd picks the most recent reporting period among a
// company's rows, the as-of date for refreshed attributes.
func latestPeriodEnd(ds *dataset.Dataset, lei string) string {
	var latest string
	for _, row := range ds.Rows() {
		if row.LEI == lei && row.PeriodEnd > latest {
			latest = row.PeriodEnd
		}
	}
	return latest
}

// --- Describe Command ---

var describeCmd = &cobra.Command{
	Use:   "describe [sample]",
	Short: "Run the descriptive analysis over a sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sample := config.NewSample(cfg, args[0])
		ds, err := dataset.Load(sample.DatasetPath())
		if err != nil {
			return err
		}

		err = analysis.Describe(ds, filepath.Join(sample.OutputDir(), "describe"), os.Stdout)
		if errorsIsEmpty(err) {
			fmt.Println("The dataset has no rows yet, run an ingestion first.")
			return nil
		}
		return err
	},
}

// --- Regress Command ---

var regressCmd = &cobra.Command{
	Use:   "regress [sample]",
	Short: "Estimate the regression models over a sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sample := config.NewSample(cfg, args[0])
		ds, err := dataset.Load(sample.DatasetPath())
		if err != nil {
			return err
		}

		err = regress.Run(ds, filepath.Join(sample.OutputDir(), "regress"), os.Stdout)
		if errorsIsEmpty(err) {
			fmt.Println("The dataset has no rows yet, run an ingestion first.")
			return nil
		}
		return err
	},
}

// --- Discover Command ---

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List recently published ESEF filings from the public registries",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources := make([]discover.FeedSource, 0, len(cfg.Discover.Feeds))
		for _, url := range cfg.Discover.Feeds {
			sources = append(sources, discover.FeedSource{Name: url, URL: url})
		}
		registry := discover.NewRegistryWithSources(sources)

		entries, err := registry.Latest(cmd.Context(), cfg.Discover.Limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries in the configured registry feeds.")
			return nil
		}

		for _, e := range entries {
			published := "unknown date"
			if !e.Published.IsZero() {
				published = e.Published.Format("2006-01-02")
			}
			fmt.Printf("%s  %s\n    %s\n", published, e.Title, e.Link)
		}
		return nil
	},
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status [sample]",
	Short: "Show terminal connectivity, key status, and sample size",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Configuration:")
		for _, ks := range config.CheckAPIKeys(cfg) {
			state := "not set"
			if ks.IsSet {
				state = fmt.Sprintf("%s (from %s)", ks.Masked, ks.Source)
			}
			fmt.Printf("  %-18s %s\n", ks.Name+":", state)
		}

		fmt.Printf("\nTerminal %s: ", cfg.Terminal.BaseURL)
		if err := newTerminal().Ping(cmd.Context()); err != nil {
			fmt.Printf("not reachable (%v)\n", err)
		} else {
			fmt.Println("reachable")
		}

		if len(args) == 1 {
			sample := config.NewSample(cfg, args[0])
			ds, err := dataset.Load(sample.DatasetPath())
			if err != nil {
				return err
			}
			fmt.Printf("\nSample %q: %d dataset row(s), %d distinct company(ies).\n",
				sample.Name, ds.Len(), len(ds.LEIs()))
		}
		return nil
	},
}

// --- Helpers ---

func newTerminal() *enrich.HTTPTerminal {
	return enrich.NewHTTPTerminal(cfg.Terminal.BaseURL, cfg.Terminal.AppKey)
}

func newEnrichClient(terminal enrich.Terminal) *enrich.Client {
	opts := []enrich.ClientOption{}
	if cfg.Terminal.MinIntervalMS > 0 {
		opts = append(opts, enrich.WithMinInterval(time.Duration(cfg.Terminal.MinIntervalMS)*time.Millisecond))
	}
	if cfg.Terminal.MaxAttempts > 0 {
		opts = append(opts, enrich.WithMaxAttempts(cfg.Terminal.MaxAttempts))
	}
	return enrich.NewClient(terminal, opts...)
}

func errorsIsEmpty(err error) bool {
	return errors.Is(err, dataset.ErrEmpty)
}
