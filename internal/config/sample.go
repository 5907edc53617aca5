package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sample is the resolved directory layout of one research sample. All
// pipeline stages address files through it.
type Sample struct {
	Name string
	Root string
}

// NewSample resolves the layout of a named sample under the data root.
func NewSample(cfg *Config, name string) Sample {
	return Sample{Name: name, Root: filepath.Join(cfg.Sample.DataRoot, name)}
}

// ArchivesDir holds uploaded report package zip archives awaiting extraction.
func (s Sample) ArchivesDir() string { return filepath.Join(s.Root, "archives") }

// ImportDir holds extracted report packages awaiting ingestion.
func (s Sample) ImportDir() string { return filepath.Join(s.Root, "import") }

// PackagesDir holds successfully loaded report packages.
func (s Sample) PackagesDir() string { return filepath.Join(s.Root, "sample", "packages") }

// ReportsDir holds the per-filing fact dumps.
func (s Sample) ReportsDir() string { return filepath.Join(s.Root, "sample", "reports") }

// OutputDir holds analysis and regression outputs.
func (s Sample) OutputDir() string { return filepath.Join(s.Root, "output") }

// DatasetPath is the master dataset CSV of the sample.
func (s Sample) DatasetPath() string { return filepath.Join(s.Root, "sample", "dataset.csv") }

// Setup creates the sample's directory scaffolding. A scaffolding that
// cannot be created leaves no sane way to continue, so callers treat an
// error as fatal.
func (s Sample) Setup() error {
	dirs := []string{
		s.ArchivesDir(),
		s.ImportDir(),
		s.PackagesDir(),
		s.ReportsDir(),
		s.OutputDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sample directory %s: %w", dir, err)
		}
	}
	return nil
}
