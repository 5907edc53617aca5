package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractArchives unzips every .zip in archivesDir into importDir and
// removes the archive afterwards, the optional first step before a run.
// An archive whose contents already exist in the import directory is
// extracted anyway but announced, matching the legacy behavior of warning
// rather than refusing.
func ExtractArchives(archivesDir, importDir string, out io.Writer) ([]string, error) {
	entries, err := os.ReadDir(archivesDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read archives directory: %w", err)
	}

	existing := make(map[string]bool)
	if imported, err := os.ReadDir(importDir); err == nil {
		for _, e := range imported {
			existing[e.Name()] = true
		}
	}

	var extracted []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".zip") {
			continue
		}
		archivePath := filepath.Join(archivesDir, entry.Name())
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if existing[base] {
			fmt.Fprintf(out, "WARNING: %s appears to be extracted already, please double-check the import directory.\n", entry.Name())
		}

		if err := unzip(archivePath, importDir); err != nil {
			return extracted, fmt.Errorf("extract %s: %w", entry.Name(), err)
		}
		if err := os.Remove(archivePath); err != nil {
			return extracted, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		extracted = append(extracted, entry.Name())
	}
	return extracted, nil
}

func unzip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, file := range zr.File {
		target := filepath.Join(destDir, file.Name)
		// Refuse entries that would escape the destination directory.
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		rc, err := file.Open()
		if err != nil {
			return err
		}
		dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			rc.Close()
			return err
		}
		_, copyErr := io.Copy(dst, rc)
		rc.Close()
		if closeErr := dst.Close(); copyErr == nil {
			copyErr = closeErr
		}
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}
