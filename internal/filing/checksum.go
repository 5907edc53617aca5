// Package filing implements the per-package ingestion primitives: report
// and taxonomy file location, content checksums, fact extraction with
// extension classification, filing summaries, and per-filing fact dumps.
package filing

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// checksumChunkSize bounds memory use when hashing report documents of any
// size.
const checksumChunkSize = 64 * 1024

// Checksum computes the SHA-1 content digest of the file at path, reading
// in fixed-size chunks. Identical content always yields an identical
// digest, regardless of name, path, or timestamps.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for checksum: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	buf := make([]byte, checksumChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
