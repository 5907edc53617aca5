package filing

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmuehlb/esefscan/pkg/models"
	"github.com/jmuehlb/esefscan/pkg/utils"
)

// factTriple serializes a fact as the [qualifiedName, value, isExtension]
// array used by the per-filing dumps.
type factTriple models.Fact

func (t factTriple) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{t.QName, t.Value, t.IsExtension})
}

func (t *factTriple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("fact triple has %d elements, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.QName); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &t.Value); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &t.IsExtension)
}

// SaveFacts writes the full ordered fact list of one filing to
// <dir>/<packageName>.json for later manual inspection, independent of the
// aggregate dataset. The file is replaced atomically.
func SaveFacts(dir, packageName string, facts []models.Fact) (string, error) {
	triples := make([]factTriple, len(facts))
	for i, f := range facts {
		triples[i] = factTriple(f)
	}

	data, err := json.MarshalIndent(triples, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal facts for %s: %w", packageName, err)
	}

	path := filepath.Join(dir, packageName+".json")
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save facts for %s: %w", packageName, err)
	}
	return path, nil
}

// LoadFacts reads a per-filing fact dump back, the inverse of SaveFacts.
func LoadFacts(path string) ([]models.Fact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fact dump: %w", err)
	}
	var triples []factTriple
	if err := json.Unmarshal(data, &triples); err != nil {
		return nil, fmt.Errorf("parse fact dump %s: %w", path, err)
	}
	facts := make([]models.Fact, len(triples))
	for i, t := range triples {
		facts[i] = models.Fact(t)
	}
	return facts, nil
}
