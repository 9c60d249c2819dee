// Package licenses provides the static license table: SPDX identifier to
// permissiveness score, legal risk and copyleft flag. The table is loaded
// once at process start and is read-only afterwards.
package licenses

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed licenses.yaml
var defaultTableYAML []byte

// Risk is the qualitative legal risk attached to a license.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// License is one entry of the table.
type License struct {
	PermissivenessScore float64 `yaml:"permissiveness_score" json:"permissiveness_score"`
	LegalRisk           Risk    `yaml:"legal_risk" json:"legal_risk"`
	Copyleft            bool    `yaml:"copyleft" json:"copyleft"`
}

// Table maps normalized license identifiers to their entries.
type Table struct {
	entries map[string]License
}

// LoadDefault loads the embedded default table.
func LoadDefault() (*Table, error) {
	return parse(defaultTableYAML)
}

// LoadFile loads a table from a YAML file, replacing the default.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading license table: %w", err)
	}
	t, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing license table %s: %w", path, err)
	}
	return t, nil
}

func parse(data []byte) (*Table, error) {
	raw := map[string]License{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshaling license table: %w", err)
	}
	t := &Table{entries: make(map[string]License, len(raw))}
	for id, lic := range raw {
		if lic.PermissivenessScore < 0 || lic.PermissivenessScore > 100 {
			return nil, fmt.Errorf("license %q: permissiveness_score %.2f out of [0,100]", id, lic.PermissivenessScore)
		}
		switch lic.LegalRisk {
		case RiskLow, RiskMedium, RiskHigh:
		default:
			return nil, fmt.Errorf("license %q: unknown legal_risk %q", id, lic.LegalRisk)
		}
		t.entries[normalize(id)] = lic
	}
	return t, nil
}

// Lookup returns the entry for a license identifier. Identifiers are
// matched case-insensitively against SPDX ids.
func (t *Table) Lookup(id string) (License, bool) {
	lic, ok := t.entries[normalize(id)]
	return lic, ok
}

// Len returns the number of licenses in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
