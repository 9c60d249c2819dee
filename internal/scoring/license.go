package scoring

import (
	"fmt"

	"github.com/openteams/osshs/internal/licenses"
)

// LicenseScore resolves a license identifier against the table and returns
// its stored permissiveness score. An identifier absent from the table
// yields ErrUnknownLicense; the caller decides whether that is missing data
// or a hard error. The engine never defaults it to a number.
func LicenseScore(table *licenses.Table, id string) (float64, error) {
	if table == nil {
		return 0, fmt.Errorf("license: %w: nil table", ErrInvalidInput)
	}
	lic, ok := table.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("license %q: %w", id, ErrUnknownLicense)
	}
	return lic.PermissivenessScore, nil
}
