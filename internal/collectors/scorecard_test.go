package collectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScorecardReport(t *testing.T) {
	report := []byte(`{
		"repo": {"name": "github.com/example/project"},
		"score": 6.5,
		"checks": [
			{"name": "Code-Review", "score": 8},
			{"name": "Maintained", "score": 10},
			{"name": "Fuzzing", "score": -1},
			{"name": "Branch-Protection", "score": 0}
		]
	}`)

	checks, err := ParseScorecardReport(report)
	require.NoError(t, err)
	require.Len(t, checks, 4)

	require.NotNil(t, checks["Code-Review"])
	assert.Equal(t, 8, *checks["Code-Review"])
	require.NotNil(t, checks["Maintained"])
	assert.Equal(t, 10, *checks["Maintained"])

	// -1 means the check did not run; 0 is a real result.
	assert.Nil(t, checks["Fuzzing"])
	require.NotNil(t, checks["Branch-Protection"])
	assert.Equal(t, 0, *checks["Branch-Protection"])
}

func TestParseScorecardReportEmptyChecks(t *testing.T) {
	checks, err := ParseScorecardReport([]byte(`{"checks": []}`))
	require.NoError(t, err)
	assert.Empty(t, checks)
}

func TestParseScorecardReportInvalidJSON(t *testing.T) {
	_, err := ParseScorecardReport([]byte("not json"))
	assert.Error(t, err)
}
