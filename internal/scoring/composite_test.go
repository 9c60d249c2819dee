package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWeightsAreValid(t *testing.T) {
	w := DefaultWeights()
	assert.NoError(t, w.Validate())
	assert.Equal(t, 0.2, w.Popularity)
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{
			name:    "equal weights",
			weights: DefaultWeights(),
			wantErr: false,
		},
		{
			name:    "custom weights summing to one",
			weights: Weights{Popularity: 0.15, Community: 0.35, License: 0.1, Security: 0.15, Versioning: 0.25},
			wantErr: false,
		},
		{
			name:    "weights not summing to one",
			weights: Weights{Popularity: 0.5, Community: 0.5, License: 0.5},
			wantErr: true,
		},
		{
			name:    "negative weight",
			weights: Weights{Popularity: -0.2, Community: 0.4, License: 0.2, Security: 0.3, Versioning: 0.3},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWeightedMeanAvailable(t *testing.T) {
	tests := []struct {
		name     string
		values   []*float64
		weights  []float64
		expected float64
		ok       bool
	}{
		{
			name:     "all values present",
			values:   []*float64{float64Ptr(100), float64Ptr(50)},
			weights:  []float64{0.5, 0.5},
			expected: 75,
			ok:       true,
		},
		{
			name:     "missing value renormalizes over the rest",
			values:   []*float64{float64Ptr(100), nil, float64Ptr(40)},
			weights:  []float64{0.25, 0.5, 0.25},
			expected: 70,
			ok:       true,
		},
		{
			name:    "all values missing",
			values:  []*float64{nil, nil},
			weights: []float64{0.5, 0.5},
			ok:      false,
		},
		{
			name:     "single value gets full weight",
			values:   []*float64{nil, float64Ptr(42)},
			weights:  []float64{0.9, 0.1},
			expected: 42,
			ok:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := weightedMeanAvailable(tt.values, tt.weights)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, got, 1e-9)
			}
		})
	}
}
