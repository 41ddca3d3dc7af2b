package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfidenceScore(t *testing.T) {
	assert.Equal(t, float64(40), ConfidenceHigh.Score())
	assert.Equal(t, float64(25), ConfidenceMedium.Score())
	assert.Equal(t, float64(15), ConfidenceLow.Score())
	assert.Equal(t, float64(0), ConfidenceNone.Score())
}

func TestConfidenceMax(t *testing.T) {
	tests := []struct {
		name string
		a    Confidence
		b    Confidence
		want Confidence
	}{
		{"none vs low", ConfidenceNone, ConfidenceLow, ConfidenceLow},
		{"low vs medium", ConfidenceLow, ConfidenceMedium, ConfidenceMedium},
		{"high vs medium", ConfidenceHigh, ConfidenceMedium, ConfidenceHigh},
		{"equal tiers", ConfidenceMedium, ConfidenceMedium, ConfidenceMedium},
		{"order independent", ConfidenceHigh, ConfidenceNone, ConfidenceHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Max(tt.b))
			assert.Equal(t, tt.want, tt.b.Max(tt.a))
		})
	}
}

func TestMatchResultReason(t *testing.T) {
	r := MatchResult{Reasoning: []string{"Location match", "Meal expense during meeting time"}}
	assert.Equal(t, "Location match; Meal expense during meeting time", r.Reason())

	empty := MatchResult{}
	assert.Equal(t, "", empty.Reason())
	assert.False(t, empty.Matched())
}
