// Package model defines the core domain models used throughout the application.
package model

import "strings"

// Confidence summarizes the strength of an expense-to-event match.
type Confidence string

// Confidence tiers, ordered none < low < medium < high.
const (
	ConfidenceNone   Confidence = ""
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

var confidenceRank = map[Confidence]int{
	ConfidenceNone:   0,
	ConfidenceLow:    1,
	ConfidenceMedium: 2,
	ConfidenceHigh:   3,
}

// Score maps a confidence tier to its numeric weight for comparing two
// match results against each other.
func (c Confidence) Score() float64 {
	switch c {
	case ConfidenceHigh:
		return 40
	case ConfidenceMedium:
		return 25
	case ConfidenceLow:
		return 15
	default:
		return 0
	}
}

// Max returns the higher of the two tiers. Confidence is merged across
// scorers with Max so a tier is never downgraded once raised.
func (c Confidence) Max(other Confidence) Confidence {
	if confidenceRank[other] > confidenceRank[c] {
		return other
	}
	return c
}

// MatchResult is the outcome of matching one transaction against a set of
// candidate calendar events. Event is nil exactly when Confidence is none.
type MatchResult struct {
	Event      *CalendarEvent
	Confidence Confidence
	Reasoning  []string
	Score      float64
}

// Matched reports whether an acceptable event was found.
func (r *MatchResult) Matched() bool {
	return r.Event != nil
}

// Reason joins the contributing factors for display.
func (r *MatchResult) Reason() string {
	return strings.Join(r.Reasoning, "; ")
}
