// internal/models/preferences.go
package models

import "time"

// LearnedPreferences holds per-user keyword sets derived from feedback.
// Written only by the feedback analyzer; read by the normalizer and scorer.
type LearnedPreferences struct {
	UserID           string    `json:"userId"`
	PositiveKeywords []string  `json:"positiveKeywords,omitempty"`
	NegativeKeywords []string  `json:"negativeKeywords,omitempty"`
	LastAnalysis     time.Time `json:"lastAnalysis"`
}

// FeedbackSignal is one explicit user reaction to a recommendation.
type FeedbackSignal struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"userId"`
	RecommendationID int64     `json:"recommendationId"`
	IsRelevant       *bool     `json:"isRelevant,omitempty"`
	IsInterested     *bool     `json:"isInterested,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Positive reports whether the signal counts toward the positive keyword bag.
func (f FeedbackSignal) Positive() bool {
	return f.IsRelevant != nil && *f.IsRelevant && f.IsInterested != nil && *f.IsInterested
}

// Negative reports whether the signal counts toward the negative keyword bag.
func (f FeedbackSignal) Negative() bool {
	if f.IsRelevant != nil && !*f.IsRelevant {
		return true
	}
	if f.IsInterested != nil && !*f.IsInterested {
		return true
	}
	return false
}
