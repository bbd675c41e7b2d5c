// Package feedback turns explicit user reactions into learned keyword
// preferences that bias the next matching runs.
package feedback

import (
	"context"
	"sort"
	"strings"
	"time"

	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// Config carries the learning loop tunables.
type Config struct {
	LookbackDays int
	MaxPositive  int
	MaxNegative  int
}

func DefaultConfig() Config {
	return Config{
		LookbackDays: 30,
		MaxPositive:  20,
		MaxNegative:  10,
	}
}

// SignalReader provides the feedback signals for a user.
type SignalReader interface {
	FeedbackSince(ctx context.Context, userID string, since time.Time) ([]models.FeedbackSignal, error)
}

// RecommendationReader resolves the recommendation a signal refers to.
type RecommendationReader interface {
	ByID(ctx context.Context, id int64) (*models.Recommendation, error)
}

// PreferenceWriter persists the learned preferences.
type PreferenceWriter interface {
	SavePreferences(ctx context.Context, prefs models.LearnedPreferences) error
}

// Analyzer aggregates recent feedback into keyword preferences.
type Analyzer struct {
	cfg     Config
	signals SignalReader
	recs    RecommendationReader
	prefs   PreferenceWriter
	logger  logger.Logger
}

func NewAnalyzer(cfg Config, signals SignalReader, recs RecommendationReader, prefs PreferenceWriter, log logger.Logger) *Analyzer {
	def := DefaultConfig()
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = def.LookbackDays
	}
	if cfg.MaxPositive <= 0 {
		cfg.MaxPositive = def.MaxPositive
	}
	if cfg.MaxNegative <= 0 {
		cfg.MaxNegative = def.MaxNegative
	}
	return &Analyzer{cfg: cfg, signals: signals, recs: recs, prefs: prefs, logger: log}
}

// UpdatePreferences re-derives the user's learned preferences from the
// lookback window and overwrites the stored set. Each run is a fresh
// aggregation; there is no decay or blending with the previous set.
func (a *Analyzer) UpdatePreferences(ctx context.Context, userID string) (*models.LearnedPreferences, error) {
	since := time.Now().AddDate(0, 0, -a.cfg.LookbackDays)
	signals, err := a.signals.FeedbackSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	positive := map[string]int{}
	negative := map[string]int{}
	skipped := 0

	for _, signal := range signals {
		rec, err := a.recs.ByID(ctx, signal.RecommendationID)
		if err != nil {
			// Dangling reference, likely a pruned recommendation.
			skipped++
			continue
		}

		terms := extractTerms(rec)
		switch {
		case signal.Positive():
			for _, term := range terms {
				positive[term]++
			}
		case signal.Negative():
			for _, term := range terms {
				negative[term]++
			}
		}
	}

	prefs := models.LearnedPreferences{
		UserID:           userID,
		PositiveKeywords: topTerms(positive, a.cfg.MaxPositive),
		NegativeKeywords: topTerms(negative, a.cfg.MaxNegative),
		LastAnalysis:     time.Now(),
	}

	if err := a.prefs.SavePreferences(ctx, prefs); err != nil {
		return nil, err
	}

	a.logger.Info("learned preferences updated", map[string]interface{}{
		"userId":   userID,
		"signals":  len(signals),
		"skipped":  skipped,
		"positive": len(prefs.PositiveKeywords),
		"negative": len(prefs.NegativeKeywords),
	})
	return &prefs, nil
}

// extractTerms flattens a recommendation into lowercase keywords: its skill
// tags plus the informative words of its title.
func extractTerms(rec *models.Recommendation) []string {
	seen := map[string]bool{}
	terms := []string{}
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if len(term) <= 2 || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}

	for _, tag := range rec.SkillTags {
		add(tag)
	}
	for _, word := range strings.FieldsFunc(rec.Title, func(r rune) bool {
		return !isWordRune(r)
	}) {
		add(word)
	}
	return terms
}

func isWordRune(r rune) bool {
	return r == '-' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r > 127
}

// topTerms ranks terms by frequency, most frequent first, ties broken
// alphabetically so output is deterministic.
func topTerms(counts map[string]int, limit int) []string {
	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return terms
}
