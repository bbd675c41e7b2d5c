// Package engine runs one matching refresh: build search specs, query the
// catalog, score candidates, and assemble the two recommendation blocks.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	commonerrors "jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/metrics"
	"jobmatch-engine/internal/listing"
	"jobmatch-engine/internal/models"
	"jobmatch-engine/internal/normalizer"
	"jobmatch-engine/internal/scoring"
)

// Config carries the assembler tunables.
type Config struct {
	ProfileBlockSize  int
	StrengthBlockSize int
	MinRelevanceScore float64
	FreshnessWindow   time.Duration
	AssessmentEnabled bool
}

func DefaultConfig() Config {
	return Config{
		ProfileBlockSize:  10,
		StrengthBlockSize: 10,
		MinRelevanceScore: 0,
		FreshnessWindow:   6 * time.Hour,
		AssessmentEnabled: true,
	}
}

// UserReader loads profile and assessment data.
type UserReader interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	LatestAssessment(ctx context.Context, userID string) (*models.AssessmentResult, error)
}

// Catalog is the listing search surface the engine consumes.
type Catalog interface {
	Search(ctx context.Context, spec models.SearchSpec) []models.Candidate
	SearchWithLabel(ctx context.Context, spec models.SearchSpec, label string) []models.Candidate
	FetchDetails(ctx context.Context, candidates []models.Candidate) []models.Candidate
}

// RecommendationWriter persists the assembled recommendation set.
type RecommendationWriter interface {
	ReplaceActive(ctx context.Context, userID string, recs []models.Recommendation) error
}

// PreferenceReader supplies learned preferences and the freshness marker.
type PreferenceReader interface {
	GetPreferences(ctx context.Context, userID string) (*models.LearnedPreferences, error)
	MarkRefreshed(ctx context.Context, userID string, window time.Duration) error
}

// Engine is the dual block assembler.
type Engine struct {
	cfg        Config
	users      UserReader
	catalog    Catalog
	normalizer *normalizer.Normalizer
	scorer     *scoring.Scorer
	recs       RecommendationWriter
	prefs      PreferenceReader
	errs       *commonerrors.ErrorHandler
	logger     logger.Logger
}

func New(cfg Config, users UserReader, catalog Catalog, norm *normalizer.Normalizer, scorer *scoring.Scorer, recs RecommendationWriter, prefs PreferenceReader, log logger.Logger) *Engine {
	def := DefaultConfig()
	if cfg.ProfileBlockSize <= 0 {
		cfg.ProfileBlockSize = def.ProfileBlockSize
	}
	if cfg.StrengthBlockSize <= 0 {
		cfg.StrengthBlockSize = def.StrengthBlockSize
	}
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = def.FreshnessWindow
	}
	return &Engine{
		cfg:        cfg,
		users:      users,
		catalog:    catalog,
		normalizer: norm,
		scorer:     scorer,
		recs:       recs,
		prefs:      prefs,
		errs:       commonerrors.NewErrorHandler(log),
		logger:     log,
	}
}

// Refresh runs one full matching pass for a user. Catalog failures degrade
// to empty blocks; the returned response is well-formed even when both
// blocks are empty. Re-running is idempotent.
func (e *Engine) Refresh(ctx context.Context, userID, trigger string) (*models.DualRecommendations, error) {
	start := time.Now()
	runID := uuid.NewString()

	ctx, span := otel.Tracer("matching-engine").Start(ctx, "engine.refresh")
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("run.trigger", trigger),
	)
	defer span.End()

	log := e.logger.WithFields(map[string]interface{}{
		"runId":   runID,
		"userId":  userID,
		"trigger": trigger,
	})
	log.Info("starting matching run", nil)

	profile, err := e.users.GetProfile(ctx, userID)
	if err != nil {
		e.failRun(runID, "load_profile", trigger, err)
		return nil, err
	}

	prefs, err := e.prefs.GetPreferences(ctx, userID)
	if err != nil {
		// Preferences only bias scoring; a cache failure must not stop the run.
		log.Warn("could not load learned preferences", map[string]interface{}{"error": err.Error()})
		prefs = nil
	}

	var assessment *models.AssessmentResult
	if e.cfg.AssessmentEnabled {
		assessment, err = e.users.LatestAssessment(ctx, userID)
		if err != nil {
			assessment = nil
			if stdErr, ok := err.(*commonerrors.StandardError); !ok || stdErr.Code != commonerrors.ErrCodeAssessmentNotFound {
				log.Warn("could not load assessment, skipping strength block", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	var wg sync.WaitGroup
	var profileScored, assessmentScored []models.ScoredCandidate

	wg.Add(1)
	go func() {
		defer wg.Done()
		profileScored = e.profileCandidates(ctx, profile, prefs, log)
	}()

	if assessment != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assessmentScored = e.assessmentCandidates(ctx, assessment, profile, prefs, log)
		}()
	}
	wg.Wait()

	sortByRelevance(profileScored)
	profileBlock := buildBlock("Jobs for your profile", "Based on your skills and preferences", models.SourceProfile, profileScored, e.cfg.ProfileBlockSize, userID)

	// The strength block never repeats a listing shown in the profile
	// block. Candidates the profile search found but did not emit stay
	// eligible here.
	assessmentScored = dropShown(assessmentScored, profileBlock.Recommendations)
	sortByRelevance(assessmentScored)

	result := &models.DualRecommendations{
		RunID:           runID,
		UserID:          userID,
		ProfileBlock:    profileBlock,
		AssessmentBlock: buildBlock("Jobs for your strengths", "Based on your assessment results", models.SourceAssessment, assessmentScored, e.cfg.StrengthBlockSize, userID),
		GeneratedAt:     time.Now(),
	}

	stored := append([]models.Recommendation{}, result.ProfileBlock.Recommendations...)
	stored = append(stored, result.AssessmentBlock.Recommendations...)
	if err := e.recs.ReplaceActive(ctx, userID, stored); err != nil {
		e.failRun(runID, "persist_recommendations", trigger, err)
		return nil, err
	}

	if err := e.prefs.MarkRefreshed(ctx, userID, e.cfg.FreshnessWindow); err != nil {
		log.Warn("could not mark refresh freshness", map[string]interface{}{"error": err.Error()})
	}

	metrics.RefreshRunsCompleted.WithLabelValues(trigger).Inc()
	metrics.RefreshRunDuration.WithLabelValues(trigger).Observe(time.Since(start).Seconds())
	metrics.RecommendationsStored.WithLabelValues(models.SourceProfile).Set(float64(len(result.ProfileBlock.Recommendations)))
	metrics.RecommendationsStored.WithLabelValues(models.SourceAssessment).Set(float64(len(result.AssessmentBlock.Recommendations)))

	log.Info("matching run completed", map[string]interface{}{
		"profileBlock":    len(result.ProfileBlock.Recommendations),
		"assessmentBlock": len(result.AssessmentBlock.Recommendations),
		"durationMs":      time.Since(start).Milliseconds(),
	})
	return result, nil
}

func (e *Engine) profileCandidates(ctx context.Context, profile *models.UserProfile, prefs *models.LearnedPreferences, log logger.Logger) []models.ScoredCandidate {
	spec := e.normalizer.BuildProfileSpec(profile, prefs)
	log.Debug("profile search spec built", normalizer.Describe(spec))

	candidates := e.search(ctx, spec, profile)
	candidates = e.catalog.FetchDetails(ctx, candidates)

	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scores := e.scorer.ScoreProfile(c, profile, prefs)
		if scores.Relevance < e.cfg.MinRelevanceScore {
			continue
		}
		scored = append(scored, models.ScoredCandidate{Candidate: c, Scores: scores, Source: models.SourceProfile})
	}
	metrics.CandidatesScored.WithLabelValues(models.SourceProfile).Add(float64(len(scored)))
	return scored
}

func (e *Engine) assessmentCandidates(ctx context.Context, assessment *models.AssessmentResult, profile *models.UserProfile, prefs *models.LearnedPreferences, log logger.Logger) []models.ScoredCandidate {
	spec := e.normalizer.BuildAssessmentSpec(assessment, profile)
	log.Debug("assessment search spec built", normalizer.Describe(spec))

	candidates := e.search(ctx, spec, profile)
	candidates = e.catalog.FetchDetails(ctx, candidates)

	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scores := e.scorer.ScoreAssessment(c, assessment, profile, prefs)
		if scores.Relevance < e.cfg.MinRelevanceScore {
			continue
		}
		scored = append(scored, models.ScoredCandidate{Candidate: c, Scores: scores, Source: models.SourceAssessment})
	}
	metrics.CandidatesScored.WithLabelValues(models.SourceAssessment).Add(float64(len(scored)))
	return scored
}

// search applies the accessibility label only when the user declared
// adaptation needs; the label-filtered path retries unfiltered on its own.
func (e *Engine) search(ctx context.Context, spec models.SearchSpec, profile *models.UserProfile) []models.Candidate {
	if profile != nil && len(profile.Accessibility) > 0 {
		return e.catalog.SearchWithLabel(ctx, spec, listing.AccessibilityLabel)
	}
	return e.catalog.Search(ctx, spec)
}

func dropShown(candidates []models.ScoredCandidate, shown []models.Recommendation) []models.ScoredCandidate {
	if len(candidates) == 0 {
		return candidates
	}
	seen := make(map[string]bool, len(shown))
	for _, r := range shown {
		seen[r.ExternalID] = true
	}

	out := candidates[:0]
	for _, c := range candidates {
		if !seen[c.Candidate.ExternalID] {
			out = append(out, c)
		}
	}
	return out
}

// sortByRelevance orders best-first. The sort is stable so candidates with
// equal relevance keep their catalog order.
func sortByRelevance(scored []models.ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Scores.Relevance > scored[j].Scores.Relevance
	})
}

func buildBlock(title, description, source string, scored []models.ScoredCandidate, limit int, userID string) models.RecommendationBlock {
	total := len(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	recs := make([]models.Recommendation, 0, len(scored))
	for _, sc := range scored {
		recs = append(recs, toRecommendation(userID, source, sc))
	}

	return models.RecommendationBlock{
		Title:           title,
		Description:     description,
		Source:          source,
		Recommendations: recs,
		TotalFound:      total,
	}
}

func toRecommendation(userID, source string, sc models.ScoredCandidate) models.Recommendation {
	c := sc.Candidate
	return models.Recommendation{
		UserID:         userID,
		ExternalID:     c.ExternalID,
		Title:          c.Title,
		Company:        c.Company,
		SalaryFrom:     c.SalaryFrom,
		SalaryTo:       c.SalaryTo,
		Currency:       c.Currency,
		RegionName:     c.RegionName,
		EmploymentType: c.EmploymentType,
		ExperienceName: c.ExperienceName,
		Description:    c.Description,
		SkillTags:      c.SkillTags,
		Scores:         sc.Scores,
		Source:         source,
		IsActive:       true,
	}
}

// failRun logs the failed step with run context and counts the failure.
// Unknown errors are normalized first so the metric label set stays bounded.
func (e *Engine) failRun(runID, step, trigger string, err error) {
	e.errs.HandleStepError(runID, step, err)
	metrics.RefreshRunsFailed.WithLabelValues(trigger, string(e.errs.NormalizeError(err).Code)).Inc()
}
