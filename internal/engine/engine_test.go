package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/dictionary"
	"jobmatch-engine/internal/models"
	"jobmatch-engine/internal/normalizer"
	"jobmatch-engine/internal/scoring"
)

type fakeUserReader struct {
	profile    *models.UserProfile
	profileErr error
	assessment *models.AssessmentResult
	assessErr  error
}

func (f *fakeUserReader) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return f.profile, f.profileErr
}

func (f *fakeUserReader) LatestAssessment(ctx context.Context, userID string) (*models.AssessmentResult, error) {
	if f.assessment == nil && f.assessErr == nil {
		return nil, commonerrors.NewAssessmentNotFoundError(userID)
	}
	return f.assessment, f.assessErr
}

type fakeCatalog struct {
	mu           sync.Mutex
	results      []models.Candidate
	resultsFn    func(spec models.SearchSpec) []models.Candidate
	labelQueries int
	plainQueries int
}

func (f *fakeCatalog) Search(ctx context.Context, spec models.SearchSpec) []models.Candidate {
	f.mu.Lock()
	f.plainQueries++
	f.mu.Unlock()
	if f.resultsFn != nil {
		return f.resultsFn(spec)
	}
	return f.results
}

func (f *fakeCatalog) SearchWithLabel(ctx context.Context, spec models.SearchSpec, label string) []models.Candidate {
	f.mu.Lock()
	f.labelQueries++
	f.mu.Unlock()
	if f.resultsFn != nil {
		return f.resultsFn(spec)
	}
	return f.results
}

func (f *fakeCatalog) FetchDetails(ctx context.Context, candidates []models.Candidate) []models.Candidate {
	return candidates
}

type fakeRecWriter struct {
	saved []models.Recommendation
	err   error
	calls int
}

func (f *fakeRecWriter) ReplaceActive(ctx context.Context, userID string, recs []models.Recommendation) error {
	f.calls++
	f.saved = recs
	return f.err
}

type fakePrefReader struct {
	prefs       *models.LearnedPreferences
	markedFresh bool
}

func (f *fakePrefReader) GetPreferences(ctx context.Context, userID string) (*models.LearnedPreferences, error) {
	return f.prefs, nil
}

func (f *fakePrefReader) MarkRefreshed(ctx context.Context, userID string, window time.Duration) error {
	f.markedFresh = true
	return nil
}

func intPtr(v int) *int { return &v }

func candidate(id, title string) models.Candidate {
	return models.Candidate{ExternalID: id, Title: title, RegionName: "Almaty"}
}

func newTestEngine(t *testing.T, users *fakeUserReader, catalog *fakeCatalog, writer *fakeRecWriter, prefs *fakePrefReader) *Engine {
	dict, err := dictionary.Load()
	require.NoError(t, err)

	log := logger.NewTestLogger(t)
	return New(DefaultConfig(), users, catalog,
		normalizer.New(normalizer.DefaultConfig(), dict, log),
		scoring.New(dict),
		writer, prefs, log)
}

func TestRefresh_ProfileOnly(t *testing.T) {
	users := &fakeUserReader{
		profile: &models.UserProfile{UserID: "user-1", Skills: []string{"tutoring"}},
	}
	catalog := &fakeCatalog{results: []models.Candidate{
		candidate("v-1", "Math Teacher"),
		candidate("v-2", "Courier"),
	}}
	writer := &fakeRecWriter{}
	prefs := &fakePrefReader{}

	eng := newTestEngine(t, users, catalog, writer, prefs)
	result, err := eng.Refresh(context.Background(), "user-1", "manual")

	require.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "user-1", result.UserID)
	assert.Len(t, result.ProfileBlock.Recommendations, 2)
	assert.Empty(t, result.AssessmentBlock.Recommendations, "no assessment means an empty strength block")
	assert.Equal(t, models.SourceProfile, result.ProfileBlock.Source)
	assert.True(t, prefs.markedFresh)
	assert.Len(t, writer.saved, 2)
}

func TestRefresh_RanksByRelevance(t *testing.T) {
	users := &fakeUserReader{
		profile: &models.UserProfile{UserID: "user-1", Skills: []string{"tutoring"}},
	}
	// The teacher listing matches the skill via related titles; the courier
	// does not and must sort below it.
	catalog := &fakeCatalog{results: []models.Candidate{
		candidate("v-low", "Courier"),
		candidate("v-high", "Tutoring Specialist"),
	}}
	writer := &fakeRecWriter{}

	eng := newTestEngine(t, users, catalog, writer, &fakePrefReader{})
	result, err := eng.Refresh(context.Background(), "user-1", "manual")

	require.NoError(t, err)
	recs := result.ProfileBlock.Recommendations
	require.Len(t, recs, 2)
	assert.Equal(t, "v-high", recs[0].ExternalID)
	assert.GreaterOrEqual(t, recs[0].Scores.Relevance, recs[1].Scores.Relevance)
}

func TestRefresh_DualBlocksDeduplicated(t *testing.T) {
	users := &fakeUserReader{
		profile: &models.UserProfile{UserID: "user-1", Skills: []string{"tutoring"}},
		assessment: &models.AssessmentResult{
			UserID:       "user-1",
			TopStrengths: []models.StrengthEntry{{Category: "technical", Score: 8}},
		},
	}
	catalog := &fakeCatalog{results: []models.Candidate{
		candidate("v-1", "Teacher"),
		candidate("v-2", "Developer"),
	}}
	writer := &fakeRecWriter{}

	eng := newTestEngine(t, users, catalog, writer, &fakePrefReader{})
	result, err := eng.Refresh(context.Background(), "user-1", "manual")

	require.NoError(t, err)
	assert.Len(t, result.ProfileBlock.Recommendations, 2)
	assert.Empty(t, result.AssessmentBlock.Recommendations,
		"listings already in the profile block never repeat in the strength block")
	assert.Equal(t, 0, result.AssessmentBlock.TotalFound)
}

func TestRefresh_DedupesOnlyAgainstEmittedProfileBlock(t *testing.T) {
	users := &fakeUserReader{
		profile: &models.UserProfile{UserID: "user-1", Skills: []string{"tutoring"}},
		assessment: &models.AssessmentResult{
			UserID:       "user-1",
			TopStrengths: []models.StrengthEntry{{Category: "technical", Score: 8}},
		},
	}

	// 15 equally scored profile hits: the block keeps the first 10, so
	// p-12 is found by the profile search but never shown.
	profileResults := make([]models.Candidate, 0, 15)
	for i := 1; i <= 15; i++ {
		profileResults = append(profileResults, candidate(fmt.Sprintf("p-%d", i), "Courier"))
	}
	catalog := &fakeCatalog{resultsFn: func(spec models.SearchSpec) []models.Candidate {
		for _, term := range spec.QueryTerms {
			if term == "tutoring" {
				return profileResults
			}
		}
		return []models.Candidate{candidate("p-3", "Developer"), candidate("p-12", "Developer")}
	}}
	writer := &fakeRecWriter{}

	eng := newTestEngine(t, users, catalog, writer, &fakePrefReader{})
	result, err := eng.Refresh(context.Background(), "user-1", "manual")

	require.NoError(t, err)
	require.Len(t, result.ProfileBlock.Recommendations, 10)

	profileIDs := make([]string, 0, len(result.ProfileBlock.Recommendations))
	for _, r := range result.ProfileBlock.Recommendations {
		profileIDs = append(profileIDs, r.ExternalID)
	}
	assessmentIDs := make([]string, 0, len(result.AssessmentBlock.Recommendations))
	for _, r := range result.AssessmentBlock.Recommendations {
		assessmentIDs = append(assessmentIDs, r.ExternalID)
	}

	assert.NotContains(t, profileIDs, "p-12")
	assert.Contains(t, assessmentIDs, "p-12",
		"a listing the profile search found but never showed stays eligible for the strength block")
	assert.NotContains(t, assessmentIDs, "p-3",
		"a listing shown in the profile block never repeats")
}

func TestRefresh_AssessmentDisabledByConfig(t *testing.T) {
	users := &fakeUserReader{
		profile: &models.UserProfile{UserID: "user-1", Skills: []string{"tutoring"}},
		assessment: &models.AssessmentResult{
			UserID:       "user-1",
			TopStrengths: []models.StrengthEntry{{Category: "technical", Score: 8}},
		},
	}
	catalog := &fakeCatalog{results: []models.Candidate{candidate("v-1", "Teacher")}}
	writer := &fakeRecWriter{}

	dict, err := dictionary.Load()
	require.NoError(t, err)
	log := logger.NewTestLogger(t)
	cfg := DefaultConfig()
	cfg.AssessmentEnabled = false
	eng := New(cfg, users, catalog,
		normalizer.New(normalizer.DefaultConfig(), dict, log),
		scoring.New(dict),
		writer, &fakePrefReader{}, log)

	result, err := eng.Refresh(context.Background(), "user-1", "manual")

	require.NoError(t, err)
	assert.NotEmpty(t, result.ProfileBlock.Recommendations)
	assert.Empty(t, result.AssessmentBlock.Recommendations,
		"strength block stays empty even though an assessment exists")
}

func TestRefresh_EmptyCatalogGivesValidEmptyResponse(t *testing.T) {
	users := &fakeUserReader{profile: &models.UserProfile{UserID: "user-1"}}
	writer := &fakeRecWriter{}

	eng := newTestEngine(t, users, &fakeCatalog{}, writer, &fakePrefReader{})
	result, err := eng.Refresh(context.Background(), "user-1", "manual")

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.ProfileBlock.Recommendations)
	assert.Empty(t, result.AssessmentBlock.Recommendations)
	assert.Equal(t, 0, result.ProfileBlock.TotalFound)
	assert.Equal(t, 1, writer.calls, "an empty run still replaces the stored set")
}

func TestRefresh_ProfileNotFound(t *testing.T) {
	users := &fakeUserReader{profileErr: commonerrors.NewProfileNotFoundError("ghost")}

	eng := newTestEngine(t, users, &fakeCatalog{}, &fakeRecWriter{}, &fakePrefReader{})
	result, err := eng.Refresh(context.Background(), "ghost", "manual")

	assert.Nil(t, result)
	require.Error(t, err)
	stdErr, ok := err.(*commonerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, commonerrors.ErrCodeProfileNotFound, stdErr.Code)
}

func TestRefresh_AccessibilityUsesLabeledSearch(t *testing.T) {
	users := &fakeUserReader{
		profile: &models.UserProfile{
			UserID:        "user-1",
			Accessibility: []string{"remote_work"},
		},
	}
	catalog := &fakeCatalog{}

	eng := newTestEngine(t, users, catalog, &fakeRecWriter{}, &fakePrefReader{})
	_, err := eng.Refresh(context.Background(), "user-1", "manual")

	require.NoError(t, err)
	assert.Equal(t, 1, catalog.labelQueries)
	assert.Equal(t, 0, catalog.plainQueries)
}

func TestRefresh_BlockSizeLimit(t *testing.T) {
	results := make([]models.Candidate, 0, 25)
	for i := 0; i < 25; i++ {
		results = append(results, candidate(fmt.Sprintf("v-%d", i), "Teacher"))
	}
	users := &fakeUserReader{
		profile: &models.UserProfile{UserID: "user-1", Skills: []string{"teaching"}},
	}
	writer := &fakeRecWriter{}

	eng := newTestEngine(t, users, &fakeCatalog{results: results}, writer, &fakePrefReader{})
	result, err := eng.Refresh(context.Background(), "user-1", "manual")

	require.NoError(t, err)
	assert.Len(t, result.ProfileBlock.Recommendations, DefaultConfig().ProfileBlockSize)
	assert.Equal(t, 25, result.ProfileBlock.TotalFound)
}

func TestRefresh_Idempotent(t *testing.T) {
	users := &fakeUserReader{
		profile: &models.UserProfile{UserID: "user-1", Skills: []string{"tutoring"}},
	}
	catalog := &fakeCatalog{results: []models.Candidate{candidate("v-1", "Teacher")}}
	writer := &fakeRecWriter{}

	eng := newTestEngine(t, users, catalog, writer, &fakePrefReader{})

	first, err := eng.Refresh(context.Background(), "user-1", "manual")
	require.NoError(t, err)
	second, err := eng.Refresh(context.Background(), "user-1", "manual")
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	require.Len(t, writer.saved, 1)
	assert.Equal(t, "v-1", writer.saved[0].ExternalID)
	assert.Equal(t, 2, writer.calls, "each run replaces the active set in full")
}

func TestRefresh_StoreFailurePropagates(t *testing.T) {
	users := &fakeUserReader{profile: &models.UserProfile{UserID: "user-1"}}
	writer := &fakeRecWriter{err: commonerrors.NewDatabaseInsertFailedError(assert.AnError)}

	eng := newTestEngine(t, users, &fakeCatalog{}, writer, &fakePrefReader{})
	result, err := eng.Refresh(context.Background(), "user-1", "manual")

	assert.Nil(t, result)
	assert.Error(t, err)
}
