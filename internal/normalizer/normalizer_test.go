package normalizer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/dictionary"
	"jobmatch-engine/internal/models"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	dict, err := dictionary.Load()
	require.NoError(t, err)
	return New(DefaultConfig(), dict, nil)
}

func intPtr(v int) *int { return &v }

func containsFold(terms []string, want string) bool {
	for _, term := range terms {
		if strings.EqualFold(term, want) {
			return true
		}
	}
	return false
}

func TestBuildProfileSpec_SkillExpansion(t *testing.T) {
	n := newTestNormalizer(t)

	profile := &models.UserProfile{
		UserID: "user-1",
		Skills: []string{"tutoring"},
	}

	spec := n.BuildProfileSpec(profile, nil)

	assert.True(t, containsFold(spec.QueryTerms, "tutoring"))
	// The raw skill alone under-matches; related titles must come along.
	expanded := containsFold(spec.QueryTerms, "teacher") ||
		containsFold(spec.QueryTerms, "tutor") ||
		containsFold(spec.QueryTerms, "education")
	assert.True(t, expanded, "expected a related job title for tutoring, got %v", spec.QueryTerms)
}

func TestBuildProfileSpec_EmptyProfile(t *testing.T) {
	n := newTestNormalizer(t)

	spec := n.BuildProfileSpec(&models.UserProfile{UserID: "user-2"}, nil)

	assert.NotEmpty(t, spec.QueryTerms, "fallback terms must keep the query non-empty")
	assert.Equal(t, []string{"40"}, spec.RegionCodes, "no city means country-wide code")
	assert.Nil(t, spec.SalaryFloor)
	assert.Empty(t, spec.EmploymentCodes)
	assert.Empty(t, spec.ExperienceCode)
}

func TestBuildProfileSpec_StopWordProfession(t *testing.T) {
	n := newTestNormalizer(t)

	profile := &models.UserProfile{
		UserID:     "user-3",
		Profession: "unemployed",
	}

	spec := n.BuildProfileSpec(profile, nil)

	assert.False(t, containsFold(spec.QueryTerms, "unemployed"))
	assert.True(t, containsFold(spec.QueryTerms, "intern") || containsFold(spec.QueryTerms, "junior"),
		"stop-word professions substitute entry-level terms, got %v", spec.QueryTerms)
}

func TestBuildProfileSpec_SalaryRelaxation(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name     string
		min      *int
		expected *int
	}{
		{"relaxed by factor", intPtr(400000), intPtr(280000)},
		{"nil floor", nil, nil},
		{"zero floor ignored", intPtr(0), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := n.BuildProfileSpec(&models.UserProfile{MinSalary: tt.min}, nil)
			if tt.expected == nil {
				assert.Nil(t, spec.SalaryFloor)
			} else {
				require.NotNil(t, spec.SalaryFloor)
				assert.Equal(t, *tt.expected, *spec.SalaryFloor)
			}
		})
	}
}

func TestBuildProfileSpec_Regions(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		name     string
		cities   []string
		expected []string
	}{
		{"major city", []string{"Almaty"}, []string{"160"}},
		{"small market adds parent", []string{"Atyrau"}, []string{"153", "40"}},
		{"unknown city falls back", []string{"Gotham"}, []string{"40"}},
		{"mixed, deduped", []string{"Atyrau", "Pavlodar"}, []string{"153", "40", "158"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := n.BuildProfileSpec(&models.UserProfile{PreferredCities: tt.cities}, nil)
			assert.Equal(t, tt.expected, spec.RegionCodes)
		})
	}
}

func TestBuildProfileSpec_EmploymentAndExperience(t *testing.T) {
	n := newTestNormalizer(t)

	profile := &models.UserProfile{
		EmploymentTypes: []string{"full_time", "part_time", "seasonal"},
		ExperienceLevel: "no_experience",
	}

	spec := n.BuildProfileSpec(profile, nil)

	assert.Equal(t, []string{"full", "part"}, spec.EmploymentCodes)
	assert.Equal(t, "noExperience", spec.ExperienceCode)
}

func TestBuildProfileSpec_ExperienceFromYears(t *testing.T) {
	n := newTestNormalizer(t)

	tests := []struct {
		years    int
		expected string
	}{
		{0, "noExperience"},
		{1, "between1And3"},
		{2, "between1And3"},
		{3, "between3And6"},
		{5, "between3And6"},
		{6, "moreThan6"},
		{12, "moreThan6"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d years", tt.years), func(t *testing.T) {
			spec := n.BuildProfileSpec(&models.UserProfile{YearsExperience: intPtr(tt.years)}, nil)
			assert.Equal(t, tt.expected, spec.ExperienceCode)
		})
	}
}

func TestBuildProfileSpec_LearnedKeywordsAndDedupe(t *testing.T) {
	n := newTestNormalizer(t)

	profile := &models.UserProfile{
		Profession: "Teacher",
		Skills:     []string{"tutoring"},
	}
	prefs := &models.LearnedPreferences{
		PositiveKeywords: []string{"mathematics", "TEACHER", "tutoring"},
	}

	spec := n.BuildProfileSpec(profile, prefs)

	assert.True(t, containsFold(spec.QueryTerms, "mathematics"))

	seen := map[string]int{}
	for _, term := range spec.QueryTerms {
		seen[strings.ToLower(term)]++
	}
	for term, count := range seen {
		assert.Equal(t, 1, count, "term %q duplicated", term)
	}
}

func TestBuildProfileSpec_TermCap(t *testing.T) {
	n := newTestNormalizer(t)

	skills := make([]string, 0, 12)
	for _, s := range []string{"programming", "web development", "testing", "design",
		"data analysis", "databases", "accounting", "sales", "marketing",
		"cooking", "cleaning", "driving"} {
		skills = append(skills, s)
	}
	spec := n.BuildProfileSpec(&models.UserProfile{Skills: skills}, nil)

	assert.LessOrEqual(t, len(spec.QueryTerms), DefaultConfig().MaxQueryTerms)
}

func TestBuildProfileSpec_AccessibilityTerms(t *testing.T) {
	n := newTestNormalizer(t)

	profile := &models.UserProfile{
		Accessibility: []string{"flexible_schedule", "remote_work", "unknown_tag"},
	}

	spec := n.BuildProfileSpec(profile, nil)

	assert.Equal(t, []string{"flexible schedule", "remote work"}, spec.AccessibilityTerms)
}

func TestBuildAssessmentSpec(t *testing.T) {
	n := newTestNormalizer(t)

	assessment := &models.AssessmentResult{
		UserID: "user-4",
		TopStrengths: []models.StrengthEntry{
			{Category: "technical", Score: 8.5},
			{Category: "communication", Score: 7.2},
		},
	}
	profile := &models.UserProfile{
		PreferredCities: []string{"Almaty"},
		MinSalary:       intPtr(300000),
		EmploymentTypes: []string{"full_time"},
	}

	spec := n.BuildAssessmentSpec(assessment, profile)

	assert.True(t, containsFold(spec.QueryTerms, "developer"))
	assert.True(t, containsFold(spec.QueryTerms, "manager"))
	// At most two terms per strength category.
	assert.LessOrEqual(t, len(spec.QueryTerms), 2*len(assessment.TopStrengths))

	assert.Equal(t, []string{"160"}, spec.RegionCodes)
	require.NotNil(t, spec.SalaryFloor)
	assert.Equal(t, 210000, *spec.SalaryFloor)
	assert.Equal(t, []string{"full"}, spec.EmploymentCodes)
}

func TestBuildAssessmentSpec_NoProfile(t *testing.T) {
	n := newTestNormalizer(t)

	assessment := &models.AssessmentResult{
		UserID:       "user-5",
		TopStrengths: []models.StrengthEntry{{Category: "creativity", Score: 9.0}},
	}

	spec := n.BuildAssessmentSpec(assessment, nil)

	assert.NotEmpty(t, spec.QueryTerms)
	assert.Equal(t, []string{"40"}, spec.RegionCodes)
	assert.Nil(t, spec.SalaryFloor)
}

func TestBuildAssessmentSpec_UnknownCategoriesFallback(t *testing.T) {
	n := newTestNormalizer(t)

	assessment := &models.AssessmentResult{
		UserID:       "user-6",
		TopStrengths: []models.StrengthEntry{{Category: "telepathy", Score: 10}},
	}

	spec := n.BuildAssessmentSpec(assessment, nil)

	assert.NotEmpty(t, spec.QueryTerms, "unknown categories still yield fallback terms")
}
