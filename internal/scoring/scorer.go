// Package scoring computes per-dimension match scores for one candidate
// against one user's search context, and a weighted overall relevance.
package scoring

import (
	"strings"

	"jobmatch-engine/internal/dictionary"
	"jobmatch-engine/internal/models"
)

// Profile-path dimension weights. They sum to 1 so relevance stays in [0,1].
const (
	weightSkills     = 0.4
	weightLocation   = 0.2
	weightSalary     = 0.2
	weightExperience = 0.2
)

// Assessment-path dimension weights.
const (
	weightStrength     = 0.4
	weightJobFit       = 0.3
	weightGrowth       = 0.1
	weightAssessLoc    = 0.1
	weightAssessSalary = 0.1
)

// Neutral scores used when the user gave no data for a dimension.
const (
	neutralSkills     = 0.3
	neutralLocation   = 0.5
	neutralSalary     = 0.5
	neutralExperience = 0.5
)

// negativeKeywordPenalty is subtracted from the skills score for each
// learned negative keyword found in the candidate text.
const negativeKeywordPenalty = 0.1

// Scorer scores candidates. Safe for concurrent use.
type Scorer struct {
	dict *dictionary.Dictionary
}

func New(dict *dictionary.Dictionary) *Scorer {
	return &Scorer{dict: dict}
}

// ScoreProfile scores a candidate against the user's profile.
func (s *Scorer) ScoreProfile(candidate models.Candidate, profile *models.UserProfile, prefs *models.LearnedPreferences) models.ScoreSet {
	text := candidateText(candidate)

	scores := models.ScoreSet{
		Skills:     s.skillsScore(text, profile.Skills, prefs),
		Location:   s.locationScore(candidate, profile),
		Salary:     s.salaryScore(candidate, profile.MinSalary, profile.MaxSalary),
		Experience: s.experienceScore(candidate, profile),
	}

	scores.Relevance = scores.Skills*weightSkills +
		scores.Location*weightLocation +
		scores.Salary*weightSalary +
		scores.Experience*weightExperience
	return scores
}

// ScoreAssessment scores a candidate against the user's assessment result.
// Location and salary are inherited from the profile when one is present.
func (s *Scorer) ScoreAssessment(candidate models.Candidate, assessment *models.AssessmentResult, profile *models.UserProfile, prefs *models.LearnedPreferences) models.ScoreSet {
	text := candidateText(candidate)

	scores := models.ScoreSet{
		Strength: s.strengthScore(text, assessment.TopStrengths),
		JobFit:   s.jobFitScore(text, assessment.OverallScore),
		Growth:   s.growthScore(text),
		Location: neutralLocation,
		Salary:   neutralSalary,
	}
	if profile != nil {
		scores.Location = s.locationScore(candidate, profile)
		scores.Salary = s.salaryScore(candidate, profile.MinSalary, profile.MaxSalary)
	}
	scores.Relevance = scores.Strength*weightStrength +
		scores.JobFit*weightJobFit +
		scores.Growth*weightGrowth +
		scores.Location*weightAssessLoc +
		scores.Salary*weightAssessSalary
	return scores
}

// skillsScore averages per-skill match weights over all user skills.
func (s *Scorer) skillsScore(text string, skills []string, prefs *models.LearnedPreferences) float64 {
	if len(skills) == 0 {
		return neutralSkills
	}

	total := 0.0
	for _, skill := range skills {
		total += s.skillMatchWeight(strings.ToLower(strings.TrimSpace(skill)), text)
	}
	score := total / float64(len(skills))
	if score > 1.0 {
		score = 1.0
	}
	return applyNegativePenalty(score, text, prefs)
}

// skillMatchWeight grades one skill against the candidate text: exact
// substring 1.0, synonym hit 0.8, partial word overlap scaled by 0.6.
func (s *Scorer) skillMatchWeight(skill, text string) float64 {
	if skill == "" {
		return 0
	}
	if strings.Contains(text, skill) {
		return 1.0
	}

	max := 0.0
	for _, synonym := range s.dict.SynonymsFor(skill) {
		if strings.Contains(text, strings.ToLower(synonym)) {
			max = 0.8
			break
		}
	}

	words := strings.Fields(skill)
	if len(words) > 1 {
		matched := 0
		for _, word := range words {
			// Short words match everything and carry no signal.
			if len(word) > 2 && strings.Contains(text, word) {
				matched++
			}
		}
		if matched > 0 {
			partial := float64(matched) / float64(len(words)) * 0.6
			if partial > max {
				max = partial
			}
		}
	}
	return max
}

func applyNegativePenalty(score float64, text string, prefs *models.LearnedPreferences) float64 {
	if prefs == nil || len(prefs.NegativeKeywords) == 0 {
		return score
	}
	for _, kw := range prefs.NegativeKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(text, kw) {
			score -= negativeKeywordPenalty
		}
	}
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// locationScore compares the candidate region against preferred cities.
// A remote-work adaptation makes non-remote mismatches score low instead
// of neutral.
func (s *Scorer) locationScore(candidate models.Candidate, profile *models.UserProfile) float64 {
	if len(profile.PreferredCities) == 0 {
		return neutralLocation
	}

	areaName := strings.ToLower(candidate.RegionName)
	for _, city := range profile.PreferredCities {
		c := strings.ToLower(strings.TrimSpace(city))
		if c == "" {
			continue
		}
		if strings.Contains(areaName, c) {
			return 1.0
		}
		if region, ok := s.dict.RegionFor(c); ok && region.Code == candidate.RegionCode {
			return 1.0
		}
	}

	if wantsRemote(profile) {
		if strings.Contains(strings.ToLower(candidate.Title), "remote") {
			return 1.0
		}
		return 0.2
	}
	return neutralLocation
}

func wantsRemote(profile *models.UserProfile) bool {
	for _, tag := range profile.Accessibility {
		if strings.EqualFold(strings.TrimSpace(tag), "remote_work") {
			return true
		}
	}
	return false
}

// salaryScore compares the candidate salary range against the user's raw
// (unrelaxed) floor. The relaxed floor belongs to search only; scoring uses
// what the user actually asked for.
func (s *Scorer) salaryScore(candidate models.Candidate, minSalary, maxSalary *int) float64 {
	if minSalary == nil || *minSalary <= 0 {
		return neutralSalary
	}
	if candidate.SalaryFrom == nil && candidate.SalaryTo == nil {
		return neutralSalary
	}

	floor := *minSalary
	if candidate.SalaryFrom != nil && *candidate.SalaryFrom >= floor {
		if maxSalary != nil && *maxSalary > 0 && *candidate.SalaryFrom > *maxSalary {
			return 0.8
		}
		return 1.0
	}
	if candidate.SalaryTo != nil && *candidate.SalaryTo >= floor {
		return 0.7
	}
	return 0.3
}

func (s *Scorer) experienceScore(candidate models.Candidate, profile *models.UserProfile) float64 {
	if candidate.ExperienceCode == "" {
		return neutralExperience
	}

	wanted := ""
	if profile.ExperienceLevel != "" {
		if code, ok := s.dict.ExperienceCodeFor(profile.ExperienceLevel); ok {
			wanted = code
		}
	}
	if wanted == "" {
		return neutralExperience
	}
	if candidate.ExperienceCode == wanted {
		return 1.0
	}
	return 0.6
}

// strengthScore is the fraction of top strength categories whose keyword set
// hits the candidate text.
func (s *Scorer) strengthScore(text string, strengths []models.StrengthEntry) float64 {
	if len(strengths) == 0 {
		return 0
	}

	matched := 0
	for _, strength := range strengths {
		for _, keyword := range s.dict.KeywordsForStrength(strength.Category) {
			if strings.Contains(text, strings.ToLower(keyword)) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(strengths))
}

// jobFitScore buckets the overall assessment score against the seniority of
// the listing: high scorers fit complex roles, low scorers fit entry-level.
func (s *Scorer) jobFitScore(text string, overallScore *float64) float64 {
	if overallScore == nil {
		return 0
	}

	switch {
	case *overallScore >= 7.0:
		complexity := 0
		for _, indicator := range s.dict.SeniorityIndicators {
			if strings.Contains(text, strings.ToLower(indicator)) {
				complexity++
			}
		}
		fit := 0.6 + float64(complexity)*0.2
		if fit > 1.0 {
			fit = 1.0
		}
		return fit
	case *overallScore >= 5.0:
		return 0.7
	default:
		for _, indicator := range s.dict.EntryLevelIndicators {
			if strings.Contains(text, strings.ToLower(indicator)) {
				return 0.8
			}
		}
		return 0.5
	}
}

func (s *Scorer) growthScore(text string) float64 {
	hits := 0
	for _, indicator := range s.dict.GrowthIndicators {
		if strings.Contains(text, strings.ToLower(indicator)) {
			hits++
		}
	}
	score := float64(hits) * 0.3
	if score > 1.0 {
		return 1.0
	}
	return score
}

// candidateText flattens the fields the keyword matchers scan.
func candidateText(c models.Candidate) string {
	parts := []string{c.Title, c.Snippet, c.Description}
	parts = append(parts, c.SkillTags...)
	return strings.ToLower(strings.Join(parts, " "))
}
