// Package normalizer converts user profiles and assessment results into
// canonical search specs for the listing catalog.
package normalizer

import (
	"strings"

	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/dictionary"
	"jobmatch-engine/internal/models"
)

// Config carries the normalization tunables.
type Config struct {
	// SalaryRelaxation scales the user's salary floor downward before the
	// catalog sees it. An exact floor measurably shrinks result counts.
	SalaryRelaxation float64
	// MaxRelatedTitles bounds how many related job titles one skill expands to.
	MaxRelatedTitles int
	// MaxStrengthTerms bounds search terms added per strength category.
	MaxStrengthTerms int
	// MaxQueryTerms caps the final term list to keep boolean-OR queries sane.
	MaxQueryTerms int
}

// DefaultConfig returns the empirically tuned defaults.
func DefaultConfig() Config {
	return Config{
		SalaryRelaxation: 0.7,
		MaxRelatedTitles: 3,
		MaxStrengthTerms: 2,
		MaxQueryTerms:    15,
	}
}

// Normalizer builds SearchSpecs from profile and assessment data.
type Normalizer struct {
	cfg    Config
	dict   *dictionary.Dictionary
	logger logger.Logger
}

func New(cfg Config, dict *dictionary.Dictionary, log logger.Logger) *Normalizer {
	if cfg.SalaryRelaxation <= 0 || cfg.SalaryRelaxation > 1 {
		cfg.SalaryRelaxation = DefaultConfig().SalaryRelaxation
	}
	if cfg.MaxRelatedTitles <= 0 {
		cfg.MaxRelatedTitles = DefaultConfig().MaxRelatedTitles
	}
	if cfg.MaxStrengthTerms <= 0 {
		cfg.MaxStrengthTerms = DefaultConfig().MaxStrengthTerms
	}
	if cfg.MaxQueryTerms <= 0 {
		cfg.MaxQueryTerms = DefaultConfig().MaxQueryTerms
	}
	return &Normalizer{cfg: cfg, dict: dict, logger: log}
}

// BuildProfileSpec turns a user profile plus learned preferences into a
// search spec. Never returns an empty query term list.
func (n *Normalizer) BuildProfileSpec(profile *models.UserProfile, prefs *models.LearnedPreferences) models.SearchSpec {
	terms := newTermSet(n.cfg.MaxQueryTerms)

	for _, text := range []string{profile.Profession, profile.CurrentPosition, profile.DesiredPosition} {
		n.addProfessionText(terms, text)
	}

	for _, skill := range profile.Skills {
		skill = strings.TrimSpace(skill)
		if skill == "" {
			continue
		}
		terms.add(skill)
		related := n.dict.RelatedTitlesFor(skill)
		if len(related) > n.cfg.MaxRelatedTitles {
			related = related[:n.cfg.MaxRelatedTitles]
		}
		for _, title := range related {
			terms.add(title)
		}
	}

	if prefs != nil {
		for _, kw := range prefs.PositiveKeywords {
			terms.add(kw)
		}
	}

	spec := models.SearchSpec{
		QueryTerms:         n.withFallback(profile.UserID, terms.list()),
		RegionCodes:        n.regionCodes(profile.PreferredCities),
		SalaryFloor:        n.relaxedFloor(profile.MinSalary),
		EmploymentCodes:    n.employmentCodes(profile.EmploymentTypes),
		ExperienceCode:     n.experienceCode(profile),
		AccessibilityTerms: n.accessibilityTerms(profile.Accessibility),
	}
	return spec
}

// BuildAssessmentSpec builds a spec from the latest assessment. Location,
// salary and employment preferences are inherited from the profile since the
// assessment carries none of its own.
func (n *Normalizer) BuildAssessmentSpec(assessment *models.AssessmentResult, profile *models.UserProfile) models.SearchSpec {
	terms := newTermSet(n.cfg.MaxQueryTerms)

	for _, strength := range assessment.TopStrengths {
		searchTerms := n.dict.SearchTermsForStrength(strength.Category)
		if len(searchTerms) > n.cfg.MaxStrengthTerms {
			searchTerms = searchTerms[:n.cfg.MaxStrengthTerms]
		}
		for _, term := range searchTerms {
			terms.add(term)
		}
	}

	spec := models.SearchSpec{
		QueryTerms: n.withFallback(assessment.UserID, terms.list()),
	}
	if profile != nil {
		spec.RegionCodes = n.regionCodes(profile.PreferredCities)
		spec.SalaryFloor = n.relaxedFloor(profile.MinSalary)
		spec.EmploymentCodes = n.employmentCodes(profile.EmploymentTypes)
		spec.AccessibilityTerms = n.accessibilityTerms(profile.Accessibility)
	} else {
		spec.RegionCodes = n.regionCodes(nil)
	}
	return spec
}

// addProfessionText adds free-text profession words, substituting entry-level
// terms for non-informative self-descriptions like "unemployed".
func (n *Normalizer) addProfessionText(terms *termSet, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if n.dict.IsProfessionStopWord(text) {
		for _, term := range n.dict.EntryLevelTerms {
			terms.add(term)
		}
		return
	}
	terms.add(text)
}

func (n *Normalizer) withFallback(userID string, terms []string) []string {
	if len(terms) > 0 {
		return terms
	}
	if n.logger != nil {
		n.logger.Debug("no usable query terms, using broad fallback", map[string]interface{}{
			"userId": userID,
		})
	}
	fallback := make([]string, len(n.dict.FallbackTerms))
	copy(fallback, n.dict.FallbackTerms)
	return fallback
}

// regionCodes maps preferred cities to catalog region codes. Small-market
// regions also contribute their parent code; unknown or absent cities fall
// back to the country-wide code so region is never unset.
func (n *Normalizer) regionCodes(cities []string) []string {
	seen := map[string]bool{}
	codes := []string{}
	add := func(code string) {
		if code != "" && !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	for _, city := range cities {
		region, ok := n.dict.RegionFor(city)
		if !ok {
			if n.logger != nil {
				n.logger.Debug("unknown city, skipping", map[string]interface{}{"city": city})
			}
			continue
		}
		add(region.Code)
		add(region.Parent)
	}

	if len(codes) == 0 {
		add(n.dict.CountryCode)
	}
	return codes
}

func (n *Normalizer) relaxedFloor(minSalary *int) *int {
	if minSalary == nil || *minSalary <= 0 {
		return nil
	}
	relaxed := int(float64(*minSalary) * n.cfg.SalaryRelaxation)
	return &relaxed
}

func (n *Normalizer) employmentCodes(types []string) []string {
	codes := []string{}
	for _, t := range types {
		if code, ok := n.dict.EmploymentCodeFor(t); ok {
			codes = append(codes, code)
		}
	}
	return codes
}

// experienceCode resolves the catalog experience code from the explicit level
// tag, falling back to bucketing years of experience.
func (n *Normalizer) experienceCode(profile *models.UserProfile) string {
	if profile.ExperienceLevel != "" {
		if code, ok := n.dict.ExperienceCodeFor(profile.ExperienceLevel); ok {
			return code
		}
	}
	if profile.YearsExperience == nil {
		return ""
	}
	return yearsToCode(*profile.YearsExperience)
}

func yearsToCode(years int) string {
	switch {
	case years <= 0:
		return "noExperience"
	case years < 3:
		return "between1And3"
	case years < 6:
		return "between3And6"
	default:
		return "moreThan6"
	}
}

func (n *Normalizer) accessibilityTerms(tags []string) []string {
	terms := []string{}
	for _, tag := range tags {
		if phrase, ok := n.dict.AccessibilityPhraseFor(tag); ok {
			terms = append(terms, phrase)
		}
	}
	return terms
}

// termSet accumulates query terms with case-insensitive dedupe and a cap.
type termSet struct {
	max   int
	seen  map[string]bool
	terms []string
}

func newTermSet(max int) *termSet {
	return &termSet{max: max, seen: map[string]bool{}}
}

func (s *termSet) add(term string) {
	term = strings.TrimSpace(term)
	if term == "" || len(s.terms) >= s.max {
		return
	}
	key := strings.ToLower(term)
	if s.seen[key] {
		return
	}
	s.seen[key] = true
	s.terms = append(s.terms, term)
}

func (s *termSet) list() []string {
	return s.terms
}

// Describe summarizes a spec for logging.
func Describe(spec models.SearchSpec) map[string]interface{} {
	fields := map[string]interface{}{
		"queryTerms":  len(spec.QueryTerms),
		"regionCodes": spec.RegionCodes,
	}
	if spec.SalaryFloor != nil {
		fields["salaryFloor"] = *spec.SalaryFloor
	}
	if spec.ExperienceCode != "" {
		fields["experienceCode"] = spec.ExperienceCode
	}
	return fields
}
