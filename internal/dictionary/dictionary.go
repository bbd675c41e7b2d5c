// Package dictionary holds the static term mapping tables used by the
// normalizer and scorer. The tables are data, not code: they ship as an
// embedded JSON file validated against a JSON schema at load time.
package dictionary

import (
	"encoding/json"
	"fmt"
	"strings"

	_ "embed"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "jobmatch-engine/internal/common/errors"
)

//go:embed data/dictionary.json
var dictionaryData []byte

//go:embed data/schema.json
var schemaData []byte

// Region is one location table entry. Small-market regions carry a parent
// code used as a country-wide fallback alongside their own.
type Region struct {
	Code   string `json:"code"`
	Parent string `json:"parent,omitempty"`
}

// Dictionary is the loaded, validated term dictionary.
type Dictionary struct {
	Version              string              `json:"version"`
	CountryCode          string              `json:"country_code"`
	RelatedTitles        map[string][]string `json:"related_titles"`
	Synonyms             map[string][]string `json:"synonyms"`
	StrengthSearchTerms  map[string][]string `json:"strength_search_terms"`
	StrengthKeywords     map[string][]string `json:"strength_keywords"`
	Regions              map[string]Region   `json:"regions"`
	EmploymentCodes      map[string]string   `json:"employment_codes"`
	ExperienceCodes      map[string]string   `json:"experience_codes"`
	ProfessionStopWords  []string            `json:"profession_stop_words"`
	EntryLevelTerms      []string            `json:"entry_level_terms"`
	FallbackTerms        []string            `json:"fallback_terms"`
	AccessibilityPhrases map[string]string   `json:"accessibility_phrases"`
	GrowthIndicators     []string            `json:"growth_indicators"`
	SeniorityIndicators  []string            `json:"seniority_indicators"`
	EntryLevelIndicators []string            `json:"entry_level_indicators"`
}

// Load parses and validates the embedded dictionary.
func Load() (*Dictionary, error) {
	return Parse(dictionaryData)
}

// Parse validates raw dictionary JSON against the schema and decodes it.
func Parse(raw []byte) (*Dictionary, error) {
	schemaLoader := gojsonschema.NewBytesLoader(schemaData)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, commonerrors.NewDictionaryInvalidError(err.Error())
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, commonerrors.NewDictionaryInvalidError(strings.Join(details, "; "))
	}

	var dict Dictionary
	if err := json.Unmarshal(raw, &dict); err != nil {
		return nil, commonerrors.NewDictionaryInvalidError(err.Error())
	}
	// The schema checks shape only; region cross-references need the
	// decoded value.
	if err := dict.Validate(); err != nil {
		return nil, commonerrors.NewDictionaryInvalidError(err.Error())
	}
	return &dict, nil
}

// RelatedTitlesFor returns related job titles for a skill, case-insensitive.
func (d *Dictionary) RelatedTitlesFor(skill string) []string {
	return d.RelatedTitles[strings.ToLower(strings.TrimSpace(skill))]
}

// SynonymsFor returns the synonym group for a skill, case-insensitive.
func (d *Dictionary) SynonymsFor(skill string) []string {
	return d.Synonyms[strings.ToLower(strings.TrimSpace(skill))]
}

// SearchTermsForStrength returns catalog search terms for a strength category.
func (d *Dictionary) SearchTermsForStrength(category string) []string {
	return d.StrengthSearchTerms[strings.ToLower(strings.TrimSpace(category))]
}

// KeywordsForStrength returns scoring keywords for a strength category.
func (d *Dictionary) KeywordsForStrength(category string) []string {
	return d.StrengthKeywords[strings.ToLower(strings.TrimSpace(category))]
}

// RegionFor maps a city name to its region entry. City names are matched
// case-insensitively with separators normalized to hyphens.
func (d *Dictionary) RegionFor(city string) (Region, bool) {
	key := strings.ToLower(strings.TrimSpace(city))
	key = strings.ReplaceAll(key, "_", "-")
	key = strings.ReplaceAll(key, " ", "-")
	r, ok := d.Regions[key]
	return r, ok
}

// EmploymentCodeFor maps an employment-type tag to a catalog code.
func (d *Dictionary) EmploymentCodeFor(tag string) (string, bool) {
	code, ok := d.EmploymentCodes[strings.ToLower(strings.TrimSpace(tag))]
	return code, ok
}

// ExperienceCodeFor maps an experience-level tag to a catalog code.
func (d *Dictionary) ExperienceCodeFor(tag string) (string, bool) {
	code, ok := d.ExperienceCodes[strings.ToLower(strings.TrimSpace(tag))]
	return code, ok
}

// IsProfessionStopWord reports whether the text is a non-informative
// self-description ("unemployed", "student") that must not be used as a
// search term.
func (d *Dictionary) IsProfessionStopWord(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, w := range d.ProfessionStopWords {
		if t == w || strings.Contains(t, w) {
			return true
		}
	}
	return false
}

// AccessibilityPhraseFor maps an adaptation tag to a search phrase.
func (d *Dictionary) AccessibilityPhraseFor(tag string) (string, bool) {
	phrase, ok := d.AccessibilityPhrases[strings.ToLower(strings.TrimSpace(tag))]
	return phrase, ok
}

// Validate re-checks invariants the schema cannot express.
func (d *Dictionary) Validate() error {
	// The country-wide fallback must resolve through the table itself.
	found := false
	for _, r := range d.Regions {
		if r.Code == d.CountryCode {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("country_code %q has no region entry", d.CountryCode)
	}
	for name, r := range d.Regions {
		if r.Parent != "" && r.Parent != d.CountryCode {
			return fmt.Errorf("region %q parent %q is not the country code", name, r.Parent)
		}
	}
	return nil
}
