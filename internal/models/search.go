// internal/models/search.go
package models

// SearchSpec is the canonical parameter set handed to the listing catalog.
// Built fresh on every matching run; never persisted.
type SearchSpec struct {
	QueryTerms         []string `json:"queryTerms"`
	RegionCodes        []string `json:"regionCodes"`
	SalaryFloor        *int     `json:"salaryFloor,omitempty"` // already relaxed
	EmploymentCodes    []string `json:"employmentCodes,omitempty"`
	ExperienceCode     string   `json:"experienceCode,omitempty"`
	AccessibilityTerms []string `json:"accessibilityTerms,omitempty"`
}

// QueryText joins query and accessibility terms into one boolean-OR query.
func (s SearchSpec) QueryText() string {
	terms := make([]string, 0, len(s.QueryTerms)+len(s.AccessibilityTerms))
	terms = append(terms, s.QueryTerms...)
	terms = append(terms, s.AccessibilityTerms...)
	return joinOr(terms)
}

func joinOr(terms []string) string {
	out := ""
	for i, t := range terms {
		if i > 0 {
			out += " OR "
		}
		out += t
	}
	return out
}
