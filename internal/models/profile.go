// internal/models/profile.go
package models

// UserProfile is the read-only onboarding profile supplied by collaborators.
// Every field is optional; an empty profile still yields a valid search.
type UserProfile struct {
	UserID           string   `json:"userId"`
	Profession       string   `json:"profession,omitempty"`
	CurrentPosition  string   `json:"currentPosition,omitempty"`
	DesiredPosition  string   `json:"desiredPosition,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	YearsExperience  *int     `json:"yearsExperience,omitempty"`
	PreferredCities  []string `json:"preferredCities,omitempty"`
	MinSalary        *int     `json:"minSalary,omitempty"`
	MaxSalary        *int     `json:"maxSalary,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	EmploymentTypes  []string `json:"employmentTypes,omitempty"`
	ExperienceLevel  string   `json:"experienceLevel,omitempty"`
	Accessibility    []string `json:"accessibilityAdaptations,omitempty"`
	ProfileCompleted bool     `json:"profileCompleted"`
	Email            string   `json:"email,omitempty"`
}

// StrengthEntry is one ranked strength or weakness from the assessment quiz.
type StrengthEntry struct {
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
	Description string  `json:"description,omitempty"`
}

// AssessmentResult is the latest self-assessment for a user, if any.
type AssessmentResult struct {
	UserID        string          `json:"userId"`
	TopStrengths  []StrengthEntry `json:"topStrengths"`
	TopWeaknesses []StrengthEntry `json:"topWeaknesses,omitempty"`
	OverallScore  *float64        `json:"overallScore,omitempty"`
	CreatedAt     string          `json:"createdAt,omitempty"`
}
