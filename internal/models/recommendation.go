// internal/models/recommendation.go
package models

import "time"

// Recommendation source tags.
const (
	SourceProfile    = "profile"
	SourceAssessment = "assessment"
)

// Recommendation is one stored, scored listing for a user.
// At most one active row exists per (UserID, ExternalID).
type Recommendation struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"userId"`
	ExternalID     string    `json:"externalId"`
	Title          string    `json:"title"`
	Company        string    `json:"company,omitempty"`
	SalaryFrom     *int      `json:"salaryFrom,omitempty"`
	SalaryTo       *int      `json:"salaryTo,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	RegionName     string    `json:"regionName,omitempty"`
	EmploymentType string    `json:"employmentType,omitempty"`
	ExperienceName string    `json:"experienceName,omitempty"`
	Description    string    `json:"description,omitempty"`
	SkillTags      []string  `json:"skillTags,omitempty"`
	Scores         ScoreSet  `json:"scores"`
	Source         string    `json:"source"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// RecommendationBlock is one independently ranked list shown to the user.
type RecommendationBlock struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Source          string           `json:"source"`
	Recommendations []Recommendation `json:"recommendations"`
	TotalFound      int              `json:"totalFound"`
}

// DualRecommendations is the full response of one matching run.
type DualRecommendations struct {
	RunID           string              `json:"runId"`
	UserID          string              `json:"userId"`
	ProfileBlock    RecommendationBlock `json:"profileBlock"`
	AssessmentBlock RecommendationBlock `json:"assessmentBlock"`
	GeneratedAt     time.Time           `json:"generatedAt"`
}
