// internal/models/candidate.go
package models

// Candidate is one listing returned by the external catalog, pre-scoring.
type Candidate struct {
	ExternalID      string   `json:"externalId"`
	Title           string   `json:"title"`
	Company         string   `json:"company,omitempty"`
	SalaryFrom      *int     `json:"salaryFrom,omitempty"`
	SalaryTo        *int     `json:"salaryTo,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	RegionCode      string   `json:"regionCode,omitempty"`
	RegionName      string   `json:"regionName,omitempty"`
	EmploymentType  string   `json:"employmentType,omitempty"`
	ExperienceCode  string   `json:"experienceCode,omitempty"`
	ExperienceName  string   `json:"experienceName,omitempty"`
	Description     string   `json:"description,omitempty"`
	Snippet         string   `json:"snippet,omitempty"`
	SkillTags       []string `json:"skillTags,omitempty"`
	URL             string   `json:"url,omitempty"`
	PublishedAt     string   `json:"publishedAt,omitempty"`
}

// ScoreSet holds per-dimension scores in [0,1] plus the weighted relevance.
type ScoreSet struct {
	Skills     float64 `json:"skillsMatchScore"`
	Location   float64 `json:"locationMatchScore"`
	Salary     float64 `json:"salaryMatchScore"`
	Experience float64 `json:"experienceMatchScore"`
	Strength   float64 `json:"strengthMatchScore"`
	JobFit     float64 `json:"jobFitScore"`
	Growth     float64 `json:"growthPotentialScore"`
	Relevance  float64 `json:"relevanceScore"`
}

// ScoredCandidate pairs a candidate with its scores for one run.
type ScoredCandidate struct {
	Candidate Candidate `json:"candidate"`
	Scores    ScoreSet  `json:"scores"`
	Source    string    `json:"source"`
}
