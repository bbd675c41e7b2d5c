package listing

import "jobmatch-engine/internal/models"

// Wire types for the catalog's vacancy search API.

type searchResponse struct {
	Items   []vacancy `json:"items"`
	Found   int       `json:"found"`
	Pages   int       `json:"pages"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
}

type vacancy struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Employer     *employer   `json:"employer"`
	Salary       *salary     `json:"salary"`
	Area         *area       `json:"area"`
	Employment   *dictEntry  `json:"employment"`
	Experience   *dictEntry  `json:"experience"`
	Snippet      *snippet    `json:"snippet"`
	Description  string      `json:"description"`
	KeySkills    []keySkill  `json:"key_skills"`
	AlternateURL string      `json:"alternate_url"`
	PublishedAt  string      `json:"published_at"`
}

type employer struct {
	Name string `json:"name"`
}

type salary struct {
	From     *int   `json:"from"`
	To       *int   `json:"to"`
	Currency string `json:"currency"`
}

type area struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type dictEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type snippet struct {
	Requirement    string `json:"requirement"`
	Responsibility string `json:"responsibility"`
}

type keySkill struct {
	Name string `json:"name"`
}

func (v vacancy) toCandidate() models.Candidate {
	c := models.Candidate{
		ExternalID:  v.ID,
		Title:       v.Name,
		URL:         v.AlternateURL,
		PublishedAt: v.PublishedAt,
		Description: v.Description,
	}
	if v.Employer != nil {
		c.Company = v.Employer.Name
	}
	if v.Salary != nil {
		c.SalaryFrom = v.Salary.From
		c.SalaryTo = v.Salary.To
		c.Currency = v.Salary.Currency
	}
	if v.Area != nil {
		c.RegionCode = v.Area.ID
		c.RegionName = v.Area.Name
	}
	if v.Employment != nil {
		c.EmploymentType = v.Employment.ID
	}
	if v.Experience != nil {
		c.ExperienceCode = v.Experience.ID
		c.ExperienceName = v.Experience.Name
	}
	if v.Snippet != nil {
		parts := ""
		if v.Snippet.Requirement != "" {
			parts = v.Snippet.Requirement
		}
		if v.Snippet.Responsibility != "" {
			if parts != "" {
				parts += " "
			}
			parts += v.Snippet.Responsibility
		}
		c.Snippet = parts
	}
	for _, s := range v.KeySkills {
		if s.Name != "" {
			c.SkillTags = append(c.SkillTags, s.Name)
		}
	}
	return c
}
