// Package listing is the client for the external vacancy catalog. Search
// failures degrade to empty result sets; callers never see catalog errors.
package listing

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	commonhttp "jobmatch-engine/internal/common/http"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/metrics"
	"jobmatch-engine/internal/models"
)

// AccessibilityLabel is the catalog filter for workplaces accepting
// candidates with disabilities. A strict search on it often returns nothing,
// so it is only ever used with an unfiltered retry behind it.
const AccessibilityLabel = "accept_handicapped"

// Config carries the catalog client tunables.
type Config struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	PerPage      int
	MaxPages     int
	DetailLimit  int
	DetailDelay  time.Duration
	SearchPeriod int // days
}

func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://api.hh.kz",
		UserAgent:    "jobmatch-engine/1.0",
		Timeout:      30 * time.Second,
		PerPage:      50,
		MaxPages:     2,
		DetailLimit:  10,
		DetailDelay:  100 * time.Millisecond,
		SearchPeriod: 30,
	}
}

// Client talks to the vacancy catalog.
type Client struct {
	cfg    Config
	http   *commonhttp.Client
	logger logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = def.PerPage
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = def.MaxPages
	}
	if cfg.DetailLimit <= 0 {
		cfg.DetailLimit = def.DetailLimit
	}
	if cfg.DetailDelay <= 0 {
		cfg.DetailDelay = def.DetailDelay
	}
	if cfg.SearchPeriod <= 0 {
		cfg.SearchPeriod = def.SearchPeriod
	}
	return &Client{
		cfg:    cfg,
		http:   commonhttp.NewClientWithUserAgent(cfg.Timeout, cfg.UserAgent),
		logger: log,
	}
}

// Search runs a paged vacancy search for the spec. Catalog failures are
// logged and yield an empty slice, never an error.
func (c *Client) Search(ctx context.Context, spec models.SearchSpec) []models.Candidate {
	return c.search(ctx, spec, "")
}

// SearchWithLabel runs a strict label-filtered search first and retries once
// without the label when the filtered search comes back empty.
func (c *Client) SearchWithLabel(ctx context.Context, spec models.SearchSpec, label string) []models.Candidate {
	candidates := c.search(ctx, spec, label)
	if len(candidates) > 0 || label == "" {
		return candidates
	}
	c.logger.Info("label-filtered search returned nothing, retrying unfiltered", map[string]interface{}{
		"label": label,
	})
	return c.search(ctx, spec, "")
}

func (c *Client) search(ctx context.Context, spec models.SearchSpec, label string) []models.Candidate {
	seen := map[string]bool{}
	candidates := []models.Candidate{}

	for page := 0; page < c.cfg.MaxPages; page++ {
		resp, err := c.searchPage(ctx, spec, label, page)
		if err != nil {
			metrics.CatalogRequests.WithLabelValues("search", "error").Inc()
			c.logger.Warn("catalog search failed", map[string]interface{}{
				"page":  page,
				"error": err.Error(),
			})
			break
		}
		metrics.CatalogRequests.WithLabelValues("search", "ok").Inc()

		for _, v := range resp.Items {
			if v.ID == "" || seen[v.ID] {
				continue
			}
			seen[v.ID] = true
			candidates = append(candidates, v.toCandidate())
		}

		if page+1 >= resp.Pages || len(resp.Items) == 0 {
			break
		}
	}
	return candidates
}

func (c *Client) searchPage(ctx context.Context, spec models.SearchSpec, label string, page int) (*searchResponse, error) {
	params := url.Values{}
	params.Set("text", spec.QueryText())
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.cfg.PerPage))
	params.Set("period", strconv.Itoa(c.cfg.SearchPeriod))
	params.Set("archived", "false")
	params.Set("only_with_salary", "false")

	if len(spec.RegionCodes) > 0 {
		params.Set("area", strings.Join(spec.RegionCodes, ","))
	}
	if len(spec.EmploymentCodes) > 0 {
		params.Set("employment", strings.Join(spec.EmploymentCodes, ","))
	}
	if spec.SalaryFloor != nil {
		params.Set("salary", strconv.Itoa(*spec.SalaryFloor))
	}
	if spec.ExperienceCode != "" {
		params.Set("experience", spec.ExperienceCode)
	}
	if label != "" {
		params.Set("label", label)
	}

	var resp searchResponse
	reqURL := fmt.Sprintf("%s/vacancies?%s", c.cfg.BaseURL, params.Encode())
	if err := c.http.GetJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchDetails enriches the top candidates with full descriptions and skill
// tags. A per-item failure keeps the basic candidate; a fixed delay between
// calls respects the catalog's rate limits.
func (c *Client) FetchDetails(ctx context.Context, candidates []models.Candidate) []models.Candidate {
	limit := c.cfg.DetailLimit
	if limit > len(candidates) {
		limit = len(candidates)
	}

	out := make([]models.Candidate, len(candidates))
	copy(out, candidates)

	for i := 0; i < limit; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return out
			case <-time.After(c.cfg.DetailDelay):
			}
		}

		detailed, err := c.fetchDetail(ctx, out[i].ExternalID)
		if err != nil {
			metrics.CatalogRequests.WithLabelValues("detail", "error").Inc()
			c.logger.Warn("detail fetch failed, keeping basic candidate", map[string]interface{}{
				"externalId": out[i].ExternalID,
				"error":      err.Error(),
			})
			continue
		}
		metrics.CatalogRequests.WithLabelValues("detail", "ok").Inc()
		out[i] = mergeDetail(out[i], detailed)
	}
	return out
}

func (c *Client) fetchDetail(ctx context.Context, id string) (models.Candidate, error) {
	var v vacancy
	reqURL := fmt.Sprintf("%s/vacancies/%s", c.cfg.BaseURL, url.PathEscape(id))
	if err := c.http.GetJSON(ctx, reqURL, &v); err != nil {
		return models.Candidate{}, err
	}
	return v.toCandidate(), nil
}

// mergeDetail overlays the detail response onto the search-result candidate,
// keeping search-result fields the detail endpoint omits.
func mergeDetail(base, detailed models.Candidate) models.Candidate {
	if detailed.Description != "" {
		base.Description = detailed.Description
	}
	if len(detailed.SkillTags) > 0 {
		base.SkillTags = detailed.SkillTags
	}
	if detailed.ExperienceCode != "" {
		base.ExperienceCode = detailed.ExperienceCode
		base.ExperienceName = detailed.ExperienceName
	}
	if detailed.EmploymentType != "" {
		base.EmploymentType = detailed.EmploymentType
	}
	return base
}
