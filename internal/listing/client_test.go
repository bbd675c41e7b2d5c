package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.DetailDelay = time.Millisecond
	return NewClient(cfg, logger.NewTestLogger(t))
}

func intPtr(v int) *int { return &v }

func vacancyJSON(id, name string) map[string]interface{} {
	return map[string]interface{}{
		"id":   id,
		"name": name,
		"employer": map[string]interface{}{
			"name": "Acme",
		},
		"salary": map[string]interface{}{
			"from":     300000,
			"to":       500000,
			"currency": "KZT",
		},
		"area": map[string]interface{}{
			"id":   "160",
			"name": "Almaty",
		},
		"snippet": map[string]interface{}{
			"requirement":    "go experience",
			"responsibility": "build services",
		},
		"alternate_url": "https://catalog.example/vacancy/" + id,
	}
}

func TestSearch_PagedResults(t *testing.T) {
	var pagesRequested []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pagesRequested = append(pagesRequested, r.URL.Query().Get("page"))

		assert.Equal(t, "/vacancies", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		page := r.URL.Query().Get("page")
		items := []map[string]interface{}{vacancyJSON("v-"+page+"-1", "Developer")}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": items,
			"found": 2,
			"pages": 2,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	candidates := client.Search(context.Background(), models.SearchSpec{QueryTerms: []string{"developer"}})

	assert.Equal(t, []string{"0", "1"}, pagesRequested)
	require.Len(t, candidates, 2)
	assert.Equal(t, "v-0-1", candidates[0].ExternalID)
	assert.Equal(t, "Developer", candidates[0].Title)
	assert.Equal(t, "Acme", candidates[0].Company)
	require.NotNil(t, candidates[0].SalaryFrom)
	assert.Equal(t, 300000, *candidates[0].SalaryFrom)
	assert.Equal(t, "160", candidates[0].RegionCode)
	assert.Equal(t, "go experience build services", candidates[0].Snippet)
}

func TestSearch_QueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "teacher OR tutor OR flexible schedule", q.Get("text"))
		assert.Equal(t, "160,40", q.Get("area"))
		assert.Equal(t, "280000", q.Get("salary"))
		assert.Equal(t, "full,part", q.Get("employment"))
		assert.Equal(t, "noExperience", q.Get("experience"))
		assert.Equal(t, "false", q.Get("archived"))
		assert.Equal(t, "false", q.Get("only_with_salary"))

		json.NewEncoder(w).Encode(map[string]interface{}{"items": []interface{}{}, "pages": 1})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	client.Search(context.Background(), models.SearchSpec{
		QueryTerms:         []string{"teacher", "tutor"},
		RegionCodes:        []string{"160", "40"},
		SalaryFloor:        intPtr(280000),
		EmploymentCodes:    []string{"full", "part"},
		ExperienceCode:     "noExperience",
		AccessibilityTerms: []string{"flexible schedule"},
	})
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	candidates := client.Search(context.Background(), models.SearchSpec{QueryTerms: []string{"developer"}})

	assert.Empty(t, candidates, "catalog failures degrade to an empty result set")
}

func TestSearch_DeduplicatesAcrossPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{vacancyJSON("same-id", "Developer")},
			"pages": 2,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	candidates := client.Search(context.Background(), models.SearchSpec{QueryTerms: []string{"developer"}})

	assert.Len(t, candidates, 1)
}

func TestSearchWithLabel_RetriesUnfiltered(t *testing.T) {
	var labels []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		label := r.URL.Query().Get("label")
		labels = append(labels, label)

		items := []map[string]interface{}{}
		if label == "" {
			items = append(items, vacancyJSON("v-1", "Developer"))
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"items": items, "pages": 1})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	candidates := client.SearchWithLabel(context.Background(), models.SearchSpec{QueryTerms: []string{"developer"}}, AccessibilityLabel)

	assert.Equal(t, []string{AccessibilityLabel, ""}, labels)
	require.Len(t, candidates, 1)
	assert.Equal(t, "v-1", candidates[0].ExternalID)
}

func TestSearchWithLabel_KeepsFilteredResults(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{vacancyJSON("v-1", "Developer")},
			"pages": 1,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	candidates := client.SearchWithLabel(context.Background(), models.SearchSpec{QueryTerms: []string{"developer"}}, AccessibilityLabel)

	assert.Equal(t, 1, calls, "no retry when the strict search matched")
	assert.Len(t, candidates, 1)
}

func TestFetchDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/vacancies/v-1":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":          "v-1",
				"name":        "Developer",
				"description": "full description",
				"key_skills":  []map[string]interface{}{{"name": "Go"}, {"name": "SQL"}},
			})
		case "/vacancies/v-2":
			http.Error(w, "not found", http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	base := []models.Candidate{
		{ExternalID: "v-1", Title: "Developer", Snippet: "short"},
		{ExternalID: "v-2", Title: "Tester", Snippet: "short"},
	}

	out := client.FetchDetails(context.Background(), base)

	require.Len(t, out, 2)
	assert.Equal(t, "full description", out[0].Description)
	assert.Equal(t, []string{"Go", "SQL"}, out[0].SkillTags)
	assert.Equal(t, "short", out[0].Snippet, "search-result fields survive the merge")
	// per-item failure falls back to the basic candidate
	assert.Equal(t, "Tester", out[1].Title)
	assert.Empty(t, out[1].Description)
}

func TestFetchDetails_RespectsLimit(t *testing.T) {
	var detailCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		detailCalls++
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "x", "name": "x"})
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.DetailLimit = 3
	cfg.DetailDelay = time.Millisecond
	client := NewClient(cfg, logger.NewTestLogger(t))

	candidates := make([]models.Candidate, 8)
	for i := range candidates {
		candidates[i] = models.Candidate{ExternalID: fmt.Sprintf("v-%d", i)}
	}

	out := client.FetchDetails(context.Background(), candidates)

	assert.Equal(t, 3, detailCalls)
	assert.Len(t, out, 8, "undetailed candidates are kept as-is")
}
