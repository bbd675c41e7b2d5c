// Package store persists recommendations and user data in Postgres and
// keeps learned preferences and freshness markers in Redis.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	commonerrors "jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/models"
)

// RecommendationStore owns the job_recommendations table.
type RecommendationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRecommendationStore(db *sql.DB, log logger.Logger) *RecommendationStore {
	return &RecommendationStore{db: db, logger: log}
}

const upsertRecommendationQuery = `
	INSERT INTO job_recommendations (
		user_id, external_id, title, company, salary_from, salary_to,
		currency, region_name, employment_type, experience_name,
		description, skill_tags,
		skills_match_score, location_match_score, salary_match_score,
		experience_match_score, strength_match_score, job_fit_score,
		growth_potential_score, relevance_score,
		source, is_active, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		$13, $14, $15, $16, $17, $18, $19, $20, $21, true, NOW(), NOW()
	)
	ON CONFLICT (user_id, external_id) DO UPDATE SET
		title = EXCLUDED.title,
		company = EXCLUDED.company,
		salary_from = EXCLUDED.salary_from,
		salary_to = EXCLUDED.salary_to,
		currency = EXCLUDED.currency,
		region_name = EXCLUDED.region_name,
		employment_type = EXCLUDED.employment_type,
		experience_name = EXCLUDED.experience_name,
		description = EXCLUDED.description,
		skill_tags = EXCLUDED.skill_tags,
		skills_match_score = EXCLUDED.skills_match_score,
		location_match_score = EXCLUDED.location_match_score,
		salary_match_score = EXCLUDED.salary_match_score,
		experience_match_score = EXCLUDED.experience_match_score,
		strength_match_score = EXCLUDED.strength_match_score,
		job_fit_score = EXCLUDED.job_fit_score,
		growth_potential_score = EXCLUDED.growth_potential_score,
		relevance_score = EXCLUDED.relevance_score,
		source = EXCLUDED.source,
		is_active = true,
		updated_at = NOW()`

// ReplaceActive deactivates the user's current recommendations and upserts
// the fresh set. Re-running a refresh is idempotent: the active set after the
// call is exactly the given set.
func (s *RecommendationStore) ReplaceActive(ctx context.Context, userID string, recs []models.Recommendation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return commonerrors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE job_recommendations SET is_active = false, updated_at = NOW() WHERE user_id = $1 AND is_active = true`,
		userID,
	); err != nil {
		return commonerrors.NewQueryExecutionFailedError("deactivate_recommendations", err)
	}

	for _, rec := range recs {
		if _, err := tx.ExecContext(ctx, upsertRecommendationQuery,
			userID, rec.ExternalID, rec.Title, rec.Company,
			rec.SalaryFrom, rec.SalaryTo, rec.Currency,
			rec.RegionName, rec.EmploymentType, rec.ExperienceName,
			rec.Description, pq.Array(rec.SkillTags),
			rec.Scores.Skills, rec.Scores.Location, rec.Scores.Salary,
			rec.Scores.Experience, rec.Scores.Strength, rec.Scores.JobFit,
			rec.Scores.Growth, rec.Scores.Relevance,
			rec.Source,
		); err != nil {
			return commonerrors.NewDatabaseInsertFailedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return commonerrors.NewDatabaseInsertFailedError(err)
	}

	s.logger.Debug("replaced active recommendations", map[string]interface{}{
		"userId": userID,
		"count":  len(recs),
	})
	return nil
}

const selectRecommendationColumns = `
	SELECT id, user_id, external_id, title, company, salary_from, salary_to,
		currency, region_name, employment_type, experience_name,
		description, skill_tags,
		skills_match_score, location_match_score, salary_match_score,
		experience_match_score, strength_match_score, job_fit_score,
		growth_potential_score, relevance_score,
		source, is_active, created_at, updated_at
	FROM job_recommendations`

// ActiveByUser returns the user's active recommendations ordered by
// relevance, best first.
func (s *RecommendationStore) ActiveByUser(ctx context.Context, userID string) ([]models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx,
		selectRecommendationColumns+` WHERE user_id = $1 AND is_active = true ORDER BY relevance_score DESC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("active_recommendations", err)
	}
	defer rows.Close()

	return scanRecommendations(rows)
}

// ByID fetches a single recommendation, active or not.
func (s *RecommendationStore) ByID(ctx context.Context, id int64) (*models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, selectRecommendationColumns+` WHERE id = $1`, id)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("recommendation_by_id", err)
	}
	defer rows.Close()

	recs, err := scanRecommendations(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, commonerrors.NewResourceNotFoundError("recommendation", "no row for id")
	}
	return &recs[0], nil
}

// DeleteInactiveOlderThan prunes deactivated rows past the retention window.
func (s *RecommendationStore) DeleteInactiveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM job_recommendations WHERE is_active = false AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, commonerrors.NewQueryExecutionFailedError("cleanup_recommendations", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

func scanRecommendations(rows *sql.Rows) ([]models.Recommendation, error) {
	recs := []models.Recommendation{}
	for rows.Next() {
		var rec models.Recommendation
		var company, currency, regionName, employmentType, experienceName, description sql.NullString
		var skillTags pq.StringArray

		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ExternalID, &rec.Title, &company,
			&rec.SalaryFrom, &rec.SalaryTo, &currency, &regionName,
			&employmentType, &experienceName, &description, &skillTags,
			&rec.Scores.Skills, &rec.Scores.Location, &rec.Scores.Salary,
			&rec.Scores.Experience, &rec.Scores.Strength, &rec.Scores.JobFit,
			&rec.Scores.Growth, &rec.Scores.Relevance,
			&rec.Source, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_recommendation", err)
		}

		rec.Company = company.String
		rec.Currency = currency.String
		rec.RegionName = regionName.String
		rec.EmploymentType = employmentType.String
		rec.ExperienceName = experienceName.String
		rec.Description = description.String
		rec.SkillTags = skillTags
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_recommendations", err)
	}
	return recs, nil
}
