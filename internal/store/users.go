package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	commonerrors "jobmatch-engine/internal/common/errors"
	"jobmatch-engine/internal/common/logger"
	"jobmatch-engine/internal/common/validation"
	"jobmatch-engine/internal/models"
)

// UserStore reads profiles, assessments and feedback. All three tables are
// owned by the collaborating onboarding service; this side only reads and
// appends feedback rows.
type UserStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserStore(db *sql.DB, log logger.Logger) *UserStore {
	return &UserStore{db: db, logger: log}
}

// GetProfile loads the onboarding profile for a user.
func (s *UserStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var p models.UserProfile
	var profession, currentPosition, desiredPosition, currency, experienceLevel, email sql.NullString
	var skills, cities, employmentTypes, accessibility pq.StringArray
	var yearsExperience, minSalary, maxSalary sql.NullInt64

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, profession, current_position, desired_position,
			skills, years_experience, preferred_cities, min_salary, max_salary,
			currency, employment_types, experience_level,
			accessibility_adaptations, profile_completed, email
		FROM user_profiles WHERE user_id = $1`,
		userID,
	).Scan(
		&p.UserID, &profession, &currentPosition, &desiredPosition,
		&skills, &yearsExperience, &cities, &minSalary, &maxSalary,
		&currency, &employmentTypes, &experienceLevel,
		&accessibility, &p.ProfileCompleted, &email,
	)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewProfileNotFoundError(userID)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("get_profile", err)
	}

	p.Profession = profession.String
	p.CurrentPosition = currentPosition.String
	p.DesiredPosition = desiredPosition.String
	p.Currency = currency.String
	p.ExperienceLevel = experienceLevel.String
	p.Email = email.String
	p.Skills = skills
	p.PreferredCities = cities
	p.EmploymentTypes = employmentTypes
	p.Accessibility = accessibility
	if yearsExperience.Valid {
		v := int(yearsExperience.Int64)
		p.YearsExperience = &v
	}
	if minSalary.Valid {
		v := int(minSalary.Int64)
		p.MinSalary = &v
	}
	if maxSalary.Valid {
		v := int(maxSalary.Int64)
		p.MaxSalary = &v
	}
	return &p, nil
}

// LatestAssessment loads the most recent assessment result for a user.
// Strength lists are stored as JSONB.
func (s *UserStore) LatestAssessment(ctx context.Context, userID string) (*models.AssessmentResult, error) {
	var a models.AssessmentResult
	var strengthsRaw, weaknessesRaw []byte
	var overall sql.NullFloat64
	var createdAt time.Time

	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, top_strengths, top_weaknesses, overall_score, created_at
		FROM assessment_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`,
		userID,
	).Scan(&a.UserID, &strengthsRaw, &weaknessesRaw, &overall, &createdAt)
	if err == sql.ErrNoRows {
		return nil, commonerrors.NewAssessmentNotFoundError(userID)
	}
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("latest_assessment", err)
	}

	if len(strengthsRaw) > 0 {
		if err := json.Unmarshal(strengthsRaw, &a.TopStrengths); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("decode_strengths", err)
		}
	}
	if len(weaknessesRaw) > 0 {
		if err := json.Unmarshal(weaknessesRaw, &a.TopWeaknesses); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("decode_weaknesses", err)
		}
	}
	if overall.Valid {
		v := overall.Float64
		a.OverallScore = &v
	}
	a.CreatedAt = createdAt.Format(time.RFC3339)
	return &a, nil
}

// CompletedProfileUserIDs lists users eligible for scheduled refreshes.
func (s *UserStore) CompletedProfileUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM user_profiles WHERE profile_completed = true ORDER BY user_id`)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("completed_profiles", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_user_id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_user_ids", err)
	}
	return ids, nil
}

// InsertFeedback records one explicit reaction to a recommendation.
func (s *UserStore) InsertFeedback(ctx context.Context, signal models.FeedbackSignal) error {
	if !validation.ValidateUserID(signal.UserID) || signal.RecommendationID == 0 {
		return commonerrors.NewFeedbackInvalidError("user id and recommendation id are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO job_feedback (user_id, recommendation_id, is_relevant, is_interested, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		signal.UserID, signal.RecommendationID, signal.IsRelevant, signal.IsInterested,
	)
	if err != nil {
		return commonerrors.NewDatabaseInsertFailedError(err)
	}
	return nil
}

// FeedbackSince returns the user's feedback signals newer than the cutoff.
func (s *UserStore) FeedbackSince(ctx context.Context, userID string, since time.Time) ([]models.FeedbackSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, recommendation_id, is_relevant, is_interested, created_at
		FROM job_feedback
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC`,
		userID, since,
	)
	if err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("feedback_since", err)
	}
	defer rows.Close()

	signals := []models.FeedbackSignal{}
	for rows.Next() {
		var f models.FeedbackSignal
		if err := rows.Scan(&f.ID, &f.UserID, &f.RecommendationID, &f.IsRelevant, &f.IsInterested, &f.CreatedAt); err != nil {
			return nil, commonerrors.NewQueryExecutionFailedError("scan_feedback", err)
		}
		signals = append(signals, f)
	}
	if err := rows.Err(); err != nil {
		return nil, commonerrors.NewQueryExecutionFailedError("iterate_feedback", err)
	}
	return signals, nil
}
