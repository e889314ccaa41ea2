// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"internmatch-workers/internal/common/database"
	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/models"
)

// Postgres exposes the engine's read/write surface over the relational
// store. Profiles and listings live as JSONB documents with the columns the
// engine filters on promoted alongside.
type Postgres struct {
	db  *database.PostgresClient
	log logger.Logger
}

func NewPostgres(db *database.PostgresClient, log logger.Logger) *Postgres {
	return &Postgres{db: db, log: log}
}

// CandidateByID fetches one candidate profile. A miss is a not-found error.
func (s *Postgres) CandidateByID(ctx context.Context, id string) (*models.CandidateProfile, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT profile FROM candidates WHERE id = $1`, id,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, cerrors.NewCandidateNotFoundError(id)
	}
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("candidate_by_id", err)
	}

	var c models.CandidateProfile
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("candidate_by_id", err)
	}
	return &c, nil
}

// RecentCandidates returns the most recently updated profiles, used to build
// heuristic training pairs.
func (s *Postgres) RecentCandidates(ctx context.Context, limit int) ([]models.CandidateProfile, error) {
	rows, err := s.db.Query(ctx,
		`SELECT profile FROM candidates ORDER BY updated_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("recent_candidates", err)
	}
	defer rows.Close()

	var out []models.CandidateProfile
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, cerrors.NewQueryExecutionFailedError("recent_candidates", err)
		}
		var c models.CandidateProfile
		if err := json.Unmarshal(doc, &c); err != nil {
			s.log.Warn("Skipping malformed candidate document", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateLastRecommendedAt stamps the freshness marker on the candidate row
// and bumps its generation counter.
func (s *Postgres) UpdateLastRecommendedAt(ctx context.Context, candidateID string, at time.Time) error {
	_, err := s.db.Exec(ctx,
		`UPDATE candidates SET last_recommended_at = $2, recommendations_generated = recommendations_generated + 1 WHERE id = $1`,
		candidateID, at,
	)
	if err != nil {
		return cerrors.NewQueryExecutionFailedError("update_last_recommended", err)
	}
	return nil
}

// IncrementOpportunityViews bumps the view counter on every listing that
// made it into a returned recommendation page.
func (s *Postgres) IncrementOpportunityViews(ctx context.Context, opportunityIDs []string) error {
	if len(opportunityIDs) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`UPDATE opportunities SET doc = jsonb_set(doc, '{analytics,views}', to_jsonb(COALESCE((doc->'analytics'->>'views')::int, 0) + 1)) WHERE id = ANY($1)`,
		pq.Array(opportunityIDs),
	)
	if err != nil {
		return cerrors.NewQueryExecutionFailedError("increment_opportunity_views", err)
	}
	return nil
}

// OpportunityByID fetches one listing. A miss is a not-found error.
func (s *Postgres) OpportunityByID(ctx context.Context, id string) (*models.Opportunity, error) {
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT doc FROM opportunities WHERE id = $1`, id,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, cerrors.NewOpportunityNotFoundError(id)
	}
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("opportunity_by_id", err)
	}

	var o models.Opportunity
	if err := json.Unmarshal(doc, &o); err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("opportunity_by_id", err)
	}
	return &o, nil
}

// ActiveOpportunities returns every open, non-expired listing. Pool size is
// bounded here by the query, not inside the scorer.
func (s *Postgres) ActiveOpportunities(ctx context.Context, now time.Time) ([]models.Opportunity, error) {
	rows, err := s.db.Query(ctx,
		`SELECT doc FROM opportunities WHERE status = 'active' AND expires_at > $1`, now,
	)
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("active_opportunities", err)
	}
	defer rows.Close()

	var out []models.Opportunity
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, cerrors.NewQueryExecutionFailedError("active_opportunities", err)
		}
		var o models.Opportunity
		if err := json.Unmarshal(doc, &o); err != nil {
			s.log.Warn("Skipping malformed opportunity document", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// ApplicationByID fetches one application. A miss is a not-found error.
func (s *Postgres) ApplicationByID(ctx context.Context, id string) (*models.Application, error) {
	row := s.db.QueryRow(ctx,
		`SELECT id, candidate_id, opportunity_id, status, applied_at, updated_at
		 FROM applications WHERE id = $1`, id,
	)
	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, cerrors.NewApplicationNotFoundError(id)
	}
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("application_by_id", err)
	}
	return app, nil
}

// AppliedOpportunityIDs returns the set of listings the candidate has
// already applied to, in any status.
func (s *Postgres) AppliedOpportunityIDs(ctx context.Context, candidateID string) (map[string]bool, error) {
	rows, err := s.db.Query(ctx,
		`SELECT opportunity_id FROM applications WHERE candidate_id = $1`, candidateID,
	)
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("applied_opportunities", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, cerrors.NewQueryExecutionFailedError("applied_opportunities", err)
		}
		out[id] = true
	}
	return out, rows.Err()
}

// LabeledApplications returns applications whose status is in the given set,
// used for training dataset assembly.
func (s *Postgres) LabeledApplications(ctx context.Context, statuses []string) ([]models.Application, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, candidate_id, opportunity_id, status, applied_at, updated_at
		 FROM applications WHERE status = ANY($1)`, pq.Array(statuses),
	)
	if err != nil {
		return nil, cerrors.NewQueryExecutionFailedError("labeled_applications", err)
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, cerrors.NewQueryExecutionFailedError("labeled_applications", err)
		}
		out = append(out, *app)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	var appliedAt, updatedAt sql.NullTime
	err := row.Scan(&app.ID, &app.CandidateID, &app.OpportunityID, &app.Status,
		&appliedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if appliedAt.Valid {
		app.AppliedAt = appliedAt.Time
	}
	if updatedAt.Valid {
		app.UpdatedAt = updatedAt.Time
	}
	return &app, nil
}
