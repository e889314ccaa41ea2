package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch-workers/internal/common/database"
	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(&database.PostgresClient{DB: db}, logger.NewTestLogger(t)), mock
}

func candidateDoc(t *testing.T, id string) []byte {
	doc, err := json.Marshal(models.CandidateProfile{
		ID:       id,
		Name:     "Asha",
		Location: models.Location{City: "Pune"},
	})
	require.NoError(t, err)
	return doc
}

func opportunityDoc(t *testing.T, id string) []byte {
	doc, err := json.Marshal(models.Opportunity{
		ID:             id,
		Title:          "Backend Intern",
		StipendMonthly: 12000,
	})
	require.NoError(t, err)
	return doc
}

// ==========================
// Candidate Tests
// ==========================

func TestCandidateByID(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT profile FROM candidates WHERE id = \$1`).
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).AddRow(candidateDoc(t, "cand-1")))

	c, err := s.CandidateByID(context.Background(), "cand-1")

	require.NoError(t, err)
	assert.Equal(t, "cand-1", c.ID)
	assert.Equal(t, "Pune", c.Location.City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCandidateByID_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT profile FROM candidates`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"profile"}))

	_, err := s.CandidateByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, cerrors.IsNotFound(err))
}

func TestRecentCandidates(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT profile FROM candidates ORDER BY updated_at DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).
			AddRow(candidateDoc(t, "cand-1")).
			AddRow(candidateDoc(t, "cand-2")))

	out, err := s.RecentCandidates(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "cand-2", out[1].ID)
}

func TestRecentCandidates_SkipsMalformedDocument(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT profile FROM candidates`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"profile"}).
			AddRow([]byte(`{broken`)).
			AddRow(candidateDoc(t, "cand-2")))

	out, err := s.RecentCandidates(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "cand-2", out[0].ID)
}

func TestUpdateLastRecommendedAt(t *testing.T) {
	s, mock := newTestStore(t)
	at := time.Now().UTC()

	mock.ExpectExec(`UPDATE candidates SET last_recommended_at`).
		WithArgs("cand-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpdateLastRecommendedAt(context.Background(), "cand-1", at)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Opportunity Tests
// ==========================

func TestIncrementOpportunityViews(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE opportunities SET doc = jsonb_set`).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := s.IncrementOpportunityViews(context.Background(), []string{"opp-1", "opp-2"})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementOpportunityViews_EmptyPageIsNoOp(t *testing.T) {
	s, mock := newTestStore(t)

	err := s.IncrementOpportunityViews(context.Background(), nil)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpportunityByID_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT doc FROM opportunities`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	_, err := s.OpportunityByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, cerrors.IsNotFound(err))
}

func TestActiveOpportunities(t *testing.T) {
	s, mock := newTestStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT doc FROM opportunities WHERE status = 'active' AND expires_at > \$1`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).
			AddRow(opportunityDoc(t, "opp-1")).
			AddRow(opportunityDoc(t, "opp-2")))

	out, err := s.ActiveOpportunities(context.Background(), now)

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "opp-1", out[0].ID)
}

func TestActiveOpportunities_QueryError(t *testing.T) {
	s, mock := newTestStore(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT doc FROM opportunities`).
		WithArgs(now).
		WillReturnError(errors.New("connection reset"))

	_, err := s.ActiveOpportunities(context.Background(), now)

	require.Error(t, err)
	stdErr, ok := err.(*cerrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, cerrors.ErrCodeQueryExecutionFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

// ==========================
// Application Tests
// ==========================

func TestAppliedOpportunityIDs(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT opportunity_id FROM applications WHERE candidate_id = \$1`).
		WithArgs("cand-1").
		WillReturnRows(sqlmock.NewRows([]string{"opportunity_id"}).
			AddRow("opp-1").
			AddRow("opp-3"))

	out, err := s.AppliedOpportunityIDs(context.Background(), "cand-1")

	require.NoError(t, err)
	assert.True(t, out["opp-1"])
	assert.True(t, out["opp-3"])
	assert.False(t, out["opp-2"])
}

func TestLabeledApplications(t *testing.T) {
	s, mock := newTestStore(t)
	applied := time.Now().Add(-72 * time.Hour)

	mock.ExpectQuery(`SELECT id, candidate_id, opportunity_id, status, applied_at, updated_at`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "candidate_id", "opportunity_id", "status", "applied_at", "updated_at"}).
			AddRow("app-1", "cand-1", "opp-1", models.StatusSelected, applied, applied).
			AddRow("app-2", "cand-2", "opp-2", models.StatusWithdrawn, applied, applied))

	out, err := s.LabeledApplications(context.Background(),
		[]string{models.StatusSelected, models.StatusWithdrawn})

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, models.StatusSelected, out[0].Status)
	assert.Equal(t, "cand-2", out[1].CandidateID)
}

func TestApplicationByID_NotFound(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT id, candidate_id, opportunity_id, status, applied_at, updated_at`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "candidate_id", "opportunity_id", "status", "applied_at", "updated_at"}))

	_, err := s.ApplicationByID(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, cerrors.IsNotFound(err))
}
