// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internmatch-workers/internal/common/config"
	"internmatch-workers/internal/common/database"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/engine"
	"internmatch-workers/internal/features"
	"internmatch-workers/internal/ml"
	"internmatch-workers/internal/models"
	"internmatch-workers/internal/recommend"
	"internmatch-workers/internal/risk"
	"internmatch-workers/internal/scoring"
	"internmatch-workers/internal/skills"
	"internmatch-workers/internal/store"

	getrecommendations "internmatch-workers/internal/workers/matching/get-recommendations"
	predictdropout "internmatch-workers/internal/workers/matching/predict-dropout"
	scoreopportunity "internmatch-workers/internal/workers/matching/score-opportunity"
)

// These tests exercise the full worker stack against real Postgres and
// Redis containers. They are skipped unless E2E_TESTS=true and the services
// from docker-compose are reachable.

type testStack struct {
	pg     *database.PostgresClient
	redis  *database.RedisClient
	engine *engine.Engine
}

func setupStack(t *testing.T) *testStack {
	if os.Getenv("E2E_TESTS") != "true" {
		t.Skip("Skipping e2e test: E2E_TESTS not set")
	}

	cfg, err := config.Load()
	require.NoError(t, err, "config load failed")

	log := logger.NewTestLogger(t)
	ctx := context.Background()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil || pg.Ping(ctx) != nil {
		t.Skipf("Skipping e2e test: Postgres not reachable: %v", err)
	}
	t.Cleanup(func() { pg.Close() })

	redisClient, err := database.NewRedis(cfg.Database.Redis)
	if err != nil || redisClient.Ping(ctx) != nil {
		t.Skipf("Skipping e2e test: Redis not reachable: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	taxonomy := skills.New()
	scorer := scoring.NewEngine(taxonomy, scoring.DefaultPolicy())
	estimator := risk.NewEstimator(taxonomy)
	extractor := features.NewExtractor(taxonomy)

	repo := store.NewPostgres(pg, log)
	events := store.NewEventSink(pg, log)
	registry := ml.NewRegistry()

	freshness := recommend.NewFreshness(redisClient, time.Hour, log)
	orchestrator := recommend.NewOrchestrator(repo, scorer, estimator, extractor, registry, events, freshness, log)

	eng := engine.New(
		repo, scorer, estimator, extractor, registry,
		nil, orchestrator, nil, events, log,
	)

	return &testStack{pg: pg, redis: redisClient, engine: eng}
}

func seedPair(t *testing.T, stack *testStack) (candidateID, opportunityID string) {
	ctx := context.Background()
	candidateID = fmt.Sprintf("e2e-cand-%d", time.Now().UnixNano())
	opportunityID = fmt.Sprintf("e2e-opp-%d", time.Now().UnixNano())

	profile, err := json.Marshal(models.CandidateProfile{
		ID:   candidateID,
		Name: "E2E Candidate",
		Skills: []models.Skill{
			{DisplayName: "Python", CanonicalName: "python", Confidence: 0.9},
		},
		Location:  models.Location{City: "Pune", District: "Pune", State: "Maharashtra"},
		Education: models.Education{Level: models.EducationUG, Field: "Computer Science"},
	})
	require.NoError(t, err)

	doc, err := json.Marshal(models.Opportunity{
		ID:             opportunityID,
		Title:          "E2E Backend Intern",
		RequiredSkills: []string{"python"},
		Location:       models.Location{City: "Pune", District: "Pune", State: "Maharashtra"},
		StipendMonthly: 10000,
		DurationMonths: 3,
		Provider:       models.Provider{Name: "E2E Provider", Reliability: 85, Rating: 4.0},
		PostedAt:       time.Now().Add(-24 * time.Hour),
		ExpiresAt:      time.Now().Add(30 * 24 * time.Hour),
	})
	require.NoError(t, err)

	_, err = stack.pg.Exec(ctx,
		`INSERT INTO candidates (id, profile) VALUES ($1, $2)`, candidateID, profile)
	require.NoError(t, err)
	_, err = stack.pg.Exec(ctx,
		`INSERT INTO opportunities (id, doc, status, expires_at) VALUES ($1, $2, 'active', $3)`,
		opportunityID, doc, time.Now().Add(30*24*time.Hour))
	require.NoError(t, err)

	t.Cleanup(func() {
		stack.pg.Exec(ctx, `DELETE FROM engine_events WHERE candidate_id = $1`, candidateID)
		stack.pg.Exec(ctx, `DELETE FROM opportunities WHERE id = $1`, opportunityID)
		stack.pg.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, candidateID)
	})
	return candidateID, opportunityID
}

func TestE2E_ScoreOpportunity(t *testing.T) {
	stack := setupStack(t)
	candidateID, opportunityID := seedPair(t, stack)

	handler := scoreopportunity.NewHandler(scoreopportunity.LoadConfig(), stack.engine, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &scoreopportunity.Input{
		CandidateID:   candidateID,
		OpportunityID: opportunityID,
	})

	require.NoError(t, err)
	assert.Greater(t, output.MatchScore, 50)
	assert.NotEmpty(t, output.ExplainReasons)
	assert.NotEmpty(t, output.RiskLevel)
}

func TestE2E_GetRecommendations(t *testing.T) {
	stack := setupStack(t)
	candidateID, opportunityID := seedPair(t, stack)

	handler := getrecommendations.NewHandler(getrecommendations.LoadConfig(), stack.engine, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &getrecommendations.Input{
		CandidateID:  candidateID,
		Limit:        5,
		ForceRefresh: true,
	})

	require.NoError(t, err)
	require.NotZero(t, output.Count)

	found := false
	for _, rec := range output.Recommendations {
		if rec.Opportunity.ID == opportunityID {
			found = true
		}
	}
	assert.True(t, found, "seeded opportunity missing from recommendations")

	// The forced refresh must have left an event behind.
	var eventCount int
	err = stack.pg.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM engine_events WHERE candidate_id = $1 AND type = $2`,
		candidateID, models.EventRecommendationGenerated,
	).Scan(&eventCount)
	require.NoError(t, err)
	assert.NotZero(t, eventCount)
}

func TestE2E_PredictDropout(t *testing.T) {
	stack := setupStack(t)
	candidateID, opportunityID := seedPair(t, stack)

	handler := predictdropout.NewHandler(predictdropout.LoadConfig(), stack.engine, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &predictdropout.Input{
		CandidateID:   candidateID,
		OpportunityID: opportunityID,
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, output.DropoutProbability, 0.0)
	assert.LessOrEqual(t, output.DropoutProbability, 0.9)
	assert.NotEmpty(t, output.RiskLevel)
}
