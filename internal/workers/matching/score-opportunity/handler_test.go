// internal/workers/matching/score-opportunity/handler_test.go
package scoreopportunity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/engine"
	"internmatch-workers/internal/models"
	"internmatch-workers/internal/scoring"
)

type fakeScorer struct {
	result    *engine.ScoreResult
	err       error
	lastInput engine.ScoreInput
}

func (f *fakeScorer) ScoreOpportunity(ctx context.Context, input engine.ScoreInput) (*engine.ScoreResult, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func createTestHandler(t *testing.T, scorer *fakeScorer) *Handler {
	return NewHandler(LoadConfig(), scorer, logger.NewTestLogger(t))
}

func TestExecute_Success(t *testing.T) {
	scorer := &fakeScorer{
		result: &engine.ScoreResult{
			MatchScore:         92,
			Subscores:          scoring.Subscores{Skills: 100, Location: 100, Education: 80, Preferences: 75, Provider: 85},
			ExplainReasons:     []string{"Matches 2 of 2 required skills", "Located in your district"},
			DropoutProbability: 0.1,
			RiskLevel:          "low",
		},
	}
	h := createTestHandler(t, scorer)

	output, err := h.Execute(context.Background(), &Input{
		CandidateID:   "cand-1",
		OpportunityID: "opp-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 92, output.MatchScore)
	assert.Len(t, output.ExplainReasons, 2)
	assert.Equal(t, "low", output.RiskLevel)
	assert.Equal(t, "cand-1", scorer.lastInput.CandidateID)
	assert.Equal(t, "opp-1", scorer.lastInput.OpportunityID)
}

func TestExecute_InlineProfilePassedThrough(t *testing.T) {
	scorer := &fakeScorer{result: &engine.ScoreResult{MatchScore: 55}}
	h := createTestHandler(t, scorer)

	candidate := &models.CandidateProfile{Name: "Asha"}
	_, err := h.Execute(context.Background(), &Input{
		Candidate:     candidate,
		OpportunityID: "opp-1",
	})

	require.NoError(t, err)
	assert.Same(t, candidate, scorer.lastInput.Candidate)
	assert.Empty(t, scorer.lastInput.CandidateID)
}

func TestExecute_EngineErrorPropagates(t *testing.T) {
	scorer := &fakeScorer{err: cerrors.NewCandidateNotFoundError("ghost")}
	h := createTestHandler(t, scorer)

	_, err := h.Execute(context.Background(), &Input{
		CandidateID:   "ghost",
		OpportunityID: "opp-1",
	})

	require.Error(t, err)
	assert.True(t, cerrors.IsNotFound(err))
}
