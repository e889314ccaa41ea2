// internal/workers/matching/get-recommendations/handler_test.go
package getrecommendations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/recommend"
)

type fakeRecommender struct {
	recs             []recommend.Recommendation
	err              error
	lastLimit        int
	lastForceRefresh bool
}

func (f *fakeRecommender) GetTopKRecommendations(ctx context.Context, candidateID string, limit int, forceRefresh bool) ([]recommend.Recommendation, error) {
	f.lastLimit = limit
	f.lastForceRefresh = forceRefresh
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

func createTestHandler(t *testing.T, recommender *fakeRecommender) *Handler {
	return NewHandler(LoadConfig(), recommender, logger.NewTestLogger(t))
}

func TestExecute_Success(t *testing.T) {
	recommender := &fakeRecommender{
		recs: []recommend.Recommendation{
			{Opportunity: recommend.OpportunitySummary{ID: "opp-1"}, MatchScore: 90},
			{Opportunity: recommend.OpportunitySummary{ID: "opp-2"}, MatchScore: 80},
		},
	}
	h := createTestHandler(t, recommender)

	output, err := h.Execute(context.Background(), &Input{CandidateID: "cand-1", Limit: 5})

	require.NoError(t, err)
	assert.Equal(t, "cand-1", output.CandidateID)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, 5, recommender.lastLimit)
	assert.False(t, recommender.lastForceRefresh)
}

func TestExecute_DefaultLimit(t *testing.T) {
	recommender := &fakeRecommender{}
	h := createTestHandler(t, recommender)

	_, err := h.Execute(context.Background(), &Input{CandidateID: "cand-1"})

	require.NoError(t, err)
	assert.Equal(t, LoadConfig().DefaultLimit, recommender.lastLimit)
}

func TestExecute_ForceRefreshPassedThrough(t *testing.T) {
	recommender := &fakeRecommender{}
	h := createTestHandler(t, recommender)

	_, err := h.Execute(context.Background(), &Input{CandidateID: "cand-1", ForceRefresh: true})

	require.NoError(t, err)
	assert.True(t, recommender.lastForceRefresh)
}

func TestExecute_MissingCandidateID(t *testing.T) {
	h := createTestHandler(t, &fakeRecommender{})

	_, err := h.Execute(context.Background(), &Input{})

	require.Error(t, err)
}

func TestExecute_EngineErrorPropagates(t *testing.T) {
	recommender := &fakeRecommender{err: cerrors.NewCandidateNotFoundError("ghost")}
	h := createTestHandler(t, recommender)

	_, err := h.Execute(context.Background(), &Input{CandidateID: "ghost"})

	require.Error(t, err)
	assert.True(t, cerrors.IsNotFound(err))
}
