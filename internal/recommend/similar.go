// internal/recommend/similar.go
package recommend

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"internmatch-workers/internal/common/database"
	cerrors "internmatch-workers/internal/common/errors"
	"internmatch-workers/internal/common/logger"
	"internmatch-workers/internal/models"
	"internmatch-workers/internal/risk"
	"internmatch-workers/internal/scoring"
)

const candidateIndex = "candidates"

// OpportunityLookup resolves a single listing by id.
type OpportunityLookup interface {
	OpportunityByID(ctx context.Context, id string) (*models.Opportunity, error)
}

// CandidateMatch is one ranked candidate for an opportunity.
type CandidateMatch struct {
	CandidateID        string            `json:"candidateId"`
	Name               string            `json:"name,omitempty"`
	City               string            `json:"city,omitempty"`
	MatchScore         int               `json:"matchScore"`
	Subscores          scoring.Subscores `json:"subscores"`
	ExplainReasons     []string          `json:"explainReasons"`
	DropoutProbability float64           `json:"dropoutProbability"`
	RiskLevel          string            `json:"riskLevel"`
}

// SimilarSearch mirrors the recommendation contract in the opposite
// direction: given one opportunity, find and rank plausible candidates. The
// search index narrows the pool by skills and location before the scorer
// runs.
type SimilarSearch struct {
	es        *database.ElasticsearchClient
	lookup    OpportunityLookup
	scorer    *scoring.Engine
	estimator *risk.Estimator
	log       logger.Logger
}

func NewSimilarSearch(es *database.ElasticsearchClient, lookup OpportunityLookup, scorer *scoring.Engine, estimator *risk.Estimator, log logger.Logger) *SimilarSearch {
	return &SimilarSearch{es: es, lookup: lookup, scorer: scorer, estimator: estimator, log: log}
}

// SimilarCandidates returns up to limit candidates ranked by match score
// against the opportunity.
func (s *SimilarSearch) SimilarCandidates(ctx context.Context, opportunityID string, limit int) ([]CandidateMatch, error) {
	if limit <= 0 || limit > MaxTopK {
		limit = MaxTopK
	}

	opportunity, err := s.lookup.OpportunityByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.searchPool(ctx, opportunity)
	if err != nil {
		return nil, err
	}

	matches := make([]CandidateMatch, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		score := s.scorer.Score(c, opportunity)
		estimate := s.estimator.Estimate(c, opportunity, nil)
		if score == nil || estimate == nil {
			continue
		}
		matches = append(matches, CandidateMatch{
			CandidateID:        c.ID,
			Name:               c.Name,
			City:               c.Location.City,
			MatchScore:         score.MatchScore,
			Subscores:          score.Subscores,
			ExplainReasons:     score.Reasons,
			DropoutProbability: estimate.DropoutProbability,
			RiskLevel:          estimate.RiskLevel,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].MatchScore != matches[j].MatchScore {
			return matches[i].MatchScore > matches[j].MatchScore
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// buildCandidateQuery assembles the bool query narrowing the candidate pool
// to profiles sharing at least one required skill, boosted toward the same
// city for onsite listings.
func buildCandidateQuery(opportunity *models.Opportunity) map[string]interface{} {
	shouldClauses := []interface{}{}
	for _, skill := range opportunity.RequiredSkills {
		shouldClauses = append(shouldClauses, map[string]interface{}{
			"match": map[string]interface{}{"skills.canonicalName": skill},
		})
	}
	if !opportunity.Flags.Remote && opportunity.Location.City != "" {
		shouldClauses = append(shouldClauses, map[string]interface{}{
			"term": map[string]interface{}{"location.city": strings.ToLower(opportunity.Location.City)},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               shouldClauses,
				"minimum_should_match": 1,
			},
		},
	}
}

func (s *SimilarSearch) searchPool(ctx context.Context, opportunity *models.Opportunity) ([]models.CandidateProfile, error) {
	body, _ := json.Marshal(buildCandidateQuery(opportunity))

	size := 100
	req := esapi.SearchRequest{
		Index: []string{candidateIndex},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.es.Client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, cerrors.NewSearchTimeoutError("similar_candidates")
		}
		return nil, cerrors.NewSearchQueryFailedError("similar_candidates", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, cerrors.NewSearchQueryFailedError("similar_candidates",
			cerrors.NewInvalidRequestError(res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, cerrors.NewSearchQueryFailedError("similar_candidates", err)
	}

	out := make([]models.CandidateProfile, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var c models.CandidateProfile
		if err := json.Unmarshal(hit.Source, &c); err != nil {
			s.log.Warn("Skipping malformed candidate hit", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
