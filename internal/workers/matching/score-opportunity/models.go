// internal/workers/matching/score-opportunity/models.go
package scoreopportunity

import (
	"internmatch-workers/internal/models"
	"internmatch-workers/internal/scoring"
)

type Input struct {
	CandidateID   string                   `json:"candidateId,omitempty"`
	Candidate     *models.CandidateProfile `json:"candidate,omitempty"`
	OpportunityID string                   `json:"opportunityId,omitempty"`
	Opportunity   *models.Opportunity      `json:"opportunity,omitempty"`
}

type Output struct {
	MatchScore         int               `json:"matchScore"`
	Subscores          scoring.Subscores `json:"subscores"`
	ExplainReasons     []string          `json:"explainReasons"`
	DropoutProbability float64           `json:"dropoutProbability"`
	RiskLevel          string            `json:"riskLevel"`
}
