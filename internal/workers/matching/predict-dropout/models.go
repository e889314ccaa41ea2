// internal/workers/matching/predict-dropout/models.go
package predictdropout

import "internmatch-workers/internal/risk"

type Input struct {
	CandidateID   string `json:"candidateId"`
	OpportunityID string `json:"opportunityId"`
	ApplicationID string `json:"applicationId,omitempty"`
}

type Output struct {
	DropoutProbability float64       `json:"dropoutProbability"`
	RiskLevel          string        `json:"riskLevel"`
	Factors            []risk.Factor `json:"factors"`
	ModelProbability   *float64      `json:"modelProbability,omitempty"`
}
