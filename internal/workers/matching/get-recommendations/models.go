// internal/workers/matching/get-recommendations/models.go
package getrecommendations

import "internmatch-workers/internal/recommend"

type Input struct {
	CandidateID  string `json:"candidateId"`
	Limit        int    `json:"limit,omitempty"`
	ForceRefresh bool   `json:"forceRefresh,omitempty"`
}

type Output struct {
	CandidateID     string                     `json:"candidateId"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Count           int                        `json:"count"`
}
