// internal/models/event.go
package models

import "time"

// Engine event types accepted by the append-only sink.
const (
	EventRecommendationGenerated = "recommendation_generated"
	EventModelPrediction         = "model_prediction"
)

// EngineEvent is a structured record appended to the event sink.
type EngineEvent struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	CorrelationID string                 `json:"correlationId"`
	CandidateID   string                 `json:"candidateId,omitempty"`
	OpportunityID string                 `json:"opportunityId,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}
