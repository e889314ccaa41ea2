// internal/models/application.go
package models

import "time"

// Application status values, in lifecycle order.
const (
	StatusApplied     = "applied"
	StatusUnderReview = "under_review"
	StatusShortlisted = "shortlisted"
	StatusSelected    = "selected"
	StatusRejected    = "rejected"
	StatusWithdrawn   = "withdrawn"
	StatusCompleted   = "completed"
)

// StatusOrdinal maps a status to its position in the lifecycle, used when a
// feature vector needs a numeric encoding. Unknown statuses map to 0.
func StatusOrdinal(status string) float64 {
	switch status {
	case StatusApplied:
		return 1
	case StatusUnderReview:
		return 2
	case StatusShortlisted:
		return 3
	case StatusSelected:
		return 4
	case StatusRejected:
		return 5
	case StatusWithdrawn:
		return 6
	case StatusCompleted:
		return 7
	}
	return 0
}

// Resolved reports whether the status is terminal.
func Resolved(status string) bool {
	switch status {
	case StatusSelected, StatusRejected, StatusWithdrawn, StatusCompleted:
		return true
	}
	return false
}

type StatusChange struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changedAt"`
}

// Application links one candidate to one opportunity. The (candidateId,
// opportunityId) pair is unique; the engine records the score and dropout
// probability that were current at apply time.
type Application struct {
	ID                 string         `json:"id"`
	CandidateID        string         `json:"candidateId"`
	OpportunityID      string         `json:"opportunityId"`
	Status             string         `json:"status"`
	StatusHistory      []StatusChange `json:"statusHistory,omitempty"`
	MatchScore         int            `json:"matchScore"`         // [0,100]
	DropoutProbAtApply float64        `json:"dropoutProbAtApply"` // [0,0.9]
	AppliedAt          time.Time      `json:"appliedAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}
