// internal/models/opportunity.go
package models

import "time"

type OpportunityFlags struct {
	Remote           bool `json:"remote"`
	BeginnerFriendly bool `json:"beginnerFriendly"`
	PartTime         bool `json:"partTime"`
	Urgent           bool `json:"urgent"`
	Verified         bool `json:"verified"`
}

type Provider struct {
	Name        string  `json:"name,omitempty"`
	Reliability float64 `json:"reliability"` // [0,100]
	Rating      float64 `json:"rating"`      // [1,5]
}

type OpportunityAnalytics struct {
	Views          int     `json:"views"`
	Applications   int     `json:"applications"`
	CompletionRate float64 `json:"completionRate,omitempty"` // [0,1], 0 means unknown
}

type Benefits struct {
	Certificate   bool `json:"certificate"`
	FlexibleHours bool `json:"flexibleHours"`
	JobOffer      bool `json:"jobOffer"`
}

// Opportunity is an internship listing. Read-only to the engine except the
// view/application counters.
type Opportunity struct {
	ID             string               `json:"id"`
	Title          string               `json:"title"`
	RequiredSkills []string             `json:"requiredSkills"` // canonical strings
	Location       Location             `json:"location"`
	StipendMonthly float64              `json:"stipendMonthly"`
	DurationMonths int                  `json:"durationMonths"`
	Sector         string               `json:"sector,omitempty"`
	CompanySize    string               `json:"companySize,omitempty"`
	Flags          OpportunityFlags     `json:"flags"`
	Benefits       Benefits             `json:"benefits"`
	Provider       Provider             `json:"provider"`
	Analytics      OpportunityAnalytics `json:"analytics"`
	PostedAt       time.Time            `json:"postedAt"`
	ExpiresAt      time.Time            `json:"expiresAt"`
}

// Active reports whether the opportunity is still open at the given instant.
func (o *Opportunity) Active(now time.Time) bool {
	return o.ExpiresAt.After(now)
}
