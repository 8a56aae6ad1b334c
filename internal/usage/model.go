package usage

import "time"

// Unlimited is the quota value that stands for "no practical limit".
const Unlimited = 999999

// Period is the length of one usage window.
const Period = 30 * 24 * time.Hour

// Tier is a subscription plan with a monthly quota per agent.
type Tier struct {
	ID           string         `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	Description  string         `json:"description" yaml:"description"`
	Price        *float64       `json:"price" yaml:"price"`
	Features     []string       `json:"features" yaml:"features"`
	Limits       map[string]int `json:"limits" yaml:"limits"`
	IsPopular    bool           `json:"isPopular,omitempty" yaml:"popular"`
	IsEnterprise bool           `json:"isEnterprise,omitempty" yaml:"enterprise"`
}

// Record is one user's usage for the current period.
type Record struct {
	UserID      string         `json:"userId"`
	TierID      string         `json:"tierId"`
	PeriodStart time.Time      `json:"periodStart"`
	PeriodEnd   time.Time      `json:"periodEnd"`
	Counts      map[string]int `json:"usageCountByAgent"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Counts = make(map[string]int, len(r.Counts))
	for k, v := range r.Counts {
		out.Counts[k] = v
	}
	return out
}

// Expired reports whether now is outside [PeriodStart, PeriodEnd).
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.PeriodEnd)
}

// Decision is the outcome of a usage check or consume.
type Decision struct {
	AgentID   string `json:"agentId"`
	TierID    string `json:"tierId"`
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
}

// Status is a user's tier, record, and remaining quota per agent.
type Status struct {
	Tier      Tier           `json:"tier"`
	Record    Record         `json:"record"`
	Remaining map[string]int `json:"remainingByAgent"`
	Expired   bool           `json:"expired"`
}
