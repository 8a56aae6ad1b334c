package analyses

import (
	"encoding/json"
	"time"
)

// StatusCompleted marks an analysis whose result was extracted and billed.
const StatusCompleted = "completed"

// Analysis is one recorded agent run.
type Analysis struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	AgentID   string          `json:"agentId"`
	Status    string          `json:"status"`
	RawText   string          `json:"rawText"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
