package model

import (
	"time"

	"github.com/google/uuid"
)

// CollaborationOutcome records what actually happened after a match was
// pursued. Outcomes feed the learner only; they never mutate the match.
type CollaborationOutcome struct {
	ID             uuid.UUID `json:"outcome_id"`
	MatchID        uuid.UUID `json:"match_id"`
	Success        bool      `json:"success"`
	ActualTimeline string    `json:"actual_timeline,omitempty"`
	ActualCost     *float64  `json:"actual_cost,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
