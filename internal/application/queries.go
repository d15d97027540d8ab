package application

import (
	"time"

	"github.com/bnema/kbtrain/internal/domain"
)

type AgentStatus struct {
	Agent     domain.Agent
	Staleness StalenessReport
	// CheckErr is set when the timestamps could not be fetched.
	CheckErr    error
	LastFiredAt *time.Time
	TokensSpent int64
}

type Status struct {
	UserID    string
	CheckedAt time.Time
	Agents    []AgentStatus
}
