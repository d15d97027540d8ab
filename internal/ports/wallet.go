package ports

import (
	"context"

	"github.com/bnema/kbtrain/internal/domain"
)

type Wallet interface {
	RecordUsage(ctx context.Context, userID string, usage domain.UsageRecord) error
}

type UsageTotals interface {
	TotalsByAgent(ctx context.Context, userID string) (map[domain.AgentID]int64, error)
}
