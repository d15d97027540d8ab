package toml

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bnema/kbtrain/internal/domain"
	"github.com/bnema/kbtrain/internal/ports"
	"github.com/spf13/viper"
)

const (
	LedgerPathKey  = "paths.ledger"
	ledgerFileName = "usage.toml"
	ledgerLabel    = "usage"
)

// UsageLedger is the local append-only record of training charges. It
// serves as the wallet when no remote wallet is configured and always backs
// the totals shown by status.
type UsageLedger struct {
	ledgerPath string
	clock      ports.Clock
	mu         *sync.RWMutex
}

type LedgerEntry struct {
	UserID     string
	Usage      domain.UsageRecord
	RecordedAt time.Time
}

var (
	_ ports.Wallet      = (*UsageLedger)(nil)
	_ ports.UsageTotals = (*UsageLedger)(nil)
)

func NewUsageLedger(cfg *viper.Viper, clock ports.Clock) (*UsageLedger, error) {
	path, err := resolveStatePath(cfg, LedgerPathKey, ledgerFileName)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &UsageLedger{ledgerPath: path, clock: clock, mu: lockForPath(path)}, nil
}

func (l *UsageLedger) RecordUsage(ctx context.Context, userID string, usage domain.UsageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if userID == "" {
		return errors.New("user id is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := l.readSchema()
	if err != nil {
		return err
	}

	file.Entries = append(file.Entries, usageEntrySchema{
		UserID:           userID,
		AgentID:          string(usage.AgentID),
		PromptTokens:     usage.PromptTokenCount,
		CandidatesTokens: usage.CandidatesTokenCount,
		TotalTokens:      usage.TotalTokenCount,
		Estimated:        usage.Estimated,
		RecordedAt:       formatTime(l.clock.Now()),
	})

	return writeTOMLFile(l.ledgerPath, ledgerLabel, file)
}

func (l *UsageLedger) TotalsByAgent(ctx context.Context, userID string) (map[domain.AgentID]int64, error) {
	entries, err := l.Entries(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := make(map[domain.AgentID]int64)
	for _, entry := range entries {
		totals[entry.Usage.AgentID] += entry.Usage.TotalTokenCount
	}

	return totals, nil
}

// Entries returns userID's charges in recording order.
func (l *UsageLedger) Entries(ctx context.Context, userID string) ([]LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	file, err := l.readSchema()
	if err != nil {
		return nil, err
	}

	entries := make([]LedgerEntry, 0, len(file.Entries))
	for _, entry := range file.Entries {
		if entry.UserID != userID {
			continue
		}
		entries = append(entries, LedgerEntry{
			UserID: entry.UserID,
			Usage: domain.UsageRecord{
				AgentID:              domain.AgentID(entry.AgentID),
				PromptTokenCount:     entry.PromptTokens,
				CandidatesTokenCount: entry.CandidatesTokens,
				TotalTokenCount:      entry.TotalTokens,
				Estimated:            entry.Estimated,
			},
			RecordedAt: parseTime(entry.RecordedAt),
		})
	}

	return entries, nil
}

func (l *UsageLedger) readSchema() (usageFileSchema, error) {
	var file usageFileSchema
	if err := readTOMLFile(l.ledgerPath, ledgerLabel, &file); err != nil {
		return usageFileSchema{}, err
	}
	if err := validateVersion(ledgerLabel, file.Version); err != nil {
		return usageFileSchema{}, err
	}
	file.Version = withDefaultVersion(file.Version)

	return file, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
