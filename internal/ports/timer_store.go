package ports

import "context"

// TimerStore is a durable string map. Key naming and value encoding stay with
// the caller.
type TimerStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Clear(ctx context.Context, key string) error
}
