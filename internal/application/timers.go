package application

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/kbtrain/internal/ports"
)

const (
	timerKeyPrefix   = "kbtrain:"
	lastActiveAtKey  = timerKeyPrefix + "lastActiveAt"
	lastCheckAtKey   = timerKeyPrefix + "lastCheckAt"
	triggerKeyPrefix = timerKeyPrefix + "trigger:"
)

// readMillis loads a millisecond timestamp. Missing and malformed values both
// report ok=false.
func readMillis(ctx context.Context, store ports.TimerStore, key string) (time.Time, bool, error) {
	raw, found, err := store.Get(ctx, key)
	if err != nil {
		return time.Time{}, false, err
	}
	if !found {
		return time.Time{}, false, nil
	}

	millis, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || millis <= 0 {
		return time.Time{}, false, nil
	}

	return time.UnixMilli(millis), true, nil
}

func writeMillis(ctx context.Context, store ports.TimerStore, key string, at time.Time) error {
	return store.Set(ctx, key, strconv.FormatInt(at.UnixMilli(), 10))
}

// encodeKeyComponent percent-encodes like encodeURIComponent: everything but
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) is escaped and spaces become %20.
func encodeKeyComponent(raw string) string {
	escaped := url.QueryEscape(raw)
	return keyComponentUnescaper.Replace(escaped)
}

var keyComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
