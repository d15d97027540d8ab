package application

import (
	"time"

	"github.com/bnema/kbtrain/internal/domain"
)

const DefaultTrainingCommand = "/train"

// Policy holds the tunables of the training trigger. The four windows are
// independent of each other.
type Policy struct {
	IdleThreshold   time.Duration
	CheckCooldown   time.Duration
	StaleAfter      time.Duration
	TriggerCooldown time.Duration
	TrainingCommand string
	FallbackTokens  int64
	RequestTimeout  time.Duration
	WalletTimeout   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		IdleThreshold:   60 * time.Minute,
		CheckCooldown:   15 * time.Minute,
		StaleAfter:      500 * time.Minute,
		TriggerCooldown: 60 * time.Minute,
		TrainingCommand: DefaultTrainingCommand,
		FallbackTokens:  domain.DefaultFallbackTokens,
		RequestTimeout:  30 * time.Second,
		WalletTimeout:   10 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	defaults := DefaultPolicy()
	if p.IdleThreshold <= 0 {
		p.IdleThreshold = defaults.IdleThreshold
	}
	if p.CheckCooldown <= 0 {
		p.CheckCooldown = defaults.CheckCooldown
	}
	if p.StaleAfter <= 0 {
		p.StaleAfter = defaults.StaleAfter
	}
	if p.TriggerCooldown <= 0 {
		p.TriggerCooldown = defaults.TriggerCooldown
	}
	if p.TrainingCommand == "" {
		p.TrainingCommand = defaults.TrainingCommand
	}
	if p.FallbackTokens <= 0 {
		p.FallbackTokens = defaults.FallbackTokens
	}
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = defaults.RequestTimeout
	}
	if p.WalletTimeout <= 0 {
		p.WalletTimeout = defaults.WalletTimeout
	}

	return p
}
