package domain

import "errors"

var (
	ErrAgentNotFound       = errors.New("agent not found")
	ErrSecretNotFound      = errors.New("secret not found")
	ErrInvalidSecretRef    = errors.New("invalid secret reference")
	ErrIdentityUnavailable = errors.New("identity unavailable")
	ErrTimestampsFetch     = errors.New("fetch training timestamps")
	ErrDispatch            = errors.New("dispatch training command")
	ErrSweepInProgress     = errors.New("sweep already in progress")
	ErrUnknownSignal       = errors.New("unknown signal")
	ErrInvalidKeyTarget    = errors.New("invalid key target")
	ErrInvalidAgent        = errors.New("invalid agent")
)
