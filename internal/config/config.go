package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/kbtrain/internal/application"
	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "KBT"
	configName = "config"
	configType = "toml"
	stateDir   = ".kbtrain"
)

// Keys read from config.toml or KBT_* environment variables (dots become
// underscores, e.g. KBT_GATE_IDLE_THRESHOLD).
const (
	KeyIdleThreshold   = "gate.idle_threshold"
	KeyCheckCooldown   = "gate.check_cooldown"
	KeyStaleThreshold  = "staleness.threshold"
	KeyTriggerCooldown = "trigger.cooldown"
	KeyCommand         = "training.command"
	KeyFallbackTokens  = "training.fallback_tokens"
	KeyRequestTimeout  = "http.request_timeout"
	KeyWalletURL       = "wallet.url"
	KeyWalletTimeout   = "wallet.timeout"
	KeyIssuer          = "identity.issuer"
	KeyAuthURL         = "identity.auth_url"
	KeyClientID        = "identity.client_id"
	KeyUserID          = "identity.user_id"
	KeyScopes          = "identity.scopes"
	KeyListenAddr      = "identity.listen_addr"
	KeyAgentsPath      = "paths.agents"
	KeyTimersPath      = "paths.timers"
	KeyLedgerPath      = "paths.ledger"
	KeySecretsPath     = "paths.secrets"
	KeySecretsBackend  = "secrets.backend"
	KeySignalsPath     = "paths.signals"
	KeyPollInterval    = "watch.poll_interval"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
)

type Config struct {
	Policy   application.Policy
	Identity Identity
	Wallet   Wallet
	Paths    Paths
	Secrets  Secrets
	Watch    Watch
	Log      Log
	// File is the config file that was read, empty when none exists.
	File string
}

type Identity struct {
	Issuer     string
	AuthURL    string
	ClientID   string
	UserID     string
	Scopes     []string
	ListenAddr string
}

type Wallet struct {
	URL     string
	Timeout time.Duration
}

// Secret backends accepted by secrets.backend.
const (
	SecretsBackendAuto = "auto"
	SecretsBackendPass = "pass"
	SecretsBackendFile = "file"
)

type Paths struct {
	Agents  string
	Timers  string
	Ledger  string
	Secrets string
	Signals string
}

type Secrets struct {
	// Backend is auto (pass, falling back to files), pass or file.
	Backend string
}

type Watch struct {
	PollInterval time.Duration
}

type Log struct {
	Level  string
	Format string
}

// Load reads configuration into v and returns the resolved settings. v keeps
// the merged view so adapters can read their own keys from it. An explicit
// file must exist; the default ~/.kbtrain/config.toml is optional.
func Load(v *viper.Viper, explicitFile string) (Config, error) {
	if v == nil {
		return Config{}, errors.New("viper instance is required")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	root := filepath.Join(homeDir, stateDir)

	setDefaults(v, root)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicitFile != "" {
		v.SetConfigFile(explicitFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(root)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if explicitFile != "" || !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		Policy: application.Policy{
			IdleThreshold:   v.GetDuration(KeyIdleThreshold),
			CheckCooldown:   v.GetDuration(KeyCheckCooldown),
			StaleAfter:      v.GetDuration(KeyStaleThreshold),
			TriggerCooldown: v.GetDuration(KeyTriggerCooldown),
			TrainingCommand: v.GetString(KeyCommand),
			FallbackTokens:  v.GetInt64(KeyFallbackTokens),
			RequestTimeout:  v.GetDuration(KeyRequestTimeout),
			WalletTimeout:   v.GetDuration(KeyWalletTimeout),
		},
		Identity: Identity{
			Issuer:     strings.TrimRight(v.GetString(KeyIssuer), "/"),
			AuthURL:    v.GetString(KeyAuthURL),
			ClientID:   v.GetString(KeyClientID),
			UserID:     v.GetString(KeyUserID),
			Scopes:     v.GetStringSlice(KeyScopes),
			ListenAddr: v.GetString(KeyListenAddr),
		},
		Wallet: Wallet{
			URL:     v.GetString(KeyWalletURL),
			Timeout: v.GetDuration(KeyWalletTimeout),
		},
		Paths: Paths{
			Agents:  v.GetString(KeyAgentsPath),
			Timers:  v.GetString(KeyTimersPath),
			Ledger:  v.GetString(KeyLedgerPath),
			Secrets: v.GetString(KeySecretsPath),
			Signals: v.GetString(KeySignalsPath),
		},
		Secrets: Secrets{Backend: strings.ToLower(strings.TrimSpace(v.GetString(KeySecretsBackend)))},
		Watch:   Watch{PollInterval: v.GetDuration(KeyPollInterval)},
		Log: Log{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		File: v.ConfigFileUsed(),
	}
	if cfg.Identity.AuthURL == "" && cfg.Identity.Issuer != "" {
		cfg.Identity.AuthURL = cfg.Identity.Issuer + "/oauth/authorize"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, root string) {
	defaults := application.DefaultPolicy()

	v.SetDefault(KeyIdleThreshold, defaults.IdleThreshold)
	v.SetDefault(KeyCheckCooldown, defaults.CheckCooldown)
	v.SetDefault(KeyStaleThreshold, defaults.StaleAfter)
	v.SetDefault(KeyTriggerCooldown, defaults.TriggerCooldown)
	v.SetDefault(KeyCommand, defaults.TrainingCommand)
	v.SetDefault(KeyFallbackTokens, defaults.FallbackTokens)
	v.SetDefault(KeyRequestTimeout, defaults.RequestTimeout)
	v.SetDefault(KeyWalletURL, "")
	v.SetDefault(KeyWalletTimeout, defaults.WalletTimeout)
	v.SetDefault(KeyIssuer, "")
	v.SetDefault(KeyAuthURL, "")
	v.SetDefault(KeyClientID, "kbt")
	v.SetDefault(KeyUserID, "")
	v.SetDefault(KeyScopes, []string{"openid", "profile", "email", "offline_access"})
	v.SetDefault(KeyListenAddr, "127.0.0.1:1455")
	v.SetDefault(KeyAgentsPath, filepath.Join(root, "agents.toml"))
	v.SetDefault(KeyTimersPath, filepath.Join(root, "timers.toml"))
	v.SetDefault(KeyLedgerPath, filepath.Join(root, "usage.toml"))
	v.SetDefault(KeySecretsPath, filepath.Join(root, "secrets"))
	v.SetDefault(KeySecretsBackend, SecretsBackendAuto)
	v.SetDefault(KeySignalsPath, filepath.Join(root, "signals"))
	v.SetDefault(KeyPollInterval, time.Duration(0))
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

func (c Config) validate() error {
	var errs []error
	for key, value := range map[string]time.Duration{
		KeyIdleThreshold:   c.Policy.IdleThreshold,
		KeyCheckCooldown:   c.Policy.CheckCooldown,
		KeyStaleThreshold:  c.Policy.StaleAfter,
		KeyTriggerCooldown: c.Policy.TriggerCooldown,
	} {
		if value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", key))
		}
	}
	if c.Watch.PollInterval < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyPollInterval))
	}
	switch c.Secrets.Backend {
	case SecretsBackendAuto, SecretsBackendPass, SecretsBackendFile:
	default:
		errs = append(errs, fmt.Errorf("%s must be one of auto, pass, file; got %q", KeySecretsBackend, c.Secrets.Backend))
	}
	if c.Policy.FallbackTokens < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyFallbackTokens))
	}

	return errors.Join(errs...)
}
