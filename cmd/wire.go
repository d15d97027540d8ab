package cmd

import (
	"fmt"
	"io"
	"net/http"
	"time"

	authadapter "github.com/bnema/kbtrain/internal/adapters/auth"
	statusadapter "github.com/bnema/kbtrain/internal/adapters/render/status"
	tomlrepo "github.com/bnema/kbtrain/internal/adapters/repo/toml"
	chainstore "github.com/bnema/kbtrain/internal/adapters/secrets/chain"
	filestore "github.com/bnema/kbtrain/internal/adapters/secrets/file"
	passstore "github.com/bnema/kbtrain/internal/adapters/secrets/pass"
	"github.com/bnema/kbtrain/internal/adapters/signals"
	walletadapter "github.com/bnema/kbtrain/internal/adapters/wallet"
	"github.com/bnema/kbtrain/internal/application"
	"github.com/bnema/kbtrain/internal/config"
	"github.com/bnema/kbtrain/internal/logging"
	"github.com/bnema/kbtrain/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const loginTimeout = 5 * time.Minute

type app struct {
	cfg            config.Config
	logger         *zap.Logger
	clock          ports.Clock
	httpClient     *http.Client
	secretStore    ports.SecretStore
	identity       *authadapter.Provider
	service        *application.Service
	usageLedger    *tomlrepo.UsageLedger
	gate           *application.Gate
	dispatcher     *application.Dispatcher
	sweeper        *application.Sweeper
	statusService  *application.StatusService
	watcher        *application.Watcher
	signals        *signals.DirectorySource
	statusRenderer func(application.Status, statusadapter.RenderOptions) (string, error)
	browserLogin   authadapter.LoginConfig
}

type rootOptions struct {
	configFile string
	logLevel   string
}

func wireApp(opts rootOptions, logOutput io.Writer) (*app, error) {
	v := viper.New()
	cfg, err := config.Load(v, opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	logger, err := logging.New(level, cfg.Log.Format, logOutput)
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	secretStore, err := newSecretStore(cfg, logger.Named("secrets"))
	if err != nil {
		return nil, fmt.Errorf("wire secret store: %w", err)
	}

	agentRepo, err := tomlrepo.NewAgentRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire agent repository: %w", err)
	}
	timers, err := tomlrepo.NewTimerStore(v)
	if err != nil {
		return nil, fmt.Errorf("wire timer store: %w", err)
	}

	clock := ports.SystemClock{}
	usageLedger, err := tomlrepo.NewUsageLedger(v, clock)
	if err != nil {
		return nil, fmt.Errorf("wire usage ledger: %w", err)
	}

	httpClient := &http.Client{}
	identity := authadapter.NewProvider(secretStore, httpClient, clock, authadapter.ProviderConfig{
		Issuer:   cfg.Identity.Issuer,
		ClientID: cfg.Identity.ClientID,
		UserID:   cfg.Identity.UserID,
	}, logger.Named("identity"))

	wallets := []ports.Wallet{usageLedger}
	if cfg.Wallet.URL != "" {
		remote, err := walletadapter.NewHTTPWallet(cfg.Wallet.URL, httpClient, identity, clock, cfg.Wallet.Timeout, logger.Named("wallet"))
		if err != nil {
			return nil, fmt.Errorf("wire wallet: %w", err)
		}
		wallets = append(wallets, remote)
	}

	policy := cfg.Policy
	service := application.NewService(agentRepo, secretStore, clock, logger.Named("agents"))
	triggers := application.NewTriggerLedger(timers, policy, logger.Named("triggers"))
	evaluator := application.NewEvaluator(httpClient, identity, clock, policy, logger.Named("evaluator"))
	dispatcher := application.NewDispatcher(httpClient, identity, walletadapter.NewTee(wallets...), policy, logger.Named("dispatcher"))
	sweeper := application.NewSweeper(identity, service, evaluator, triggers, dispatcher, clock, logger.Named("sweeper"))
	gate := application.NewGate(timers, clock, policy, logger.Named("gate"))

	return &app{
		cfg:            cfg,
		logger:         logger,
		clock:          clock,
		httpClient:     httpClient,
		secretStore:    secretStore,
		identity:       identity,
		service:        service,
		usageLedger:    usageLedger,
		gate:           gate,
		dispatcher:     dispatcher,
		sweeper:        sweeper,
		statusService:  application.NewStatusService(identity, service, evaluator, triggers, usageLedger, clock, logger.Named("status")),
		watcher:        application.NewWatcher(gate, sweeper, identity, clock, logger.Named("watcher"), application.WithPollInterval(cfg.Watch.PollInterval)),
		signals:        signals.NewDirectorySource(cfg.Paths.Signals, logger.Named("signals")),
		statusRenderer: statusadapter.Render,
		browserLogin: authadapter.LoginConfig{
			Issuer:     cfg.Identity.Issuer,
			AuthURL:    cfg.Identity.AuthURL,
			ClientID:   cfg.Identity.ClientID,
			ListenAddr: cfg.Identity.ListenAddr,
			Scopes:     cfg.Identity.Scopes,
			Timeout:    loginTimeout,
		},
	}, nil
}

func newSecretStore(cfg config.Config, logger *zap.Logger) (ports.SecretStore, error) {
	switch cfg.Secrets.Backend {
	case config.SecretsBackendFile:
		return filestore.NewStore(cfg.Paths.Secrets), nil
	case config.SecretsBackendPass:
		return passstore.NewStore(), nil
	default:
		return chainstore.NewPassFirstWithFileFallback(cfg.Paths.Secrets, logger)
	}
}
