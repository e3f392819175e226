package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/karmabot/internal/adapters/render/leaderboard"
	sqliterepo "github.com/bnema/karmabot/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/karmabot/internal/adapters/repo/toml"
	"github.com/bnema/karmabot/internal/adapters/secrets/chain"
	"github.com/bnema/karmabot/internal/adapters/telemetry"
	"github.com/bnema/karmabot/internal/application"
	"github.com/bnema/karmabot/internal/config"
	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/irc"
	"github.com/bnema/karmabot/internal/ports"
)

type app struct {
	cfg                 config.Config
	logger              *slog.Logger
	repo                ports.KarmaRepository
	closeRepo           func() error
	leaderboardRenderer func([]domain.KarmaRecord, leaderboard.RenderOptions) (string, error)
	now                 func() time.Time
}

// loadConfig decodes the config after flag binding. bindings maps viper
// keys to flags of cmd.
func loadConfig(v *viper.Viper, cmd *cobra.Command, bindings map[string]string) (config.Config, error) {
	for key, name := range bindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return config.Config{}, fmt.Errorf("bind flag --%s: %w", name, err)
		}
	}
	return config.Load(v)
}

func loggerFor(cmd *cobra.Command, cfg config.Config) (*slog.Logger, error) {
	logger, err := telemetry.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFatalConfig, err)
	}
	return logger, nil
}

func wireApp(cmd *cobra.Command, cfg config.Config) (*app, error) {
	logger, err := loggerFor(cmd, cfg)
	if err != nil {
		return nil, err
	}

	repo, closeRepo, err := openRepository(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("wire karma repository: %w", err)
	}

	return &app{
		cfg:                 cfg,
		logger:              logger,
		repo:                repo,
		closeRepo:           closeRepo,
		leaderboardRenderer: leaderboard.Render,
		now:                 time.Now,
	}, nil
}

func (a *app) Close() error {
	if a.closeRepo == nil {
		return nil
	}
	return a.closeRepo()
}

// resolveServerPassword replaces server.password_ref with the secret it
// names, looked up in pass first and then under config.SecretsDir.
func (a *app) resolveServerPassword(ctx context.Context) error {
	ref := a.cfg.Server.PasswordRef
	if ref == "" {
		return nil
	}

	dir, err := config.SecretsDir()
	if err != nil {
		return err
	}
	source, err := chain.NewPassFirstWithFileFallback(dir)
	if err != nil {
		return err
	}

	password, err := source.Get(ctx, ref)
	if err != nil {
		return fmt.Errorf("%w: resolve server.password_ref: %w", domain.ErrFatalConfig, err)
	}
	if password == "" {
		return fmt.Errorf("%w: secret %q is empty", domain.ErrFatalConfig, ref)
	}
	a.cfg.Server.Password = password
	return nil
}

func (a *app) karmaService(sink ports.Telemetry) *application.KarmaService {
	return application.NewKarmaService(a.repo, ports.SystemClock{}, sink)
}

func (a *app) dispatcher(store application.KarmaStore, sink ports.Telemetry) *application.Dispatcher {
	return application.NewDispatcher(store, application.DispatcherOptions{
		Trigger: a.cfg.Bot.Trigger,
		Policy: application.Policy{
			DenySelf:         a.cfg.Karma.DenySelf,
			AllowPrivate:     a.cfg.Karma.Private,
			DisabledChannels: a.cfg.Karma.DisabledChannels,
			RankingSize:      a.cfg.Karma.RankingSize,
		},
		Telemetry: sink,
		Logger:    a.logger,
	})
}

func (a *app) dialer() irc.Dialer {
	return irc.Dialer{
		Host: a.cfg.Server.Host,
		Port: a.cfg.Server.Port,
		TLS:  a.cfg.Server.TLS,
	}
}

func (a *app) sessionConfig() application.SessionConfig {
	return application.SessionConfig{
		Nick:             a.cfg.Bot.Nick,
		User:             a.cfg.Bot.User,
		RealName:         a.cfg.Bot.RealName,
		Password:         a.cfg.Server.Password,
		Channels:         a.cfg.Bot.Channels,
		IdleTimeout:      a.cfg.Session.IdleTimeout,
		HandshakeTimeout: a.cfg.Session.HandshakeTimeout,
	}
}

func (a *app) reconnectPolicy() application.ReconnectPolicy {
	return application.ReconnectPolicy{
		Initial:     a.cfg.Reconnect.Initial,
		Max:         a.cfg.Reconnect.Max,
		Multiplier:  a.cfg.Reconnect.Multiplier,
		Jitter:      a.cfg.Reconnect.Jitter,
		MinUptime:   a.cfg.Reconnect.MinUptime,
		MaxAttempts: a.cfg.Reconnect.MaxAttempts,
	}
}

func openRepository(ctx context.Context, store config.StoreConfig) (ports.KarmaRepository, func() error, error) {
	switch store.Backend {
	case config.BackendTOML:
		repo, err := tomlrepo.NewRepository(store.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.Init(ctx); err != nil {
			return nil, nil, err
		}
		return repo, func() error { return nil }, nil
	case config.BackendSQLite:
		repo, err := sqliterepo.Open(ctx, store.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrFatalConfig, store.Backend)
	}
}

func withApp(v *viper.Viper, cmd *cobra.Command, bindings map[string]string, fn func(*app) error) error {
	cfg, err := loadConfig(v, cmd, bindings)
	if err != nil {
		return err
	}

	app, err := wireApp(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := app.Close(); closeErr != nil {
			app.logger.Warn("closing karma store", slog.Any("error", closeErr))
		}
	}()

	return fn(app)
}
