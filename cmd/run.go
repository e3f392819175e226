package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/karmabot/internal/adapters/telemetry"
	"github.com/bnema/karmabot/internal/application"
	"github.com/bnema/karmabot/internal/config"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [server]",
		Short: "Connect to an IRC server and keep karma until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set(config.KeyServerHost, args[0])
			}
			return withApp(v, cmd, connectFlagBindings, func(app *app) error {
				if err := app.cfg.RequireServer(); err != nil {
					return err
				}
				if err := app.resolveServerPassword(cmd.Context()); err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return runBot(ctx, app)
			})
		},
	}

	addConnectFlags(cmd)
	return cmd
}

var connectFlagBindings = map[string]string{
	config.KeyServerPort:  "port",
	config.KeyServerTLS:   "tls",
	config.KeyBotNick:     "nick",
	config.KeyBotChannels: "channel",
}

func addConnectFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Int("port", 6667, "Server port")
	flags.Bool("tls", false, "Connect with TLS")
	flags.String("nick", "KarmaBot", "Bot nickname")
	flags.StringSlice("channel", nil, "Channel to join on connect (repeatable)")
}

func runBot(ctx context.Context, app *app) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := telemetry.NewMetrics(registry)
	if err != nil {
		return err
	}

	dialer := app.dialer()
	supervisor := application.NewSupervisor(dialer, app.dispatcher(app.karmaService(metrics), metrics), application.SupervisorOptions{
		Server:    dialer.Address(),
		Session:   app.sessionConfig(),
		Reconnect: app.reconnectPolicy(),
		Telemetry: metrics,
		Logger:    app.logger,
	})

	app.logger.Info("starting karmabot",
		slog.String("server", dialer.Address()),
		slog.String("nick", app.cfg.Bot.Nick),
		slog.Any("channels", app.cfg.Bot.Channels),
		slog.String("store", app.cfg.Store.Backend),
	)

	group, ctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(ctx)

	group.Go(func() error {
		// The metrics endpoint lives as long as the bot does.
		defer stopServing()
		return supervisor.Run(ctx)
	})
	if app.cfg.Metrics.Listen != "" {
		server := telemetry.NewServer(app.cfg.Metrics.Listen, registry, app.logger)
		group.Go(func() error {
			return server.Serve(serveCtx)
		})
	}

	err = group.Wait()
	stopServing()
	if err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error("karmabot terminated", slog.Any("error", err))
		return err
	}
	app.logger.Info("karmabot stopped")
	return nil
}
