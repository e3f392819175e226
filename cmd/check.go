package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/karmabot/internal/application"
	"github.com/bnema/karmabot/internal/config"
)

func newCheckCmd(v *viper.Viper) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "check [server]",
		Short: "Dial a server, complete registration and disconnect",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				v.Set(config.KeyServerHost, args[0])
			}
			cfg, err := loadConfig(v, cmd, connectFlagBindings)
			if err != nil {
				return err
			}
			if err := cfg.RequireServer(); err != nil {
				return err
			}
			return runCheck(cmd, cfg, quiet)
		},
	}

	addConnectFlags(cmd)
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not show progress while connecting")
	return cmd
}

func runCheck(cmd *cobra.Command, cfg config.Config, quiet bool) error {
	// No store is opened: a check never touches karma.
	logger, err := loggerFor(cmd, cfg)
	if err != nil {
		return err
	}
	bot := &app{cfg: cfg, logger: logger}
	if err := bot.resolveServerPassword(cmd.Context()); err != nil {
		return err
	}

	dialer := bot.dialer()
	sessionCfg := bot.sessionConfig()
	sessionCfg.Channels = nil

	var nick string
	handshake := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, cfg.Session.HandshakeTimeout+5*time.Second)
		defer cancel()

		conn, err := dialer.Dial(ctx)
		if err != nil {
			return err
		}
		session := application.NewSession(conn, nil, sessionCfg, application.SessionOptions{Logger: bot.logger})
		defer session.Close("karmabot check")

		if err := session.Register(ctx); err != nil {
			return err
		}
		nick = session.Nick()
		return nil
	}

	if quiet {
		err = handshake(cmd.Context())
	} else {
		err = runHandshakeSpinner(cmd.Context(), cmd.ErrOrStderr(), "Connecting to "+dialer.Address()+"...", handshake)
	}
	if err != nil {
		return fmt.Errorf("check %s: %w", dialer.Address(), err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "connected to %s as %s\n", dialer.Address(), nick)
	return err
}
