package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/karmabot/internal/application"
	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports"
)

func newKarmaCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "karma <subject>",
		Short: "Print the karma of a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := domain.NormalizeSubject(strings.Join(args, " "))
			if err != nil {
				return err
			}

			return withApp(v, cmd, nil, func(app *app) error {
				score, found, err := app.karmaService(ports.NopTelemetry{}).Query(cmd.Context(), subject)
				if err != nil {
					return err
				}

				reply := domain.Reply{
					Command: domain.Command{Kind: domain.CommandQuery, Subject: subject},
					Score:   score,
					Found:   found,
				}
				for _, line := range (application.Formatter{Trigger: app.cfg.Bot.Trigger}).Format(reply) {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
