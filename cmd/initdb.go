package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newInitDBCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create or migrate the karma store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Opening the store applies pending migrations.
			return withApp(v, cmd, nil, func(app *app) error {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "karma store ready: %s (%s)\n", app.cfg.Store.Path, app.cfg.Store.Backend)
				return err
			})
		},
	}
}
