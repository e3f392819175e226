package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bnema/karmabot/internal/config"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "karmabot",
		Short:         "IRC karma bot",
		Long:          "karmabot joins IRC channels and keeps score: subject++ and subject-- adjust karma, '.karmabot karma <subject>' reports it.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configPath != "" {
				v.SetConfigFile(configPath)
			}
			return config.ReadFile(v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/karmabot/config.toml)")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("store-backend", config.BackendSQLite, "Karma store backend: sqlite or toml")
	flags.String("store-path", "", "Karma store location (default under $XDG_DATA_HOME/karmabot)")
	mustBind(v, rootCmd, map[string]string{
		config.KeyLogLevel:     "log-level",
		config.KeyLogFormat:    "log-format",
		config.KeyStoreBackend: "store-backend",
		config.KeyStorePath:    "store-path",
	}, true)

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(v),
		newCheckCmd(v),
		newInitDBCmd(v),
		newKarmaCmd(v),
		newTopCmd(v),
	)

	return rootCmd
}

// mustBind binds flags to viper keys. Flag names are fixed at build time,
// so a failed lookup is a programming error.
func mustBind(v *viper.Viper, cmd *cobra.Command, bindings map[string]string, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
}
