// Package config loads karmabot settings from the config file, KARMABOT_*
// environment variables and bound command flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/karmabot/internal/domain"
)

const (
	appName    = "karmabot"
	configName = "config"
	configType = "toml"
	envPrefix  = "KARMABOT"

	BackendSQLite = "sqlite"
	BackendTOML   = "toml"
)

// Keys shared with flag bindings.
const (
	KeyServerHost     = "server.host"
	KeyServerPort     = "server.port"
	KeyServerTLS      = "server.tls"
	KeyServerPassword = "server.password"
	KeyPasswordRef    = "server.password_ref"
	KeyBotNick        = "bot.nick"
	KeyBotUser        = "bot.user"
	KeyBotRealName    = "bot.realname"
	KeyBotChannels    = "bot.channels"
	KeyBotTrigger     = "bot.trigger"
	KeyDenySelf       = "karma.deny_self"
	KeyPrivate        = "karma.private"
	KeyDisabled       = "karma.disabled_channels"
	KeyRankingSize    = "karma.ranking_size"
	KeyStoreBackend   = "store.backend"
	KeyStorePath      = "store.path"
	KeyIdleTimeout    = "session.idle_timeout"
	KeyHandshake      = "session.handshake_timeout"
	KeyReconnectInit  = "reconnect.initial"
	KeyReconnectMax   = "reconnect.max"
	KeyReconnectMult  = "reconnect.multiplier"
	KeyReconnectJit   = "reconnect.jitter"
	KeyMinUptime      = "reconnect.min_uptime"
	KeyMaxAttempts    = "reconnect.max_attempts"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyMetricsListen  = "metrics.listen"
)

type Config struct {
	Server    ServerConfig
	Bot       BotConfig
	Karma     KarmaConfig
	Store     StoreConfig
	Session   SessionConfig
	Reconnect ReconnectConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Host     string
	Port     int
	TLS      bool
	Password string
	// PasswordRef names a secret in pass or under SecretsDir that holds
	// the server password.
	PasswordRef string
}

type BotConfig struct {
	Nick     string
	User     string
	RealName string
	Channels []string
	Trigger  string
}

type KarmaConfig struct {
	DenySelf         bool
	Private          bool
	DisabledChannels []string
	RankingSize      int
}

type StoreConfig struct {
	Backend string
	Path    string
}

type SessionConfig struct {
	IdleTimeout      time.Duration
	HandshakeTimeout time.Duration
}

type ReconnectConfig struct {
	Initial     time.Duration
	Max         time.Duration
	Multiplier  float64
	Jitter      float64
	MinUptime   time.Duration
	MaxAttempts int
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Listen string
}

// New returns a viper instance with karmabot defaults, the config search
// path and environment binding applied. The file is not read yet.
func New() *viper.Viper {
	v := viper.New()

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyServerHost, "")
	v.SetDefault(KeyServerPort, 6667)
	v.SetDefault(KeyServerTLS, false)
	v.SetDefault(KeyServerPassword, "")
	v.SetDefault(KeyPasswordRef, "")
	v.SetDefault(KeyBotNick, "KarmaBot")
	v.SetDefault(KeyBotUser, "kbot")
	v.SetDefault(KeyBotRealName, "KarmaBot")
	v.SetDefault(KeyBotChannels, []string{})
	v.SetDefault(KeyBotTrigger, "")
	v.SetDefault(KeyDenySelf, false)
	v.SetDefault(KeyPrivate, false)
	v.SetDefault(KeyDisabled, []string{})
	v.SetDefault(KeyRankingSize, 3)
	v.SetDefault(KeyStoreBackend, BackendSQLite)
	v.SetDefault(KeyStorePath, "")
	v.SetDefault(KeyIdleTimeout, 5*time.Minute)
	v.SetDefault(KeyHandshake, 30*time.Second)
	v.SetDefault(KeyReconnectInit, time.Second)
	v.SetDefault(KeyReconnectMax, time.Minute)
	v.SetDefault(KeyReconnectMult, 2.0)
	v.SetDefault(KeyReconnectJit, 0.1)
	v.SetDefault(KeyMinUptime, 30*time.Second)
	v.SetDefault(KeyMaxAttempts, 0)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyMetricsListen, "")

	return v
}

// ReadFile reads the config file if one exists. A missing file is not an
// error.
func ReadFile(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("%w: read config file: %w", domain.ErrFatalConfig, err)
}

// Load decodes and validates v. Server settings are checked separately by
// Config.RequireServer since offline commands do not need them.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:        strings.TrimSpace(v.GetString(KeyServerHost)),
			Port:        v.GetInt(KeyServerPort),
			TLS:         v.GetBool(KeyServerTLS),
			Password:    v.GetString(KeyServerPassword),
			PasswordRef: strings.TrimSpace(v.GetString(KeyPasswordRef)),
		},
		Bot: BotConfig{
			Nick:     strings.TrimSpace(v.GetString(KeyBotNick)),
			User:     strings.TrimSpace(v.GetString(KeyBotUser)),
			RealName: v.GetString(KeyBotRealName),
			Channels: cleanList(v.GetStringSlice(KeyBotChannels)),
			Trigger:  strings.TrimSpace(v.GetString(KeyBotTrigger)),
		},
		Karma: KarmaConfig{
			DenySelf:         v.GetBool(KeyDenySelf),
			Private:          v.GetBool(KeyPrivate),
			DisabledChannels: cleanList(v.GetStringSlice(KeyDisabled)),
			RankingSize:      v.GetInt(KeyRankingSize),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(strings.TrimSpace(v.GetString(KeyStoreBackend))),
			Path:    strings.TrimSpace(v.GetString(KeyStorePath)),
		},
		Session: SessionConfig{
			IdleTimeout:      v.GetDuration(KeyIdleTimeout),
			HandshakeTimeout: v.GetDuration(KeyHandshake),
		},
		Reconnect: ReconnectConfig{
			Initial:     v.GetDuration(KeyReconnectInit),
			Max:         v.GetDuration(KeyReconnectMax),
			Multiplier:  v.GetFloat64(KeyReconnectMult),
			Jitter:      v.GetFloat64(KeyReconnectJit),
			MinUptime:   v.GetDuration(KeyMinUptime),
			MaxAttempts: v.GetInt(KeyMaxAttempts),
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Metrics: MetricsConfig{
			Listen: strings.TrimSpace(v.GetString(KeyMetricsListen)),
		},
	}

	if cfg.Bot.Trigger == "" {
		cfg.Bot.Trigger = "." + strings.ToLower(cfg.Bot.Nick)
	}

	if cfg.Store.Path == "" {
		path, err := defaultStorePath(cfg.Store.Backend)
		if err != nil {
			return Config{}, fatal("%v", err)
		}
		cfg.Store.Path = path
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.Bot.Nick == "" || strings.ContainsAny(c.Bot.Nick, " ,*?!@:"):
		return fatal("invalid nick %q", c.Bot.Nick)
	case c.Bot.User == "" || strings.ContainsAny(c.Bot.User, " @"):
		return fatal("invalid user name %q", c.Bot.User)
	case c.Server.Password != "" && c.Server.PasswordRef != "":
		return fatal("set server.password or server.password_ref, not both")
	case c.Server.Port < 1 || c.Server.Port > 65535:
		return fatal("server port %d out of range", c.Server.Port)
	case c.Karma.RankingSize < 1:
		return fatal("karma.ranking_size must be at least 1, got %d", c.Karma.RankingSize)
	case c.Store.Backend != BackendSQLite && c.Store.Backend != BackendTOML:
		return fatal("unknown store backend %q (want %s or %s)", c.Store.Backend, BackendSQLite, BackendTOML)
	case c.Session.IdleTimeout <= 0 || c.Session.HandshakeTimeout <= 0:
		return fatal("session timeouts must be positive")
	case c.Reconnect.Initial <= 0 || c.Reconnect.Max < c.Reconnect.Initial:
		return fatal("reconnect.initial must be positive and not exceed reconnect.max")
	case c.Reconnect.Multiplier < 1:
		return fatal("reconnect.multiplier must be at least 1, got %v", c.Reconnect.Multiplier)
	case c.Reconnect.Jitter < 0 || c.Reconnect.Jitter >= 1:
		return fatal("reconnect.jitter must be in [0, 1), got %v", c.Reconnect.Jitter)
	case c.Reconnect.MaxAttempts < 0:
		return fatal("reconnect.max_attempts must not be negative")
	}

	for _, channel := range append(append([]string{}, c.Bot.Channels...), c.Karma.DisabledChannels...) {
		if !isChannelName(channel) {
			return fatal("invalid channel name %q", channel)
		}
	}

	return nil
}

// RequireServer checks the settings needed to connect.
func (c Config) RequireServer() error {
	if c.Server.Host == "" {
		return fatal("server host is required")
	}
	if strings.ContainsAny(c.Server.Host, " /") {
		return fatal("invalid server host %q", c.Server.Host)
	}
	return nil
}

// ConfigDir is $XDG_CONFIG_HOME/karmabot, falling back to ~/.config.
func ConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// SecretsDir holds file secrets named by server.password_ref.
func SecretsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "secrets"), nil
}

// DataDir is $XDG_DATA_HOME/karmabot, falling back to ~/.local/share.
func DataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

func defaultStorePath(backend string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if backend == BackendTOML {
		return filepath.Join(dir, "karma.toml"), nil
	}
	return filepath.Join(dir, "karma.db"), nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func isChannelName(name string) bool {
	if len(name) < 2 || strings.ContainsAny(name, " ,\x07") {
		return false
	}
	switch name[0] {
	case '#', '&', '+', '!':
		return true
	}
	return false
}

func fatal(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domain.ErrFatalConfig}, args...)...)
}
