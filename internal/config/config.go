package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	// SendBuffer is the number of frames queued per signaling connection
	// before the member counts as slow.
	SendBuffer   int           `mapstructure:"send_buffer"`
	JoinLimit    int           `mapstructure:"join_limit"`
	JoinInterval time.Duration `mapstructure:"join_interval"`
	STUNURLs     []string      `mapstructure:"stun_urls"`
	MetricsPath  string        `mapstructure:"metrics_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config_env", "dev")
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("join_limit", 5)
	v.SetDefault("join_interval", "10s")
	v.SetDefault("stun_urls", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("metrics_path", "/metrics")
}

// Flags returns the command line flags Load understands.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("conference", pflag.ContinueOnError)
	fs.String("config-env", "dev", "config file suffix, reads config/config.<env>.yaml")
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("mode", "release", "gin mode: debug, release or test")
	return fs
}

// Load reads config/config.<env>.yaml on top of the defaults. Flags that were
// set explicitly win over the file. CONFIG_ENV selects the file when the
// flag is absent.
func Load(args []string) (*Config, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	_ = v.BindEnv("config_env", "CONFIG_ENV")
	if err := v.BindPFlag("config_env", fs.Lookup("config-env")); err != nil {
		return nil, fmt.Errorf("bind config-env: %w", err)
	}
	if err := v.BindPFlag("port", fs.Lookup("port")); err != nil {
		return nil, fmt.Errorf("bind port: %w", err)
	}
	if err := v.BindPFlag("mode", fs.Lookup("mode")); err != nil {
		return nil, fmt.Errorf("bind mode: %w", err)
	}

	fileName := fmt.Sprintf("config/config.%s.yaml", v.GetString("config_env"))
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("config: send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.JoinLimit <= 0 || c.JoinInterval <= 0 {
		return fmt.Errorf("config: join_limit and join_interval must be positive")
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("config: ping_period must be positive")
	}
	return nil
}
