package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Engine   EngineConfig `mapstructure:"engine"`
	Audio    AudioConfig  `mapstructure:"audio"`
	LogLevel string       `mapstructure:"log_level"`
}

type EngineConfig struct {
	Workers           int    `mapstructure:"workers"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
	ShutdownGraceMs   int    `mapstructure:"shutdown_grace_ms"`
	Voice             string `mapstructure:"voice"`
}

type AudioConfig struct {
	SampleRate int  `mapstructure:"sample_rate"`
	Normalize  bool `mapstructure:"normalize"`
	FadeMs     int  `mapstructure:"fade_ms"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Workers:           2,
			RequestTimeoutSec: 0,
			ShutdownGraceMs:   1000,
			Voice:             "",
		},
		Audio: AudioConfig{
			SampleRate: 24000,
			Normalize:  false,
			FadeMs:     5,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.Int("engine-workers", defaults.Engine.Workers, "Max concurrently running synthesis jobs")
	fs.Int("workers", defaults.Engine.Workers, "Max concurrently running synthesis jobs (alias for --engine-workers)")
	fs.Int("engine-request-timeout-sec", defaults.Engine.RequestTimeoutSec, "Per-job deadline in seconds, 0 disables")
	fs.Int("engine-shutdown-grace-ms", defaults.Engine.ShutdownGraceMs, "How long shutdown waits for running jobs, in milliseconds")
	fs.String("engine-voice", defaults.Engine.Voice, "Default voice label or style id")
	fs.Int("audio-sample-rate", defaults.Audio.SampleRate, "Output sample rate in Hz")
	fs.Bool("audio-normalize", defaults.Audio.Normalize, "Peak-normalize rendered audio")
	fs.Int("audio-fade-ms", defaults.Audio.FadeMs, "Fade in/out length in milliseconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("VVDEMO")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("voicevoxdemo")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("engine.workers", c.Engine.Workers)
	v.SetDefault("engine.request_timeout_sec", c.Engine.RequestTimeoutSec)
	v.SetDefault("engine.shutdown_grace_ms", c.Engine.ShutdownGraceMs)
	v.SetDefault("engine.voice", c.Engine.Voice)
	v.SetDefault("audio.sample_rate", c.Audio.SampleRate)
	v.SetDefault("audio.normalize", c.Audio.Normalize)
	v.SetDefault("audio.fade_ms", c.Audio.FadeMs)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("engine.workers", "engine-workers")
	v.RegisterAlias("engine.workers", "workers")
	v.RegisterAlias("engine.request_timeout_sec", "engine-request-timeout-sec")
	v.RegisterAlias("engine.shutdown_grace_ms", "engine-shutdown-grace-ms")
	v.RegisterAlias("engine.voice", "engine-voice")
	v.RegisterAlias("audio.sample_rate", "audio-sample-rate")
	v.RegisterAlias("audio.normalize", "audio-normalize")
	v.RegisterAlias("audio.fade_ms", "audio-fade-ms")
	v.RegisterAlias("log_level", "log-level")
}
