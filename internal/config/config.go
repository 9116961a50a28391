package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"syncwatch/internal/logger"
	"syncwatch/internal/model"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	LogLevel       string        `mapstructure:"log_level"`
	Checksum       bool          `mapstructure:"checksum"`
	Progress       bool          `mapstructure:"progress"`
	Poll           bool          `mapstructure:"poll"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	Exclude        string        `mapstructure:"exclude"`
	IgnoreList     []string      `mapstructure:"ignore_list"`
	BufferSize     int           `mapstructure:"buffer_size"`
	RsyncPath      string        `mapstructure:"rsync_path"`
	Delete         bool          `mapstructure:"delete"`
	StrictBaseline bool          `mapstructure:"strict_baseline"`
	DBPath         string        `mapstructure:"db_path"`
	StatusAddr     string        `mapstructure:"status_addr"`
}

var Default = Config{
	LogLevel:     "INFO",
	PollInterval: time.Second,
	IgnoreList:   []string{},
	BufferSize:   100,
	RsyncPath:    "rsync",
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	return filepath.Join(home, ".syncwatch"), nil
}

// Load resolves defaults, then the config file, then SYNCWATCH_* env vars,
// then whatever flags were bound to v. An explicit file must exist; the
// default ~/.syncwatch/config.yaml is optional.
func Load(v *viper.Viper, file string) (*Config, error) {
	v.SetDefault("log_level", Default.LogLevel)
	v.SetDefault("checksum", Default.Checksum)
	v.SetDefault("progress", Default.Progress)
	v.SetDefault("poll", Default.Poll)
	v.SetDefault("poll_interval", Default.PollInterval)
	v.SetDefault("exclude", Default.Exclude)
	v.SetDefault("ignore_list", Default.IgnoreList)
	v.SetDefault("buffer_size", Default.BufferSize)
	v.SetDefault("rsync_path", Default.RsyncPath)
	v.SetDefault("delete", Default.Delete)
	v.SetDefault("strict_baseline", Default.StrictBaseline)
	v.SetDefault("db_path", Default.DBPath)
	v.SetDefault("status_addr", Default.StatusAddr)

	v.SetEnvPrefix("SYNCWATCH")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok || file != "" {
			return nil, fmt.Errorf("%w: failed to read config file: %w", ErrInvalid, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", ErrInvalid, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer_size must be positive, got %d", ErrInvalid, c.BufferSize)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll_interval must be positive, got %s", ErrInvalid, c.PollInterval)
	}
	if c.Exclude != "" {
		if _, err := regexp.Compile(c.Exclude); err != nil {
			return fmt.Errorf("%w: invalid exclude pattern: %w", ErrInvalid, err)
		}
	}
	for _, pattern := range c.IgnoreList {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("%w: invalid ignore pattern %q: %w", ErrInvalid, pattern, err)
		}
	}

	return nil
}

func (c *Config) Level() zapcore.Level {
	level, _ := logger.ParseLevel(c.LogLevel)
	return level
}

// WatchSpec freezes the settings that concern one SOURCE → DESTINATION
// pair into the value handed to the sync components.
func (c *Config) WatchSpec(src, dst string) (model.WatchSpec, error) {
	spec, err := model.NewWatchSpec(src, dst)
	if err != nil {
		return model.WatchSpec{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	if c.Exclude != "" {
		re, err := regexp.Compile(c.Exclude)
		if err != nil {
			return model.WatchSpec{}, fmt.Errorf("%w: invalid exclude pattern: %w", ErrInvalid, err)
		}
		spec.Exclude = re
	}

	spec.IgnoreList = slices.Clone(c.IgnoreList)
	spec.UseChecksum = c.Checksum
	spec.Poll = c.Poll
	spec.PollInterval = c.PollInterval
	spec.Transfer = model.TransferOptions{
		Progress: c.Progress,
		Delete:   c.Delete,
	}

	return spec, nil
}
