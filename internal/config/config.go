package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "TODO"

type Config struct {
	Addr            string        `mapstructure:"addr"`
	DataDir         string        `mapstructure:"data_dir"`
	DBFile          string        `mapstructure:"db_file"`
	SecretKey       string        `mapstructure:"secret_key"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Log             LogConfig     `mapstructure:"log"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	File        string `mapstructure:"file"`
	Development bool   `mapstructure:"development"`
}

// DBPath is the SQLite file inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBFile)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("data_dir", "data")
	v.SetDefault("db_file", "todo.db")
	v.SetDefault("secret_key", "8BYkEfBA6O6donzWlSihBXox7C0sKR6b")
	v.SetDefault("read_timeout", 10*time.Second)
	v.SetDefault("write_timeout", 10*time.Second)
	v.SetDefault("shutdown_timeout", 15*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.development", false)
}

// Load merges defaults, the optional config file at path, TODO_* environment
// variables and any flags that were set explicitly, in that order.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if flags != nil {
		bind := map[string]string{
			"addr":      "addr",
			"data_dir":  "data-dir",
			"log.level": "log-level",
			"log.file":  "log-file",
		}
		for key, name := range bind {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.SecretKey == "" {
		return Config{}, errors.New("secret_key must not be empty")
	}
	return cfg, nil
}
