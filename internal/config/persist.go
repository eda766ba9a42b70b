package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"toomuchleft/internal/domain"
)

const (
	configDirName  = "toomuchleft"
	configFileName = "config.yaml"
	envPrefix      = "TOOMUCHLEFT"
)

func DefaultConfig() Config {
	return Config{
		Path:      ".",
		Workers:   0,
		SafeMode:  true,
		Theme:     "dark",
		SortMode:  domain.SortByExt,
		Compare:   string(domain.GreaterOrEqual),
		Threshold: "unlimited",
		Log: LogConfig{
			Level:  "info",
			Output: "console",
			Dir:    defaultLogDir(),
		},
	}
}

func ConfigPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

func defaultLogDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), configDirName, "logs")
	}
	return filepath.Join(base, configDirName, "logs")
}

// Load layers defaults, the YAML file, TOOMUCHLEFT_* environment variables and
// any flags in flags that were set. An empty path means the default location,
// where a missing file is not an error.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	defaults := DefaultConfig()
	setDefaults(v, defaults)

	explicit := path != ""
	if !explicit {
		if defaultPath, err := ConfigPath(); err == nil {
			path = defaultPath
		}
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindFlags(v, flags); err != nil {
		return defaults, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
			if explicit || !missing {
				return defaults, &domain.ConfigError{Field: "config", Value: path, Err: err}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return defaults, &domain.ConfigError{Field: "config", Value: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, defaults Config) {
	v.SetDefault("path", defaults.Path)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("safe_mode", defaults.SafeMode)
	v.SetDefault("theme", defaults.Theme)
	v.SetDefault("sort", string(defaults.SortMode))
	v.SetDefault("compare", defaults.Compare)
	v.SetDefault("threshold", defaults.Threshold)
	v.SetDefault("include", []string{})
	v.SetDefault("exclude", []string{})
	v.SetDefault("protected", []string{})
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.output", defaults.Log.Output)
	v.SetDefault("log.dir", defaults.Log.Dir)
}

// Save writes cfg as YAML under an exclusive lock on path + ".lock".
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()
	return atomicWrite(path, data)
}

func atomicWrite(path string, data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(path), ".config-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := temp.Name()
	defer func() {
		if temp != nil {
			temp.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := temp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := temp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	temp = nil
	return nil
}
