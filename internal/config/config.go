package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"toomuchleft/internal/domain"
	"toomuchleft/internal/sizeunit"
)

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Output string `mapstructure:"output" yaml:"output"`
	Dir    string `mapstructure:"dir" yaml:"dir"`
}

type Config struct {
	Path      string          `mapstructure:"path" yaml:"path"`
	Workers   int             `mapstructure:"workers" yaml:"workers"`
	SafeMode  bool            `mapstructure:"safe_mode" yaml:"safe_mode"`
	Theme     string          `mapstructure:"theme" yaml:"theme"`
	SortMode  domain.SortMode `mapstructure:"sort" yaml:"sort"`
	Compare   string          `mapstructure:"compare" yaml:"compare"`
	Threshold string          `mapstructure:"threshold" yaml:"threshold"`
	Include   []string        `mapstructure:"include" yaml:"include,omitempty"`
	Exclude   []string        `mapstructure:"exclude" yaml:"exclude,omitempty"`
	Protected []string        `mapstructure:"protected" yaml:"protected,omitempty"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// Keys lists every key accepted by Set, in display order.
var Keys = []string{
	"path", "workers", "safe_mode", "theme", "sort", "compare", "threshold",
	"include", "exclude", "protected", "log.level", "log.output", "log.dir",
}

var (
	themes     = []string{"dark", "light"}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logOutputs = []string{"console", "file", "both"}
)

// Validate reports the first invalid setting as a *domain.ConfigError.
func (cfg Config) Validate() error {
	if cfg.Workers < 0 {
		return invalid("workers", strconv.Itoa(cfg.Workers), errors.New("must not be negative"))
	}
	if err := oneOf("theme", cfg.Theme, themes); err != nil {
		return err
	}
	if err := oneOf("sort", string(cfg.SortMode), []string{string(domain.SortByExt), string(domain.SortBySize), string(domain.SortByPath)}); err != nil {
		return err
	}
	op, err := domain.ParseCompareOp(cfg.Compare)
	if err != nil {
		return err
	}
	if _, err := sizeunit.ParseFilter(op, cfg.Threshold); err != nil {
		return err
	}
	if err := oneOf("log.level", cfg.Log.Level, logLevels); err != nil {
		return err
	}
	return oneOf("log.output", cfg.Log.Output, logOutputs)
}

func (cfg Config) CompareOp() domain.CompareOp {
	op, err := domain.ParseCompareOp(cfg.Compare)
	if err != nil {
		return domain.GreaterOrEqual
	}
	return op
}

// Set assigns a single key from its string form and validates the result.
// List keys take a comma separated value; an empty value clears them.
func (cfg *Config) Set(key, value string) error {
	next := *cfg
	switch key {
	case "path":
		next.Path = value
	case "workers":
		workers, err := strconv.Atoi(value)
		if err != nil {
			return invalid(key, value, err)
		}
		next.Workers = workers
	case "safe_mode":
		safeMode, err := strconv.ParseBool(value)
		if err != nil {
			return invalid(key, value, err)
		}
		next.SafeMode = safeMode
	case "theme":
		next.Theme = value
	case "sort":
		next.SortMode = domain.SortMode(value)
	case "compare":
		next.Compare = value
	case "threshold":
		next.Threshold = value
	case "include":
		next.Include = splitList(value)
	case "exclude":
		next.Exclude = splitList(value)
	case "protected":
		next.Protected = splitList(value)
	case "log.level":
		next.Log.Level = value
	case "log.output":
		next.Log.Output = value
	case "log.dir":
		next.Log.Dir = value
	default:
		return invalid("key", key, fmt.Errorf("expected one of %s", strings.Join(Keys, ", ")))
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*cfg = next
	return nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func oneOf(field, value string, allowed []string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return invalid(field, value, fmt.Errorf("expected one of %s", strings.Join(allowed, ", ")))
}

func invalid(field, value string, err error) error {
	return &domain.ConfigError{Field: field, Value: value, Err: err}
}
