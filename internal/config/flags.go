package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"workers":    "workers",
	"safe-mode":  "safe_mode",
	"theme":      "theme",
	"log-level":  "log.level",
	"log-output": "log.output",
	"log-dir":    "log.dir",
}

// RegisterFlags adds the global configuration flags. Their defaults mirror
// DefaultConfig; only flags set on the command line override the file.
func RegisterFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()
	flags.String("config", "", "config file (default $XDG_CONFIG_HOME/toomuchleft/config.yaml)")
	flags.Int("workers", defaults.Workers, "parallel workers, 0 uses the number of CPUs")
	flags.Bool("safe-mode", defaults.SafeMode, "refuse to delete critical system paths")
	flags.String("theme", defaults.Theme, "ui theme: dark or light")
	flags.String("log-level", defaults.Log.Level, "log level: debug, info, warn, error")
	flags.String("log-output", defaults.Log.Output, "log output: console, file, both")
	flags.String("log-dir", defaults.Log.Dir, "directory for log files")
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
