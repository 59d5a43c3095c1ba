package options

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Options struct {
	LogLevel   string
	ConfigFile string
}

const (
	AppName = "aq"

	// Application config keys.
	ConfigKeyLogLevel   = "log-level"
	ConfigKeyConfigFile = "config"

	// toml command config keys.
	ConfigKeySeparator = "separator"
	ConfigKeyNumeric   = "numeric"
	ConfigKeyComments  = "comment"

	// Default values
	//
	// DefaultLogLevel is the level logrus should default to if the configured
	// option can't be parsed.
	DefaultLogLevel    = logrus.InfoLevel
	DefaultLogLevelStr = "info"
	DefaultConfigFile  = ""
	DefaultSeparator   = ","
)

// NewViper returns a viper instance reading AQ_* environment variables and,
// when present, the config file. A missing default config file is not an
// error.
func NewViper(cfgFile string, log *logrus.Entry) *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("." + AppName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case err == nil:
		log.WithField("file", v.ConfigFileUsed()).Debug("config file loaded")
	case errors.As(err, &notFound) && cfgFile == "":
	default:
		log.WithError(err).Warnf("Error reading config file: %v", cfgFile)
	}
	return v
}

// NewLogger returns a logrus entry tagged with the app name.
func NewLogger(level string) *logrus.Entry {
	logger := logrus.New()
	logger.Level = ParseLogLevel(level)
	return logrus.NewEntry(logger).WithField("app", AppName)
}

func ParseLogLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return DefaultLogLevel
	}
	return lvl
}
