package cmd

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var settingsFile string

// Settings are the cross-command knobs, resolved by viper with the usual
// precedence: command-line flag, then PVZSIM_* environment variable, then
// the settings file.
type Settings struct {
	Runs      int      `mapstructure:"runs"`
	Seed      int64    `mapstructure:"seed"`
	Output    string   `mapstructure:"output"`
	Scenarios []string `mapstructure:"scenarios"`
}

// initSettings wires viper to the optional settings file and the
// environment. Missing settings files are fine; flags carry the defaults.
func initSettings() {
	if settingsFile != "" {
		viper.SetConfigFile(settingsFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".pvzsim")
	}

	viper.SetEnvPrefix("pvzsim")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logrus.Debugf("Using settings file: %s", viper.ConfigFileUsed())
	}
}

// loadSettings decodes the resolved viper state into a Settings struct.
// The slice hook lets PVZSIM_SCENARIOS carry a comma-separated list.
func loadSettings() (*Settings, error) {
	var s Settings
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := viper.Unmarshal(&s, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}
	return &s, nil
}
