package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wintermute101/uf2info/internal/services"
)

// Config holds settings resolved from defaults, config file, environment and flags
type Config struct {
	OutputFormat     string `mapstructure:"output_format"`
	NoColor          bool   `mapstructure:"no_color"`
	BinaryFormat     string `mapstructure:"binary_format"`
	Strict           bool   `mapstructure:"strict"`
	SkipNotMainFlash bool   `mapstructure:"skip_not_main_flash"`
	HexLineLength    int    `mapstructure:"hex_line_length"`
	Padding          int    `mapstructure:"padding"`
	MaxImageSize     int64  `mapstructure:"max_image_size"`
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"output":              "output_format",
	"no-color":            "no_color",
	"format":              "binary_format",
	"strict":              "strict",
	"skip-not-main-flash": "skip_not_main_flash",
	"hex-line-length":     "hex_line_length",
	"padding":             "padding",
	"max-image-size":      "max_image_size",
}

// LoadConfig loads configuration using Viper. Flags explicitly set on the
// command line override environment variables, which override the config file.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("uf2info-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.uf2info")
		v.AddConfigPath("/etc/uf2info")
	}

	// Set defaults
	v.SetDefault("output_format", "table")
	v.SetDefault("no_color", false)
	v.SetDefault("binary_format", string(services.FormatBinary))
	v.SetDefault("strict", false)
	v.SetDefault("skip_not_main_flash", false)
	v.SetDefault("hex_line_length", services.DefaultHexLineLength)
	v.SetDefault("padding", services.DefaultPadding)
	v.SetDefault("max_image_size", services.DefaultMaxImageSize)

	// Allow environment variables
	v.SetEnvPrefix("UF2INFO")
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
