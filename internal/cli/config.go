package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tally/internal/paths"
	"github.com/mesh-intelligence/tally/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	cfgKeyDataDir       = "data_dir"
	cfgKeyImageKey      = "image_key"
	cfgKeyImageEncoding = "image_encoding"
	cfgKeySchemaFile    = "schema_file"
	cfgKeyLogLevel      = "log_level"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	DataDir       string `yaml:"data_dir,omitempty"`
	ImageKey      string `yaml:"image_key"`
	ImageEncoding string `yaml:"image_encoding"`
	SchemaFile    string `yaml:"schema_file,omitempty"`
	LogLevel      string `yaml:"log_level"`
}

// loadConfig reads config.yaml from configDir. A missing directory or file
// is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyImageKey, types.DefaultImageKey)
	v.SetDefault(cfgKeyImageEncoding, types.EncodingBytes)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values. An
// existing file is left untouched.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&configFile{
		DataDir:       dataDir,
		ImageKey:      types.DefaultImageKey,
		ImageEncoding: types.EncodingBytes,
		LogLevel:      "warn",
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
