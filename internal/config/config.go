package config

import (
	"panelix-setup/internal/env"

	"github.com/spf13/viper"
)

/**
 * Status server configuration parameters
 * @property {string} address - Server listening address (e.g. "127.0.0.1:9810")
 * @property {string} mode - Gin mode (debug/release/test)
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path, "console" for stdout
 */
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

/**
 * Metrics configuration
 * @property {string} pushgateway - Pushgateway address, empty disables pushing
 */
type MetricsConfig struct {
	Pushgateway string `mapstructure:"pushgateway"`
}

// UpgradeConfig points at the release server hosting artifacts and the
// per-platform version manifest.
type UpgradeConfig struct {
	BaseUrl string `mapstructure:"base_url"`
}

// PathsConfig overrides the documented default installation layout.
type PathsConfig struct {
	InstallDir string `mapstructure:"install_dir"`
	DataDir    string `mapstructure:"data_dir"`
	LogDir     string `mapstructure:"log_dir"`
	ConfigFile string `mapstructure:"config_file"`
	RunAsUser  string `mapstructure:"run_as_user"`
}

type AppConfig struct {
	Server             ServerConfig  `mapstructure:"server"`
	Log                LogConfig     `mapstructure:"log"`
	Metrics            MetricsConfig `mapstructure:"metrics"`
	Upgrade            UpgradeConfig `mapstructure:"upgrade"`
	Paths              PathsConfig   `mapstructure:"paths"`
	VerifyGraceSeconds int           `mapstructure:"verify_grace_seconds"`
}

/**
 * Load tool configuration from YAML file
 * @description
 * - Searches the setup directory first, then the working directory
 * - A missing file is not an error; defaults cover everything
 */
func LoadConfig() (*AppConfig, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(env.SetupDir)
	viper.AddConfigPath(".")

	var cfg AppConfig
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return &cfg, err
		}
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var Config AppConfig

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Server.Address == "" {
		cfg.Server.Address = "127.0.0.1:9810"
	}
	if cfg.Upgrade.BaseUrl == "" {
		cfg.Upgrade.BaseUrl = "https://releases.panelix.io"
	}
	if cfg.Paths.InstallDir == "" {
		cfg.Paths.InstallDir = env.DefaultInstallDir
	}
	if cfg.Paths.DataDir == "" {
		cfg.Paths.DataDir = env.DefaultDataDir
	}
	if cfg.Paths.LogDir == "" {
		cfg.Paths.LogDir = env.DefaultLogDir
	}
	if cfg.Paths.ConfigFile == "" {
		cfg.Paths.ConfigFile = env.DefaultConfigFile
	}
	if cfg.Paths.RunAsUser == "" {
		cfg.Paths.RunAsUser = env.DefaultRunAsUser
	}
	if cfg.VerifyGraceSeconds <= 0 {
		cfg.VerifyGraceSeconds = 5
	}
	return cfg
}

func init() {
	cfg, err := LoadConfig()
	if err == nil {
		Config = *cfg
	}
	collectConfig(&Config)
}
