package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"panelix-setup/internal/models"

	"github.com/iancoleman/orderedmap"
	"github.com/spf13/viper"
)

// Resolution mode of the install configuration.
type Mode int

const (
	NonInteractive Mode = iota
	Interactive
)

// Documented defaults of the user-facing settings.
const (
	DefaultDomain     = "localhost"
	DefaultPort       = "80"
	DefaultAdminEmail = "admin@localhost"
)

// Override keys accepted by Resolve and by the PANELIX_* environment.
const (
	KeyDomain     = "domain"
	KeyPort       = "port"
	KeyAdminEmail = "adminEmail"
)

/**
 * Finalized installation configuration
 * @description
 * - Secrets start unset and are populated exactly once by the resolver;
 *   a populated secret in an existing configuration is never regenerated
 * - Paths come from the tool configuration defaults unless overridden
 */
type InstallConfig struct {
	Domain     string
	Port       string
	AdminEmail string

	AppKey     string
	DBPassword string
	JWTSecret  string

	InstallDir string
	DataDir    string
	LogDir     string
	ConfigFile string
	RunAsUser  string
}

/**
 * Collect PANELIX_* environment overrides
 * @returns {map[string]string} Override map consumed by Resolve
 * @description
 * - PANELIX_DOMAIN, PANELIX_PORT, PANELIX_ADMIN_EMAIL feed the resolver
 * - PANELIX_NONINTERACTIVE selects non-interactive mode in the CLI layer
 */
func EnvOverrides() map[string]string {
	v := viper.New()
	v.SetEnvPrefix("PANELIX")
	v.AutomaticEnv()

	overrides := map[string]string{}
	if domain := v.GetString("DOMAIN"); domain != "" {
		overrides[KeyDomain] = domain
	}
	if port := v.GetString("PORT"); port != "" {
		overrides[KeyPort] = port
	}
	if email := v.GetString("ADMIN_EMAIL"); email != "" {
		overrides[KeyAdminEmail] = email
	}
	return overrides
}

// NonInteractiveRequested reports whether PANELIX_NONINTERACTIVE is set.
func NonInteractiveRequested() bool {
	v := viper.New()
	v.SetEnvPrefix("PANELIX")
	v.AutomaticEnv()
	return v.GetBool("NONINTERACTIVE")
}

/**
 * Resolve the installation configuration
 * @param {Mode} mode - Interactive prompts or override/default resolution
 * @param {map[string]string} overrides - Explicit field overrides (highest priority)
 * @param {io.Reader} input - Prompt input source, used in interactive mode only
 * @param {io.Writer} output - Prompt sink, used in interactive mode only
 * @returns {*InstallConfig} Finalized configuration with every secret populated
 * @returns {error} ConfigurationInvalidError naming the offending field
 * @description
 * - Non-interactive mode never blocks: override value, else documented default
 * - Interactive mode prompts sequentially for domain, port and admin email,
 *   accepting the default on empty input; this is the only suspension point
 * - Secrets already present in the existing configuration file are reused
 *   byte for byte; only absent or corrupt values are generated anew
 */
func Resolve(mode Mode, overrides map[string]string, input io.Reader, output io.Writer) (*InstallConfig, error) {
	cfg := &InstallConfig{
		InstallDir: Config.Paths.InstallDir,
		DataDir:    Config.Paths.DataDir,
		LogDir:     Config.Paths.LogDir,
		ConfigFile: Config.Paths.ConfigFile,
		RunAsUser:  Config.Paths.RunAsUser,
	}

	if mode == Interactive {
		reader := bufio.NewReader(input)
		cfg.Domain = prompt(reader, output, "Domain name", valueOr(overrides, KeyDomain, DefaultDomain))
		cfg.Port = prompt(reader, output, "HTTP port", valueOr(overrides, KeyPort, DefaultPort))
		cfg.AdminEmail = prompt(reader, output, "Admin email", valueOr(overrides, KeyAdminEmail, DefaultAdminEmail))
	} else {
		cfg.Domain = valueOr(overrides, KeyDomain, DefaultDomain)
		cfg.Port = valueOr(overrides, KeyPort, DefaultPort)
		cfg.AdminEmail = valueOr(overrides, KeyAdminEmail, DefaultAdminEmail)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	// 读取已有配置中的密钥，避免重复生成
	existing := readExistingSecrets(cfg.ConfigFile)
	if err := ensureSecrets(cfg, existing); err != nil {
		return nil, err
	}
	return cfg, nil
}

func valueOr(overrides map[string]string, key, fallback string) string {
	if value, ok := overrides[key]; ok && value != "" {
		return value
	}
	return fallback
}

func prompt(reader *bufio.Reader, output io.Writer, label, fallback string) string {
	fmt.Fprintf(output, "%s [%s]: ", label, fallback)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fallback
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}

func validate(cfg *InstallConfig) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return &models.ConfigurationInvalidError{Field: "port", Reason: fmt.Sprintf("%q is not a port number", cfg.Port)}
	}
	if cfg.Domain == "" {
		return &models.ConfigurationInvalidError{Field: "domain", Reason: "must not be empty"}
	}
	if !strings.Contains(cfg.AdminEmail, "@") {
		return &models.ConfigurationInvalidError{Field: "adminEmail", Reason: fmt.Sprintf("%q is not an email address", cfg.AdminEmail)}
	}
	return nil
}

/**
 * Render the configuration file consumed by the panelix service
 * @param {*InstallConfig} cfg - Finalized configuration
 * @returns {string} key=value lines in stable order
 * @description
 * - orderedmap keeps the rendered key order deterministic across runs
 */
func RenderEnvFile(cfg *InstallConfig) string {
	entries := orderedmap.New()
	entries.Set(KeyDomain, cfg.Domain)
	entries.Set(KeyPort, cfg.Port)
	entries.Set(KeyAdminEmail, cfg.AdminEmail)
	entries.Set("dataDir", cfg.DataDir)
	entries.Set("logDir", cfg.LogDir)
	entries.Set(secretKeyAppKey, cfg.AppKey)
	entries.Set(secretKeyDBPassword, cfg.DBPassword)
	entries.Set(SecretKeyJWTSecret, cfg.JWTSecret)

	var sb strings.Builder
	for _, key := range entries.Keys() {
		value, _ := entries.Get(key)
		fmt.Fprintf(&sb, "%s=%v\n", key, value)
	}
	return sb.String()
}

/**
 * Write the configuration file with owner-only permissions
 * @param {*InstallConfig} cfg - Finalized configuration
 * @returns {error} Write failure
 * @description
 * - Mode 0600; ownership transfer to the run-as user happens in the
 *   orchestrator, which knows the uid/gid
 */
func WriteEnvFile(cfg *InstallConfig) error {
	if err := os.MkdirAll(filepath.Dir(cfg.ConfigFile), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(cfg.ConfigFile, []byte(RenderEnvFile(cfg)), 0600)
}
