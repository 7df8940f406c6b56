package config

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// Secret field keys as they appear in the configuration file.
const (
	secretKeyAppKey     = "appKey"
	secretKeyDBPassword = "dbPassword"
	SecretKeyJWTSecret  = "jwtSecret"
)

// ReadSecret returns one secret value from the persisted configuration,
// empty when the file or the field is absent.
func ReadSecret(path, key string) string {
	return readExistingSecrets(path)[key]
}

/**
 * Generate a symmetric key secret
 * @returns {string} 32 random bytes, base64 encoded for safe embedding
 *                   in a key=value configuration line
 * @returns {error} Entropy source failure
 */
func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("secret generation failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

/**
 * Generate a password-class secret
 * @returns {string} 16 random bytes in lowercase hex, safe for
 *                   case-insensitive consumers
 * @returns {error} Entropy source failure
 */
func generatePassword() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("secret generation failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

/**
 * Read secret values from an existing configuration file
 * @param {string} path - Configuration file path
 * @returns {map[string]string} Populated secret fields, empty map if the file is absent
 * @description
 * - The engine never parses its configuration back except here, to
 *   check for existing secrets before deciding whether to generate
 */
func readExistingSecrets(path string) map[string]string {
	secrets := map[string]string{}
	file, err := os.Open(path)
	if err != nil {
		return secrets
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch key {
		case secretKeyAppKey, secretKeyDBPassword, SecretKeyJWTSecret:
			if value != "" {
				secrets[key] = value
			}
		}
	}
	return secrets
}

/**
 * Populate every unset secret field
 * @param {*InstallConfig} cfg - Configuration under resolution
 * @param {map[string]string} existing - Secrets found in the persisted configuration
 * @returns {error} Entropy source failure
 * @description
 * - A secret present in the persisted configuration is kept byte for byte;
 *   regenerating it would invalidate every session and token derived from it
 * - Freshly generated values come from crypto/rand on each call, never reused
 * - Generation order carries no interdependency between secrets
 */
func ensureSecrets(cfg *InstallConfig, existing map[string]string) error {
	var err error
	if cfg.AppKey = existing[secretKeyAppKey]; cfg.AppKey == "" {
		if cfg.AppKey, err = generateKey(); err != nil {
			return err
		}
	}
	if cfg.DBPassword = existing[secretKeyDBPassword]; cfg.DBPassword == "" {
		if cfg.DBPassword, err = generatePassword(); err != nil {
			return err
		}
	}
	if cfg.JWTSecret = existing[SecretKeyJWTSecret]; cfg.JWTSecret == "" {
		if cfg.JWTSecret, err = generateKey(); err != nil {
			return err
		}
	}
	return nil
}
