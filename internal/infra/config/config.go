// Package config provides application-wide configuration.
// Non-secret settings have safe defaults and may come from an optional YAML
// file (SFMCP_CONFIG); environment variables always win. Credentials are
// env-only and validated on demand, never at Load time, so read-only commands
// (--version, --help) work without any Salesforce setup.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for sfmcp.
type Config struct {
	// Salesforce credentials (username/password/security-token flow).
	Username      string
	Password      string
	SecurityToken string

	// AuthMethod selects the login flow: "password" (SOAP login) or
	// "jwt" (OAuth 2.0 JWT bearer via a connected app).
	AuthMethod string
	// Domain is the login host prefix: "login" for production, "test" for sandboxes.
	Domain string
	// APIVersion is the Salesforce REST API version, e.g. "62.0".
	APIVersion string

	// Connected-app settings for the jwt auth method.
	ClientID       string
	PrivateKeyPath string

	// HTTPAddr switches the MCP transport from stdio to streamable HTTP
	// when non-empty, e.g. ":8080".
	HTTPAddr string
	// AuditDB is the SQLite path for the tool-invocation audit trail.
	// Empty disables auditing.
	AuditDB string
}

const (
	envKeyUsername      = "SALESFORCE_USERNAME"
	envKeyPassword      = "SALESFORCE_PASSWORD"
	envKeySecurityToken = "SALESFORCE_SECURITY_TOKEN"
	envKeyAuthMethod    = "SALESFORCE_AUTH_METHOD"
	envKeyDomain        = "SALESFORCE_DOMAIN"
	envKeyAPIVersion    = "SALESFORCE_API_VERSION"
	envKeyClientID      = "SALESFORCE_CLIENT_ID"
	envKeyPrivateKey    = "SALESFORCE_PRIVATE_KEY"
	envKeyHTTPAddr      = "SFMCP_HTTP_ADDR"
	envKeyAuditDB       = "SFMCP_AUDIT_DB"
	envKeyConfigFile    = "SFMCP_CONFIG"
)

// Auth method values for Config.AuthMethod.
const (
	AuthMethodPassword = "password"
	AuthMethodJWT      = "jwt"
)

// ErrMissingCredentials is returned when any of the three required
// credential variables is absent. All three are named so the operator can
// fix the environment in one pass; no partial initialization is attempted.
var ErrMissingCredentials = errors.New(
	"missing required Salesforce credentials: set " +
		envKeyUsername + ", " + envKeyPassword + ", and " + envKeySecurityToken +
		" environment variables")

// fileConfig is the YAML shape of the optional config file.
// Secrets are deliberately excluded: credentials are env-only.
type fileConfig struct {
	AuthMethod     string `yaml:"auth_method"`
	Domain         string `yaml:"domain"`
	APIVersion     string `yaml:"api_version"`
	ClientID       string `yaml:"client_id"`
	PrivateKeyPath string `yaml:"private_key"`
	HTTPAddr       string `yaml:"http_addr"`
	AuditDB        string `yaml:"audit_db"`
}

// Load reads configuration from the optional YAML file and the environment,
// applying defaults for missing values. Env vars override file values.
func Load() (Config, error) {
	var fc fileConfig
	if path := os.Getenv(envKeyConfigFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	return Config{
		Username:      os.Getenv(envKeyUsername),
		Password:      os.Getenv(envKeyPassword),
		SecurityToken: os.Getenv(envKeySecurityToken),

		AuthMethod: envOr(envKeyAuthMethod, or(fc.AuthMethod, AuthMethodPassword)),
		Domain:     envOr(envKeyDomain, or(fc.Domain, "login")),
		APIVersion: envOr(envKeyAPIVersion, or(fc.APIVersion, "62.0")),

		ClientID:       envOr(envKeyClientID, fc.ClientID),
		PrivateKeyPath: envOr(envKeyPrivateKey, fc.PrivateKeyPath),

		HTTPAddr: envOr(envKeyHTTPAddr, fc.HTTPAddr),
		AuditDB:  envOr(envKeyAuditDB, fc.AuditDB),
	}, nil
}

// ValidateCredentials fails closed if any of the three required credential
// values is missing or empty. Called before the first login attempt; the
// error names all three variables regardless of which ones are missing.
func (c Config) ValidateCredentials() error {
	if c.Username == "" || c.Password == "" || c.SecurityToken == "" {
		return ErrMissingCredentials
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// or returns v unless empty, else fallback.
func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
