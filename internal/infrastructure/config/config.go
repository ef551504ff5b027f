// Package config provides configuration loading for relgate.
// Project-level release settings come from a .release.yaml file at the
// repository root; registry credentials come from HashiCorp Vault
// (preferred) or environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/vault"
	"gopkg.in/yaml.v3"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// Environment variable names.
const (
	// EnvConfigPath overrides the release configuration file path.
	EnvConfigPath = "RELGATE_CONFIG"

	// EnvLogLevel is the log level (debug, info, error).
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvRegistryAccessKey is the registry access key (env fallback).
	EnvRegistryAccessKey = "RELGATE_REGISTRY_ACCESS_KEY"

	// EnvRegistrySecretKey is the registry secret key (env fallback).
	EnvRegistrySecretKey = "RELGATE_REGISTRY_SECRET_KEY"

	// EnvVaultCredsPath is the path in Vault KV where registry
	// credentials are stored.
	EnvVaultCredsPath = "RELGATE_VAULT_CREDS_PATH"

	// EnvVaultCredsMount is the Vault KV mount point (defaults to "secret").
	EnvVaultCredsMount = "RELGATE_VAULT_CREDS_MOUNT"
)

// Default values.
const (
	DefaultConfigFile = ".release.yaml"
	DefaultLogLevel   = "info"
	DefaultLogAppName = "relgate"
	DefaultChangelog  = "CHANGELOG.md"
	DefaultManifest   = "package.json"
	DefaultBuildDir   = "dist"
	DefaultRemote     = "origin"
	DefaultVaultMount = "secret"
)

// Configuration errors.
var (
	// ErrLibraryRequired indicates the config file names no library.
	ErrLibraryRequired = errors.New("release configuration must set 'library'")

	// ErrBaseVersionRequired indicates the config file names no base version.
	ErrBaseVersionRequired = errors.New("release configuration must set 'base_version'")

	// ErrVaultClientFailed indicates failure to create or authenticate with Vault.
	ErrVaultClientFailed = errors.New("failed to create Vault client")

	// ErrVaultSecretNotFound indicates the secret was not found in Vault.
	ErrVaultSecretNotFound = errors.New("registry credentials not found in Vault")

	// ErrVaultSecretIncomplete indicates the Vault secret lacks a key.
	ErrVaultSecretIncomplete = errors.New("registry credential secret must contain 'access_key' and 'secret_key'")
)

// VaultClient defines the interface for Vault operations.
// This interface allows for dependency injection and testing.
type VaultClient interface {
	// GetKVSecret retrieves a secret from Vault's KV v2 secrets engine.
	GetKVSecret(ctx context.Context, path, mount string) (map[string]interface{}, error)
}

// VaultClientFactory creates a VaultClient using AppRole authentication.
type VaultClientFactory func(ctx context.Context) (VaultClient, error)

// DefaultVaultClientFactory creates a VaultClient using goLibMyCarrier/vault
// with AppRole auth. Uses VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID.
func DefaultVaultClientFactory(ctx context.Context) (VaultClient, error) {
	vaultConfig, err := vault.VaultLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	client, err := vault.CreateVaultClient(ctx, vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	return client, nil
}

// RegistryConfig is the package registry connection settings. The
// access keys are never read from the yaml file.
type RegistryConfig struct {
	Endpoint string `yaml:"endpoint"`
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	UseSSL   bool   `yaml:"use_ssl"`

	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// HistoryConfig is the optional release history store settings.
type HistoryConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Table    string `yaml:"table"`
}

// Config holds all application configuration.
type Config struct {
	// Library is the identifier artifacts are named after.
	Library string `yaml:"library"`

	// BaseVersion is the upstream version being wrapped; the
	// release version is BaseVersion plus the revision count.
	BaseVersion string `yaml:"base_version"`

	// Changelog is the changelog document path, relative to the root.
	Changelog string `yaml:"changelog"`

	// Manifest is the package manifest path, relative to the root.
	Manifest string `yaml:"manifest"`

	// BuildDir is the build output directory, relative to the root.
	BuildDir string `yaml:"build_dir"`

	// Remote is the shared remote tags and branches are pushed to.
	Remote string `yaml:"remote"`

	// Include lists the paths packaged into the release archive.
	Include []string `yaml:"include"`

	// Registry is the package registry settings.
	Registry RegistryConfig `yaml:"registry"`

	// History is the optional release history store; nil disables it.
	History *HistoryConfig `yaml:"history"`

	// LogLevel is the logging level (debug, info, error).
	LogLevel string `yaml:"-"`

	// LogAppName is the application name for log context.
	LogAppName string `yaml:"-"`
}

// Load reads the release configuration for the project at root.
// The file path defaults to <root>/.release.yaml and can be overridden
// with RELGATE_CONFIG.
func Load(root string) (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = filepath.Join(root, DefaultConfigFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoConfig, path)
		}
		return nil, fmt.Errorf("failed to read release configuration: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid release configuration %s: %w", path, err)
	}

	if cfg.Library == "" {
		return nil, ErrLibraryRequired
	}
	if cfg.BaseVersion == "" {
		return nil, ErrBaseVersionRequired
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Changelog == "" {
		cfg.Changelog = DefaultChangelog
	}
	if cfg.Manifest == "" {
		cfg.Manifest = DefaultManifest
	}
	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDir
	}
	if cfg.Remote == "" {
		cfg.Remote = DefaultRemote
	}
	if len(cfg.Include) == 0 {
		cfg.Include = []string{"."}
	}
	if cfg.History != nil && cfg.History.Table == "" {
		cfg.History.Table = "release_history"
	}

	cfg.LogLevel = os.Getenv(EnvLogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	cfg.LogAppName = os.Getenv(EnvLogAppName)
	if cfg.LogAppName == "" {
		cfg.LogAppName = DefaultLogAppName
	}
}

// ResolveRegistryCredentials fills in the registry access keys from
// Vault (preferred, when RELGATE_VAULT_CREDS_PATH is set) or from the
// environment. Only the release command needs credentials; the gate
// alone never calls this.
func ResolveRegistryCredentials(ctx context.Context, cfg *Config, factory VaultClientFactory) error {
	vaultPath := os.Getenv(EnvVaultCredsPath)
	if vaultPath != "" {
		return resolveFromVault(ctx, cfg, factory, vaultPath)
	}

	access := os.Getenv(EnvRegistryAccessKey)
	secret := os.Getenv(EnvRegistrySecretKey)
	if access == "" || secret == "" {
		return domain.ErrRegistryCredentials
	}

	cfg.Registry.AccessKey = access
	cfg.Registry.SecretKey = secret
	return nil
}

// resolveFromVault loads registry credentials from Vault KV v2. The
// secret must contain "access_key" and "secret_key" entries.
func resolveFromVault(ctx context.Context, cfg *Config, factory VaultClientFactory, path string) error {
	if factory == nil {
		factory = DefaultVaultClientFactory
	}

	client, err := factory(ctx)
	if err != nil {
		return err
	}

	mount := os.Getenv(EnvVaultCredsMount)
	if mount == "" {
		mount = DefaultVaultMount
	}

	secretData, err := client.GetKVSecret(ctx, path, mount)
	if err != nil {
		return fmt.Errorf("%w at path %s: %w", ErrVaultSecretNotFound, path, err)
	}

	access, ok := secretData["access_key"].(string)
	if !ok || access == "" {
		return ErrVaultSecretIncomplete
	}
	secret, ok := secretData["secret_key"].(string)
	if !ok || secret == "" {
		return ErrVaultSecretIncomplete
	}

	cfg.Registry.AccessKey = access
	cfg.Registry.SecretKey = secret
	return nil
}
