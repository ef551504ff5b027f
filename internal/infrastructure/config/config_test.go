package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// writeConfig writes a .release.yaml into a temp root and returns the root.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultConfigFile), []byte(content), 0o644))
	return root
}

func TestLoad_AppliesDefaults(t *testing.T) {
	root := writeConfig(t, `
library: scroll
base_version: "1.4.0"
registry:
  endpoint: registry.example.com:9000
  bucket: releases
`)

	cfg, err := Load(root)

	require.NoError(t, err)
	assert.Equal(t, "scroll", cfg.Library)
	assert.Equal(t, "1.4.0", cfg.BaseVersion)
	assert.Equal(t, DefaultChangelog, cfg.Changelog)
	assert.Equal(t, DefaultManifest, cfg.Manifest)
	assert.Equal(t, DefaultBuildDir, cfg.BuildDir)
	assert.Equal(t, DefaultRemote, cfg.Remote)
	assert.Equal(t, []string{"."}, cfg.Include)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Nil(t, cfg.History)
}

func TestLoad_ExplicitValues(t *testing.T) {
	root := writeConfig(t, `
library: scroll
base_version: "1.4.0"
changelog: docs/CHANGES.md
manifest: elm.json
build_dir: build
remote: upstream
include:
  - src
  - elm.json
registry:
  endpoint: registry.example.com:9000
  bucket: releases
  region: eu-west-1
  use_ssl: true
history:
  addr: clickhouse.example.com:9000
  database: ci
`)

	cfg, err := Load(root)

	require.NoError(t, err)
	assert.Equal(t, "docs/CHANGES.md", cfg.Changelog)
	assert.Equal(t, "elm.json", cfg.Manifest)
	assert.Equal(t, "build", cfg.BuildDir)
	assert.Equal(t, "upstream", cfg.Remote)
	assert.Equal(t, []string{"src", "elm.json"}, cfg.Include)
	assert.True(t, cfg.Registry.UseSSL)
	require.NotNil(t, cfg.History)
	assert.Equal(t, "release_history", cfg.History.Table)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())

	assert.ErrorIs(t, err, domain.ErrNoConfig)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing library",
			content: "base_version: \"1.4.0\"\n",
			wantErr: ErrLibraryRequired,
		},
		{
			name:    "missing base version",
			content: "library: scroll\n",
			wantErr: ErrBaseVersionRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeConfig(t, tt.content)

			_, err := Load(root)

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_ConfigPathOverride(t *testing.T) {
	dir := t.TempDir()
	custom := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(custom, []byte("library: scroll\nbase_version: \"2.0.0\"\n"), 0o644))
	t.Setenv(EnvConfigPath, custom)

	cfg, err := Load(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "2.0.0", cfg.BaseVersion)
}

// mockVaultClient implements VaultClient for testing.
type mockVaultClient struct {
	secret map[string]interface{}
	err    error
}

func (m *mockVaultClient) GetKVSecret(_ context.Context, _, _ string) (map[string]interface{}, error) {
	return m.secret, m.err
}

func TestResolveRegistryCredentials_FromEnv(t *testing.T) {
	t.Setenv(EnvVaultCredsPath, "")
	t.Setenv(EnvRegistryAccessKey, "env-access")
	t.Setenv(EnvRegistrySecretKey, "env-secret")

	cfg := &Config{}
	err := ResolveRegistryCredentials(context.Background(), cfg, nil)

	require.NoError(t, err)
	assert.Equal(t, "env-access", cfg.Registry.AccessKey)
	assert.Equal(t, "env-secret", cfg.Registry.SecretKey)
}

func TestResolveRegistryCredentials_NoSource(t *testing.T) {
	t.Setenv(EnvVaultCredsPath, "")
	t.Setenv(EnvRegistryAccessKey, "")
	t.Setenv(EnvRegistrySecretKey, "")

	err := ResolveRegistryCredentials(context.Background(), &Config{}, nil)

	assert.ErrorIs(t, err, domain.ErrRegistryCredentials)
}

func TestResolveRegistryCredentials_FromVault(t *testing.T) {
	t.Setenv(EnvVaultCredsPath, "ci/relgate/registry")
	t.Setenv(EnvVaultCredsMount, "")

	factory := func(_ context.Context) (VaultClient, error) {
		return &mockVaultClient{secret: map[string]interface{}{
			"access_key": "vault-access",
			"secret_key": "vault-secret",
		}}, nil
	}

	cfg := &Config{}
	err := ResolveRegistryCredentials(context.Background(), cfg, factory)

	require.NoError(t, err)
	assert.Equal(t, "vault-access", cfg.Registry.AccessKey)
	assert.Equal(t, "vault-secret", cfg.Registry.SecretKey)
}

func TestResolveRegistryCredentials_VaultSecretIncomplete(t *testing.T) {
	t.Setenv(EnvVaultCredsPath, "ci/relgate/registry")

	factory := func(_ context.Context) (VaultClient, error) {
		return &mockVaultClient{secret: map[string]interface{}{
			"access_key": "only-access",
		}}, nil
	}

	err := ResolveRegistryCredentials(context.Background(), &Config{}, factory)

	assert.ErrorIs(t, err, ErrVaultSecretIncomplete)
}

func TestResolveRegistryCredentials_VaultLookupFails(t *testing.T) {
	t.Setenv(EnvVaultCredsPath, "ci/relgate/registry")

	factory := func(_ context.Context) (VaultClient, error) {
		return &mockVaultClient{err: errors.New("permission denied")}, nil
	}

	err := ResolveRegistryCredentials(context.Background(), &Config{}, factory)

	assert.ErrorIs(t, err, ErrVaultSecretNotFound)
}
