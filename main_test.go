package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/relgate/internal/adapters/store"
	"github.com/MyCarrier-DevOps/relgate/internal/infrastructure/config"
)

func TestRegistryOptions(t *testing.T) {
	cfg := &config.Config{
		Registry: config.RegistryConfig{
			Endpoint:  "registry.example.com:9000",
			Bucket:    "releases",
			Region:    "us-east-1",
			UseSSL:    true,
			AccessKey: "ak",
			SecretKey: "sk",
		},
	}

	opts := registryOptions(cfg)

	assert.Equal(t, "registry.example.com:9000", opts.Endpoint)
	assert.Equal(t, "releases", opts.Bucket)
	assert.Equal(t, "us-east-1", opts.Region)
	assert.True(t, opts.UseSSL)
	assert.Equal(t, "ak", opts.AccessKey)
	assert.Equal(t, "sk", opts.SecretKey)
}

func TestNewRecorder_NoHistoryConfigured(t *testing.T) {
	rec, err := newRecorder(&config.Config{})

	require.NoError(t, err)
	assert.IsType(t, store.NopRecorder{}, rec)
}

func TestNewRecorder_HistoryWithoutAddr(t *testing.T) {
	_, err := newRecorder(&config.Config{History: &config.HistoryConfig{}})

	assert.Error(t, err)
}
