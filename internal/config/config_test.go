package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiresIn)
	assert.True(t, cfg.KafkaEnabled())
	assert.True(t, cfg.IsProduction())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{JWTSecret: testSecret, StoreBackend: BackendMemory, UploadBackend: UploadDisk}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"unknown backend", func(c *Config) { c.StoreBackend = "mongo" }, true},
		{"s3 without bucket", func(c *Config) { c.UploadBackend = UploadS3 }, true},
		{"s3 with bucket", func(c *Config) { c.UploadBackend = UploadS3; c.S3Bucket = "images" }, false},
		{"unknown upload backend", func(c *Config) { c.UploadBackend = "ftp" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
