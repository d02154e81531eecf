package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/ec-shop-api/internal/config"
)

func TestCheckConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{"no brokers", config.Config{StoreBackend: config.BackendPostgres}, "KAFKA_BROKERS"},
		{"memory store", config.Config{StoreBackend: config.BackendMemory, KafkaBrokers: []string{"kafka:9092"}}, "persistent"},
		{"valid", config.Config{StoreBackend: config.BackendDynamoDB, KafkaBrokers: []string{"kafka:9092"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkConfig(&tt.cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
