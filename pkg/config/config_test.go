package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "development sin secret", cfg: Config{App: AppConfig{Env: "development", StoreDriver: "memory"}}},
		{name: "production con postgres", cfg: Config{App: AppConfig{Env: "production", StoreDriver: "postgres"}, JWT: JWTConfig{Secret: "s"}}},
		{name: "production sin secret", cfg: Config{App: AppConfig{Env: "production", StoreDriver: "postgres"}}, wantErr: true},
		{name: "driver desconocido", cfg: Config{App: AppConfig{Env: "development", StoreDriver: "sqlite"}}, wantErr: true},
		{name: "memoria en production", cfg: Config{App: AppConfig{Env: "production", StoreDriver: "memory"}, JWT: JWTConfig{Secret: "s"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SUMMARY_CACHE_TTL_SECONDS", "15")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, "memory", cfg.App.StoreDriver)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "pos.sales", cfg.Kafka.SalesTopic)
	assert.Equal(t, 15*time.Second, cfg.Redis.SummaryTTL)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss", DBName: "franquicias", SSLMode: "disable"}
	assert.Equal(t, "postgres://pos:p%40ss@db:5432/franquicias?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x"
	assert.Equal(t, "postgres://x", c.ConnectionString())
}
