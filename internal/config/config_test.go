package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Protocol.AdminAddress = "0x0000000000000000000000000000000000000001"
	cfg.Protocol.EscrowAddress = "0x0000000000000000000000000000000000000002"
	cfg.Protocol.OracleAddress = "0x0000000000000000000000000000000000000003"
	return cfg
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	// Defaults alone are not runnable: the protocol accounts must be set.
	bare := Defaults()
	err := bare.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), "admin_address")
	require.Contains(t, err.Error(), "escrow_address")
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "unknown mode",
			mutate:  func(c *Config) { c.Mode = "batch" },
			wantMsg: "unknown mode",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantMsg: "unknown log_level",
		},
		{
			name:    "malformed admin address",
			mutate:  func(c *Config) { c.Protocol.AdminAddress = "0x123" },
			wantMsg: "invalid admin_address",
		},
		{
			name:    "fee out of range",
			mutate:  func(c *Config) { c.Protocol.FeePercentage = 101 },
			wantMsg: "fee_percentage",
		},
		{
			name:    "negative minimum stake",
			mutate:  func(c *Config) { c.Protocol.MinimumStake = -1 },
			wantMsg: "minimum_stake",
		},
		{
			name:    "bad server port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantMsg: "server: port",
		},
		{
			name: "postgres pools inverted",
			mutate: func(c *Config) {
				c.Postgres.PoolMinConns = 20
				c.Postgres.PoolMaxConns = 10
			},
			wantMsg: "pool_min_conns",
		},
		{
			name: "redis enabled without addr",
			mutate: func(c *Config) {
				c.Redis.Addr = ""
			},
			wantMsg: "redis: addr",
		},
		{
			name: "s3 enabled without bucket",
			mutate: func(c *Config) {
				c.S3.Enabled = true
				c.S3.Bucket = ""
			},
			wantMsg: "s3: bucket",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidate_MemoryModeSkipsPostgres(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "memory"
	cfg.Postgres = PostgresConfig{}
	require.NoError(t, cfg.Validate())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("UPDOWN_MODE", "memory")
	t.Setenv("UPDOWN_PROTOCOL_MINIMUM_STAKE", "2500")
	t.Setenv("UPDOWN_REDIS_ENABLED", "false")
	t.Setenv("UPDOWN_CHAIN_POLL_INTERVAL", "30s")
	t.Setenv("UPDOWN_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("UPDOWN_POSTGRES_PORT", "not-a-number") // ignored

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	require.Equal(t, "memory", cfg.Mode)
	require.Equal(t, int64(2500), cfg.Protocol.MinimumStake)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, "30s", cfg.Chain.PollInterval.String())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	require.Equal(t, 5432, cfg.Postgres.Port)
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Password = "hunter2"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "hunter2"
	cfg.Server.APIKey = "hunter2"
	cfg.Notify.WebhookURL = "https://discord.example/hook"

	red := RedactedConfig(&cfg)
	require.Equal(t, "***", red.Postgres.Password)
	require.Equal(t, "***", red.Redis.Password)
	require.Equal(t, "***", red.S3.SecretKey)
	require.Equal(t, "***", red.Server.APIKey)
	require.Equal(t, "***", red.Notify.WebhookURL)

	// The original stays intact.
	require.Equal(t, "hunter2", cfg.Postgres.Password)

	// Mutating the redacted copy's slices must not leak back.
	red.Notify.Events[0] = "changed"
	require.Equal(t, "market.resolved", cfg.Notify.Events[0])
}
