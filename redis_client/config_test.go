package redis_client

import (
	"testing"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Addr(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		expected string
	}{
		{
			name:     "standard localhost config",
			config:   Config{Host: "localhost", Port: "16379"},
			expected: "localhost:16379",
		},
		{
			name:     "custom host and port",
			config:   Config{Host: "redis.example.com", Port: "6380", DB: 1},
			expected: "redis.example.com:6380",
		},
		{
			name:     "IPv6 address",
			config:   Config{Host: "::1", Port: "6379"},
			expected: "[::1]:6379",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.Addr())
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	var cfg Config
	require.NoError(t, defaults.Set(&cfg))

	assert.Equal(t, "127.0.0.1:6379", cfg.Addr())
	assert.Equal(t, "5s", cfg.DialTimeout.String())
}
