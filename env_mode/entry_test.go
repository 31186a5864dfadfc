package env_mode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv(t *testing.T) {
	tests := map[string]ENV_MODE{
		"":            DevMode,
		"dev":         DevMode,
		"Production":  ProMode,
		" prod ":      ProMode,
		"pro":         ProMode,
		"testing":     TestMode,
		"test":        TestMode,
		"staging-eu1": DevMode,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseEnv(in), in)
	}
}

func TestSetModeOverridesEnvironment(t *testing.T) {
	t.Setenv(ENV_MODE_KEY, "production")
	prev := Mode()
	t.Cleanup(func() { SetMode(prev) })

	SetMode(TestMode)
	assert.Equal(t, TestMode, Mode())
	assert.Equal(t, "test", Mode().String())
}
