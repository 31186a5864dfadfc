package env_mode

import (
	"os"
	"strings"
	"sync"
)

// ENV_MODE_KEY selects which config file variant is loaded and how verbose the defaults are.
const ENV_MODE_KEY = "GLIDEFORMAT_ENV"

type ENV_MODE string

const (
	DevMode  ENV_MODE = "development"
	ProMode  ENV_MODE = "production"
	TestMode ENV_MODE = "test"
)

var (
	currentEnv ENV_MODE
	mu         sync.RWMutex
)

func ParseEnv(env string) ENV_MODE {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode returns the current mode, read from ENV_MODE_KEY on first use.
func Mode() ENV_MODE {
	mu.RLock()
	env := currentEnv
	mu.RUnlock()
	if env != "" {
		return env
	}

	mu.Lock()
	defer mu.Unlock()
	if currentEnv == "" {
		currentEnv = ParseEnv(os.Getenv(ENV_MODE_KEY))
	}
	return currentEnv
}

// SetMode overrides the mode for this process.
func SetMode(mode ENV_MODE) {
	mu.Lock()
	defer mu.Unlock()
	currentEnv = mode
	_ = os.Setenv(ENV_MODE_KEY, string(mode))
}

func (m ENV_MODE) String() string {
	return string(m)
}
