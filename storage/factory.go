package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leeforge/glideformat/errors"
	"github.com/leeforge/glideformat/json"
	"github.com/leeforge/glideformat/logging"
	"github.com/leeforge/glideformat/redis_client"
)

// Provider types accepted by FromConfig.
const (
	ProviderLocal  = "local"
	ProviderMemory = "memory"
	ProviderOSS    = "oss"
	ProviderRedis  = "redis"
)

// ProviderConfig selects and configures a storage adapter.
type ProviderConfig struct {
	Type     string         `mapstructure:"type" json:"type" yaml:"type"`
	Settings map[string]any `mapstructure:"settings" json:"settings" yaml:"settings"`
}

type localSettings struct {
	Root string `json:"root" default:"."`
}

type ossSettings struct {
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"access_key_id"`
	AccessKeySecret string `json:"access_key_secret"`
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
}

type redisSettings struct {
	Host       string `json:"host" default:"127.0.0.1"`
	Port       string `json:"port" default:"6379"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	Prefix     string `json:"prefix" default:"glideformat:"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// FromConfig builds the adapter named by cfg.Type.
func FromConfig(ctx context.Context, cfg ProviderConfig, logger logging.Logger) (Filesystem, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case ProviderLocal, "":
		var s localSettings
		if err := decodeSettings(cfg, &s); err != nil {
			return nil, err
		}
		return NewLocal(s.Root)

	case ProviderMemory:
		return NewMemory(), nil

	case ProviderOSS:
		var s ossSettings
		if err := decodeSettings(cfg, &s); err != nil {
			return nil, err
		}
		if s.Endpoint == "" || s.Bucket == "" {
			return nil, errors.NewRequired("endpoint and bucket").WithDetail("provider", ProviderOSS)
		}
		return NewOSS(s.Endpoint, s.AccessKeyID, s.AccessKeySecret, s.Bucket, s.Prefix)

	case ProviderRedis:
		var s redisSettings
		if err := decodeSettings(cfg, &s); err != nil {
			return nil, err
		}
		client, err := redis_client.NewRedis(ctx, redis_client.Config{
			Host:        s.Host,
			Port:        s.Port,
			Password:    s.Password,
			DB:          s.DB,
			DialTimeout: 5 * time.Second,
		}, logger)
		if err != nil {
			return nil, errors.WrapWithType(err, errors.ErrorTypeExternal, "failed to connect redis storage").
				WithCode(errors.CodeExternalError)
		}
		return NewRedis(client, s.Prefix, time.Duration(s.TTLSeconds)*time.Second), nil

	default:
		return nil, errors.NewInvalid("type", cfg.Type, "unknown storage provider")
	}
}

func decodeSettings(cfg ProviderConfig, dst any) error {
	settings := cfg.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	if err := json.Convert(settings, dst); err != nil {
		return errors.WrapWithType(err, errors.ErrorTypeInvalid, fmt.Sprintf("invalid %s storage settings", cfg.Type))
	}
	return nil
}
