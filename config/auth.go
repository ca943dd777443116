package config

import "time"

type AuthConfig struct {
	// KeyPrefix is required on every raw API key.
	KeyPrefix string `yaml:"keyPrefix"`

	// CacheTTL bounds how long a validation result is served from cache.
	CacheTTL time.Duration `yaml:"cacheTTL"`

	// RedisAddr enables the redis-backed validation cache when set;
	// otherwise the in-process cache is used.
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
}

func NewAuthConfig() *AuthConfig {
	return &AuthConfig{
		KeyPrefix: "egm_",
		CacheTTL:  60 * time.Second,
	}
}
