// internal/workers/matching/get-recommendations/config.go
package getrecommendations

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		DefaultLimit: 10,
	}
}
