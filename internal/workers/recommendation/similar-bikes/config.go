// internal/workers/recommendation/similar-bikes/config.go
package similarbikes

import (
	"time"

	"bike-recommender/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// ConfigFrom reads the worker section for TaskType, falling back to the
// shared worker defaults.
func ConfigFrom(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Config{Timeout: timeout}
}
