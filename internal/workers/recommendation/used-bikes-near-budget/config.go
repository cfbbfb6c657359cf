// internal/workers/recommendation/used-bikes-near-budget/config.go
package usedbikesnearbudget

import (
	"time"

	"bike-recommender/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func ConfigFrom(cfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(cfg, TaskType)
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Config{Timeout: timeout}
}
