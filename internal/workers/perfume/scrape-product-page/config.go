// internal/workers/perfume/scrape-product-page/config.go
package scrapeproductpage

import (
	"time"

	"perfume-studio/pkg/registry"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	timeout := 15 * time.Second
	if activity, ok := registry.Default().Find(TaskType); ok {
		timeout = activity.TimeoutDuration(timeout)
	}
	return &Config{Timeout: timeout}
}
