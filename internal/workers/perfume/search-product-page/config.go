// internal/workers/perfume/search-product-page/config.go
package searchproductpage

import (
	"time"

	"perfume-studio/pkg/registry"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	timeout := 30 * time.Second
	if activity, ok := registry.Default().Find(TaskType); ok {
		timeout = activity.TimeoutDuration(timeout)
	}
	return &Config{Timeout: timeout}
}
