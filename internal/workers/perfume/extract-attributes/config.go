// internal/workers/perfume/extract-attributes/config.go
package extractattributes

import (
	"time"

	"perfume-studio/internal/common/config"
	"perfume-studio/pkg/registry"
)

type Config struct {
	Timeout      time.Duration
	DefaultModel string
	Models       []string
}

func LoadConfig(genai config.GenAIConfig) *Config {
	timeout := 90 * time.Second
	if activity, ok := registry.Default().Find(TaskType); ok {
		timeout = activity.TimeoutDuration(timeout)
	}
	return &Config{
		Timeout:      timeout,
		DefaultModel: genai.DefaultModel,
		Models:       genai.Models,
	}
}

func (c *Config) modelAllowed(model string) bool {
	if len(c.Models) == 0 {
		return true
	}
	for _, m := range c.Models {
		if m == model {
			return true
		}
	}
	return false
}
