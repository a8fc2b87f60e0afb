// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

//go:embed activities.json
var defaultRegistry []byte

const (
	TaskSearchProductPage = "perfume-search-product-page"
	TaskScrapeProductPage = "perfume-scrape-product-page"
	TaskExtractAttributes = "perfume-extract-attributes"
	TaskDraftDescription  = "perfume-draft-description"
	TaskOptimizeSEO       = "perfume-optimize-seo"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return &reg, nil
}

// Default returns the embedded stage catalogue.
func Default() *ActivityRegistry {
	reg, err := Parse(defaultRegistry)
	if err != nil {
		panic(err)
	}
	return reg
}

func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists task types in pipeline order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, len(r.Activities))
	for i, a := range r.Activities {
		out[i] = a.TaskType
	}
	return out
}

// TimeoutDuration parses Timeout, falling back when it is empty or invalid.
func (a *Activity) TimeoutDuration(fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// OutputProperty returns the schema of one output variable.
func (a *Activity) OutputProperty(name string) (map[string]interface{}, bool) {
	props, ok := a.OutputSchema["properties"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	prop, ok := props[name].(map[string]interface{})
	return prop, ok
}
