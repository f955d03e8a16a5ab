// Package schema publishes JSON schemas for the API response contracts,
// reflected from the Go types with github.com/swaggest/jsonschema-go.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/swaggest/jsonschema-go"
)

// entry is a registered contract type and its generated schema, filled on
// first Get.
type entry struct {
	value      any
	skipFields []string
	generated  string
}

var (
	mu       sync.Mutex
	registry = make(map[string]*entry)
)

// ErrUnknownLabel is returned by Get for labels that were never registered.
var ErrUnknownLabel = errors.New("unknown schema label")

// Register adds v under label, replacing and invalidating any earlier entry.
func Register(label string, v any, skipFields ...string) {
	mu.Lock()
	defer mu.Unlock()
	registry[label] = &entry{value: v, skipFields: skipFields}
}

// Get returns the JSON schema for label, generating it once.
func Get(label string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	e, ok := registry[label]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownLabel, label)
	}
	if e.generated != "" {
		return e.generated, nil
	}

	out, err := GenerateJSON(e.value, e.skipFields...)
	if err != nil {
		return "", fmt.Errorf("failed to generate schema for %s: %w", label, err)
	}
	e.generated = out
	return out, nil
}

// Labels returns all registered schema labels in sorted order.
func Labels() []string {
	mu.Lock()
	defer mu.Unlock()
	labels := make([]string, 0, len(registry))
	for label := range registry {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// GenerateJSON reflects v into a JSON schema with all definitions inlined.
// Properties whose JSON names appear in skipFields are left out.
func GenerateJSON(v any, skipFields ...string) (string, error) {
	opts := []func(*jsonschema.ReflectContext){jsonschema.InlineRefs}
	if len(skipFields) > 0 {
		opts = append(opts, jsonschema.InterceptProp(func(params jsonschema.InterceptPropParams) error {
			if slices.Contains(skipFields, params.Name) {
				return jsonschema.ErrSkipProperty
			}
			return nil
		}))
	}

	var r jsonschema.Reflector
	s, err := r.Reflect(v, opts...)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
