package contractsteps

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bool64/shared"
	"github.com/godogx/vars"
	"gopkg.in/yaml.v3"
)

// ScenarioProps gives read access to properties of current scenario.
type ScenarioProps struct {
	vars *shared.Vars
}

// PropsFromContext returns scenario properties carried by context, creating storage if missing.
func PropsFromContext(ctx context.Context) (context.Context, ScenarioProps) {
	ctx, v := vars.Fork(ctx)

	return ctx, ScenarioProps{vars: v}
}

// SetProperty sets scenario property in context.
func SetProperty(ctx context.Context, key, value string) context.Context {
	ctx, v := vars.Fork(ctx)
	v.Set(key, value)

	return ctx
}

// GetAsString returns property value, or empty string if property is absent.
func (p ScenarioProps) GetAsString(key string) string {
	if p.vars == nil {
		return ""
	}

	v, ok := p.vars.Get(key)
	if !ok || v == nil {
		return ""
	}

	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}

// Require returns values of keys or fails with *MissingScenarioPropertyError for absent or empty property.
func (p ScenarioProps) Require(keys ...string) ([]string, error) {
	values := make([]string, 0, len(keys))

	for _, k := range keys {
		v := p.GetAsString(k)
		if v == "" {
			return nil, &MissingScenarioPropertyError{Key: k}
		}

		values = append(values, v)
	}

	return values, nil
}

// Scenario carries resolved properties for a single step invocation.
type Scenario struct {
	Address string
	Token   string
}

// LoadProperties reads scenario properties from YAML file.
//
// Nested mappings are flattened to dotted keys, so
//
//	reqresin:
//	  address: localhost:8080
//
// results in `reqresin.address` property.
func LoadProperties(filePath string) (map[string]string, error) {
	data, err := os.ReadFile(filePath) // nolint:gosec // File inclusion via variable during tests.
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode properties %s: %w", filePath, err)
	}

	props := make(map[string]string)
	flatten(props, "", doc)

	return props, nil
}

func flatten(props map[string]string, prefix string, doc map[string]interface{}) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch v := doc[k].(type) {
		case map[string]interface{}:
			flatten(props, key, v)
		case nil:
			props[key] = ""
		case []interface{}:
			items := make([]string, 0, len(v))
			for _, i := range v {
				items = append(items, fmt.Sprint(i))
			}

			props[key] = strings.Join(items, ",")
		default:
			props[key] = fmt.Sprint(v)
		}
	}
}
