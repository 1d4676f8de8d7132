package commandstructure

import (
	"fmt"
	"strings"
)

// Command parameters come from YAML or JSON, so numbers may arrive as int,
// int64 or float64 and booleans as bool or string. The Get helpers fall back
// to the default when a key is missing or holds a value of another kind.

func GetStringParam(params map[string]any, key string, defaultValue string) string {
	if s, ok := params[key].(string); ok {
		return s
	}
	return defaultValue
}

func GetIntParam(params map[string]any, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultValue
	}
}

func GetBoolParam(params map[string]any, key string, defaultValue bool) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true
		case "false":
			return false
		}
	}
	return defaultValue
}

// ValidateRequiredParams reports the first key in required that params lacks.
func ValidateRequiredParams(params map[string]any, required []string) error {
	for _, key := range required {
		if _, ok := params[key]; !ok {
			return fmt.Errorf("missing required parameter: %s", key)
		}
	}
	return nil
}
