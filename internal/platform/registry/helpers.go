// internal/platform/registry/helpers.go
package registry

import (
	"time"
)

// Helpers para leer valores de ToolConfig.Custom sin type assertions repetidas.
// Los valores pueden venir de YAML (int, string, []interface{}) o de código.

// GetStringConfig retorna custom[key] si es un string no vacío.
func GetStringConfig(custom map[string]interface{}, key, defaultValue string) string {
	if val, ok := custom[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}

// GetIntConfig acepta int, int64 y float64 (números JSON).
func GetIntConfig(custom map[string]interface{}, key string, defaultValue int) int {
	switch val := custom[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	default:
		return defaultValue
	}
}

// GetBoolConfig retorna custom[key] si es un bool.
func GetBoolConfig(custom map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := custom[key].(bool); ok {
		return val
	}
	return defaultValue
}

// GetDurationConfig acepta time.Duration, segundos enteros o strings como "30s".
func GetDurationConfig(custom map[string]interface{}, key string, defaultValue time.Duration) time.Duration {
	switch val := custom[key].(type) {
	case time.Duration:
		return val
	case int:
		return time.Duration(val) * time.Second
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetSliceConfig acepta []string o []interface{} compuesto solo de strings.
func GetSliceConfig(custom map[string]interface{}, key string, defaultValue []string) []string {
	switch val := custom[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return defaultValue
			}
			out = append(out, str)
		}
		return out
	}
	return defaultValue
}
