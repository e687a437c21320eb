package printing

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RenderOptions maps an option name to its canonical string value.
type RenderOptions map[string]string

// MergeOptions returns a new map holding defaults overridden by overrides.
// Unknown override keys are kept; BuildArgs rejects them.
func MergeOptions(defaults, overrides RenderOptions) RenderOptions {
	merged := make(RenderOptions, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

func normalizeValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		if val {
			return "1", nil
		}
		return "0", nil
	case json.Number:
		return val.String(), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported option value type %T", v)
	}
}
