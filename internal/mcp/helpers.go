package mcpserver

import (
	"encoding/json"
	"fmt"
	"math"
)

// stringArg returns a string argument or "".
func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func requiredString(args map[string]any, key string) (string, error) {
	v := stringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// intArg returns an optional integer argument. JSON numbers arrive as float64.
func intArg(args map[string]any, key string) (*int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	f, ok := raw.(float64)
	if !ok {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	if math.Abs(f) > math.MaxInt32 {
		return nil, fmt.Errorf("%s is out of range", key)
	}
	n := int(f)
	return &n, nil
}

func requiredInt(args map[string]any, key string) (int, error) {
	n, err := intArg(args, key)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	return *n, nil
}

func boolArg(args map[string]any, key string) *bool {
	v, ok := args[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

// rawArg accepts a JSON object either as a string or as an inline object.
func rawArg(args map[string]any, key string) (json.RawMessage, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("%s is not valid JSON", key)
		}
		return json.RawMessage(v), nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return data, nil
	}
}

func boolPtr(v bool) *bool { return &v }
