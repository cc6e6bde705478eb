package config

import (
	"net/url"
	"strings"
)

// urlKeys lists the dot-separated keys holding URLs that may carry credentials.
var urlKeys = map[string]bool{
	"api_url": true,
}

// Flatten converts a nested map into a flat map with dot-separated keys.
// For example, {"retry": {"max_attempts": 3}} becomes {"retry.max_attempts": 3}.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	flatten("", m, out)
	return out
}

func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = v
	}
}

// Unflatten converts a flat map with dot-separated keys back into a nested map.
func Unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range flat {
		parts := strings.Split(k, ".")
		current := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = v
	}
	return out
}

// MaskSecrets returns a copy of the flat map with passwords in URL values
// replaced by "xxxxx".
func MaskSecrets(flat map[string]any) map[string]any {
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		out[k] = v
		s, ok := v.(string)
		if !ok || !urlKeys[k] {
			continue
		}
		u, err := url.Parse(s)
		if err != nil || u.User == nil {
			continue
		}
		out[k] = u.Redacted()
	}
	return out
}
