package handler

import (
	"encoding/json"
	"sort"
)

// topLevelKeys lists a decoded object's immediate keys, sorted. Nested
// payloads are checked one level at a time: each embedded object gets its own
// CheckKeySet call against its own schema.
func topLevelKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stringSlice coerces a decoded JSON array into []string.
func stringSlice(v any) ([]string, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// jsonArray marshals a string slice for storage in a JSON column.
func jsonArray(in []string) ([]byte, error) {
	if in == nil {
		in = []string{}
	}
	return json.Marshal(in)
}
