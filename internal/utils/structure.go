package utils

import "sort"

// KeySetResult reports how a payload's key set compares with a schema's
// declared keys.
type KeySetResult struct {
	OK         bool
	Missing    []string // required keys absent from the payload
	Unexpected []string // payload keys that are neither required nor optional
}

// CheckKeySet compares provided keys against a schema descriptor: every
// required key must be present and every provided key must be declared
// (required or optional).  Schemas are static per entity; nothing is inferred
// from live data at runtime.
func CheckKeySet(required, optional, provided []string) KeySetResult {
	res := KeySetResult{OK: true}
	declared := make(map[string]bool, len(required)+len(optional))
	for _, k := range required {
		declared[k] = true
	}
	for _, k := range optional {
		declared[k] = true
	}
	have := make(map[string]bool, len(provided))
	for _, k := range provided {
		have[k] = true
	}
	for _, k := range required {
		if !have[k] {
			res.Missing = append(res.Missing, k)
		}
	}
	for _, k := range provided {
		if !declared[k] {
			res.Unexpected = append(res.Unexpected, k)
		}
	}
	sort.Strings(res.Missing)
	sort.Strings(res.Unexpected)
	res.OK = len(res.Missing) == 0 && len(res.Unexpected) == 0
	return res
}
