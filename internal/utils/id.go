package utils

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
)

// Every entity ID is a fixed string prefix followed by 12 hex characters
// (6 random bytes).  The prefixes double as type tags on the wire.
const (
	PrefixEmployee    = "emp_"
	PrefixFdc         = "fdc_"
	PrefixSdc         = "sdc_"
	PrefixLink        = "lin_"
	PrefixContent     = "god_"
	PrefixSubcategory = "god_sub_"
	PrefixSection     = "sec_"

	// IDHexLen is the length of the random hex suffix.
	IDHexLen = 12
)

// GenerateID returns prefix + 12 random hex characters.
func GenerateID(prefix string) (string, error) {
	buf := make([]byte, IDHexLen/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + hex.EncodeToString(buf), nil
}

// IDPattern compiles the full-match pattern for IDs with the given prefix.
// Used by the routing layer to validate path parameters before any lookup.
func IDPattern(prefix string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `[0-9a-f]{12}$`)
}
