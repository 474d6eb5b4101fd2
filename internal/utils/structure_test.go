package utils

import (
	"reflect"
	"testing"
)

func TestCheckKeySet(t *testing.T) {
	required := []string{"email", "phone"}
	optional := []string{"gender"}

	cases := []struct {
		name       string
		provided   []string
		ok         bool
		missing    []string
		unexpected []string
	}{
		{"exact required", []string{"email", "phone"}, true, nil, nil},
		{"with optional", []string{"email", "phone", "gender"}, true, nil, nil},
		{"missing required", []string{"email"}, false, []string{"phone"}, nil},
		{"unexpected key", []string{"email", "phone", "admin"}, false, nil, []string{"admin"}},
		{"both faults", []string{"admin"}, false, []string{"email", "phone"}, []string{"admin"}},
		{"empty payload", nil, false, []string{"email", "phone"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := CheckKeySet(required, optional, tc.provided)
			if res.OK != tc.ok {
				t.Fatalf("OK = %v, want %v", res.OK, tc.ok)
			}
			if !reflect.DeepEqual(res.Missing, tc.missing) {
				t.Fatalf("Missing = %v, want %v", res.Missing, tc.missing)
			}
			if !reflect.DeepEqual(res.Unexpected, tc.unexpected) {
				t.Fatalf("Unexpected = %v, want %v", res.Unexpected, tc.unexpected)
			}
		})
	}
}
