// internal/autofill/resolver_test.go
package autofill

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	testCases := []struct {
		name  string
		key   string
		data  Record
		value string
		ok    bool
	}{
		{"direct entry", "email", Record{"email": "a@b.c"}, "a@b.c", true},
		{"direct entry wins over derivation", "first_name", Record{"first_name": "Jo", "name": "Alex Smith"}, "Jo", true},
		{"missing key", "phone", Record{"email": "a@b.c"}, "", false},
		{"empty direct entry is missing", "phone", Record{"phone": ""}, "", false},
		{"first name from full name", "first_name", Record{"name": "Alex Q Smith"}, "Alex", true},
		{"last name from full name", "last_name", Record{"name": "Alex Q Smith"}, "Smith", true},
		{"last name of single word name", "last_name", Record{"name": "Alex"}, "", true},
		{"first name of blank name", "first_name", Record{"name": "   "}, "", true},
		{"full name from parts", "name", Record{"first_name": "Alex", "last_name": "Smith"}, "Alex Smith", true},
		{"full name from one empty part", "name", Record{"first_name": "Alex", "last_name": ""}, "Alex", true},
		{"full name needs both parts", "name", Record{"first_name": "Alex"}, "", false},
		{"nil record", "email", nil, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, ok := Resolve(tc.key, tc.data)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.value, value)
		})
	}
}
