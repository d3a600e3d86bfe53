package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProductRef(t *testing.T) {
	tests := []struct {
		ref string
		id  int64
		ok  bool
	}{
		{"predefined_7", 7, true},
		{"product_7", 7, true},
		{"7", 7, true},
		{"predefined_123", 123, true},
		{"", 0, false},
		{"predefined_", 0, false},
		{"predefined_abc", 0, false},
		{"custom-1700000000000", 0, false},
		{"garbage", 0, false},
	}

	for _, tt := range tests {
		id, ok := ParseProductRef(tt.ref)
		assert.Equal(t, tt.ok, ok, "ref %q", tt.ref)
		assert.Equal(t, tt.id, id, "ref %q", tt.ref)
	}
}
