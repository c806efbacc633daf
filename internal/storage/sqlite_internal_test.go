package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixUpperBound(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
		ok     bool
	}{
		{"finance.route:", "finance.route;", true},
		{"a", "b", true},
		{"a\xff", "b", true},
		{"\xff\xff", "", false},
	}
	for _, tt := range tests {
		got, ok := prefixUpperBound(tt.prefix)
		assert.Equal(t, tt.ok, ok, tt.prefix)
		assert.Equal(t, tt.want, got, tt.prefix)
	}
}
