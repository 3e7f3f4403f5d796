package uuid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id := New()
	require.Len(t, id, 36)
	assert.Equal(t, byte('7'), id[14], "expected version 7")
	assert.True(t, IsCanonical(id))
	assert.NotEqual(t, id, New())
}

func TestIsCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"lowercase", "0190a6f4-3c2b-7d1e-8f00-123456789abc", true},
		{"uppercase", "0190A6F4-3C2B-7D1E-8F00-123456789ABC", true},
		{"braces", "{0190a6f4-3c2b-7d1e-8f00-123456789abc}", false},
		{"urn", "urn:uuid:0190a6f4-3c2b-7d1e-8f00-123456789abc", false},
		{"compact", "0190a6f43c2b7d1e8f00123456789abc", false},
		{"bad hex", "0190a6f4-3c2b-7d1e-8f00-123456789abg", false},
		{"misplaced hyphen", "0190a6f43-c2b-7d1e-8f00-123456789abc", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCanonical(tt.in))
		})
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("0190A6F4-3C2B-7D1E-8F00-123456789ABC")
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower("0190A6F4-3C2B-7D1E-8F00-123456789ABC"), got)

	_, err = Parse("not-a-uuid")
	assert.Error(t, err)
}
