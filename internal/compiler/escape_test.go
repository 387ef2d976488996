package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"plain", "plain"},
		{"", ""},
		{"%20", " "},
		{"%e2%82%ac", "€"},
		{"#20AC", "€"},
		{"0x20ac", "€"},
		{"0X20ac", "0X20ac"},
		{"#12", "#12"},
		{"%2", "%2"},
		{"%zz", "%zz"},
		{"0xg000", "0xg000"},
		{"a%2Cb", "a,b"},
		{"%41#0042", "AB"},
		{"box", "box"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, _, err := decodeString(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeStringErrors(t *testing.T) {
	tests := []struct {
		raw    string
		offset int
	}{
		{"%C3", 3},
		{"%C3x", 3},
		{"ok%FFok", 5},
		{"#DC00", 0},
		{"ab0xD800", 2},
		{"\xff", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, offset, err := decodeString(tt.raw)
			require.Error(t, err)
			assert.Equal(t, tt.offset, offset)
		})
	}
}
