package invoice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"2024-03-12", "2024-03-12"},
		{"2024-3-5", "2024-03-05"},
		{"2024/03/12", "2024-03-12"},
		{"12-03-2024", "2024-03-12"},
		{"12.03.2024", "2024-03-12"},
		{"12/03/2024", "2024-03-12"},
		{"03/25/2024", "2024-03-25"},
		{"Mar 12, 2024", "2024-03-12"},
		{"12 Mar, 2024", "2024-03-12"},
		{"March 12, 2024", "2024-03-12"},
		{"12 March, 2024", "2024-03-12"},
		{"24-03-12", "2024-03-12"},
		{"20240312", "2024-03-12"},
		{json.Number("20240312"), "2024-03-12"},
		{20240312.0, "2024-03-12"},
		{" 2024-03-12 ", "2024-03-12"},
	}

	for _, tt := range tests {
		got := NormalizeDate(tt.in)
		require.NotNil(t, got, "%v", tt.in)
		assert.Equal(t, tt.want, *got, "%v", tt.in)
	}
}

func TestNormalizeDateKeepsUnparseable(t *testing.T) {
	for _, in := range []string{"next Tuesday", "2024-02-30", "Q3 2024"} {
		got := NormalizeDate(in)
		require.NotNil(t, got)
		assert.Equal(t, in, *got)
	}
}

func TestNormalizeDateEmpty(t *testing.T) {
	assert.Nil(t, NormalizeDate(nil))
	assert.Nil(t, NormalizeDate(""))
	assert.Nil(t, NormalizeDate("   "))
	assert.Nil(t, NormalizeDate(true))
	assert.Nil(t, NormalizeDate(map[string]any{"day": 1}))
}

func TestNormalizeDateIsIdempotent(t *testing.T) {
	for _, in := range []string{"12/03/2024", "Mar 12, 2024", "20240312", "next Tuesday", "24-03-12"} {
		once := NormalizeDate(in)
		require.NotNil(t, once)
		twice := NormalizeDate(*once)
		require.NotNil(t, twice)
		assert.Equal(t, *once, *twice, in)
	}
}
