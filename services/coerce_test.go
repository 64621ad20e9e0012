package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in   any
		want *float64
	}{
		{json.Number("50.00"), ptr(50.0)},
		{"$1,000.50", ptr(1000.5)},
		{"net-30", ptr(30.0)},
		{12.5, ptr(12.5)},
		{"none", nil},
		{nil, nil},
		{true, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, asFloat(tt.in), "%v", tt.in)
	}
}

func TestAsInt_Rounds(t *testing.T) {
	got := asInt(json.Number("29.6"))
	require.NotNil(t, got)
	assert.Equal(t, 30, *got)

	got = asInt("30 days")
	require.NotNil(t, got)
	assert.Equal(t, 30, *got)

	assert.Nil(t, asInt("unlimited"))
}

func TestAsStrings(t *testing.T) {
	assert.Equal(t, []string{}, asStrings(nil))
	assert.Equal(t, []string{"single"}, asStrings("  single "))
	assert.Equal(t,
		[]string{"a", "from text", "3", "nested value"},
		asStrings([]any{"a", map[string]any{"text": "from text"}, json.Number("3"), "", map[string]any{"other": "nested value"}}),
	)
}

func TestAsOptionalString(t *testing.T) {
	assert.Nil(t, asOptionalString("null"))
	assert.Nil(t, asOptionalString("None"))
	assert.Nil(t, asOptionalString(nil))
	got := asOptionalString("10% for 12 months")
	require.NotNil(t, got)
	assert.Equal(t, "10% for 12 months", *got)
}

func TestAsString_Lists(t *testing.T) {
	assert.Equal(t, "PayPal, Wire", asString([]any{"PayPal", "Wire"}))
	assert.Equal(t, "", asString(map[string]any{}))
}

func TestFirstStringAndFirstPresent(t *testing.T) {
	m := map[string]any{"url": "https://x", "website": "", "list": []any{}}
	assert.Equal(t, "https://x", firstString(m, "website", "url"))
	assert.Nil(t, firstPresent(m, "missing"))
	assert.Equal(t, []any{}, firstPresent(m, "missing", "list"))
}

func ptr[T any](v T) *T { return &v }
