package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexible(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"12.5", 12.5},
		{"12,5", 12.5},
		{"1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{" 0,093 ", 0.093},
		{"150", 150},
	}
	for _, tc := range cases {
		got, err := ParseFlexible(tc.raw)
		require.NoError(t, err, tc.raw)
		assert.InDelta(t, tc.want, got, 1e-9, tc.raw)
	}
}

func TestParseFlexibleRejectsJunk(t *testing.T) {
	for _, raw := range []string{"", "  ", "abc", "12,34,56x"} {
		_, err := ParseFlexible(raw)
		assert.Error(t, err, raw)
	}
}

func TestFlexFloatScan(t *testing.T) {
	var f FlexFloat
	require.NoError(t, f.Scan([]byte("1.234,56")))
	assert.InDelta(t, 1234.56, f.Float64(), 1e-9)

	require.NoError(t, f.Scan(float64(0.2)))
	assert.InDelta(t, 0.2, f.Float64(), 1e-9)

	require.NoError(t, f.Scan(nil))
	assert.Zero(t, f.Float64())

	assert.Error(t, f.Scan(true))
}

func TestFlexFloatJSON(t *testing.T) {
	var payload struct {
		Value FlexFloat `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"value": "12,5"}`), &payload))
	assert.InDelta(t, 12.5, payload.Value.Float64(), 1e-9)

	require.NoError(t, json.Unmarshal([]byte(`{"value": 0.093}`), &payload))
	assert.InDelta(t, 0.093, payload.Value.Float64(), 1e-9)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": 0.093}`, string(out))
}
