package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterItemsValues(t *testing.T) {
	items := FilterItems{
		{Label: "DV360", Value: "DV360"},
		{Label: "The Trade Desk", Value: "TTD"},
	}
	assert.Equal(t, []string{"DV360", "TTD"}, items.Values())
	assert.Empty(t, FilterItems{}.Values())

	// The single-item selections are plain structs read field by field.
	goal := FilterItem{Label: "Awareness", Value: "BRAND_AWARENESS"}
	assert.Equal(t, "BRAND_AWARENESS", goal.Value)
}

func TestFilterItemsScanRoundTrip(t *testing.T) {
	items := FilterItems{{Label: "Display", Value: "DIS"}}

	raw, err := items.Value()
	require.NoError(t, err)

	var decoded FilterItems
	require.NoError(t, decoded.Scan(raw))
	assert.Equal(t, items, decoded)

	var fromNil FilterItems
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil)
}
