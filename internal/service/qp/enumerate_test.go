package qp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

func devices(values ...string) models.FilterItems {
	labels := map[string]string{"1": "PC", "2": "Mobile", "3": "Tablet", "4": "Connected TV"}
	items := make(models.FilterItems, 0, len(values))
	for _, v := range values {
		items = append(items, models.FilterItem{Label: labels[v], Value: v})
	}
	return items
}

func TestDeviceBucketsAllDevices(t *testing.T) {
	buckets := DeviceBuckets(devices("1", "2", "3", "4"))
	require.Len(t, buckets, 1)
	assert.Equal(t, "OMN", buckets[0].Name)
	assert.Len(t, buckets[0].Devices, 4)
}

func TestDeviceBucketsPCMobileTablet(t *testing.T) {
	buckets := DeviceBuckets(devices("1", "2", "3"))
	require.Len(t, buckets, 1)
	assert.Equal(t, "PMT", buckets[0].Name)
	assert.Len(t, buckets[0].Devices, 3)
}

func TestDeviceBucketsPerDevice(t *testing.T) {
	buckets := DeviceBuckets(devices("1", "4"))
	require.Len(t, buckets, 2)
	assert.Equal(t, "PC", buckets[0].Name)
	assert.Equal(t, devices("1"), buckets[0].Devices)
	assert.Equal(t, "CTV", buckets[1].Name)
	assert.Equal(t, devices("4"), buckets[1].Devices)
}

func TestDeviceBucketsEmptySelection(t *testing.T) {
	assert.Empty(t, DeviceBuckets(nil))
}

func TestMergedKeywordsDeduplicates(t *testing.T) {
	themes := &models.ContentThemes{
		KeywordsFromAdvertiser:    []string{"suv", "hybrid"},
		KeywordsFromCategory:      []string{"hybrid", "electric"},
		KeywordsFromCompetitor:    []string{"suv"},
		KeywordsFromCultureVector: []string{"family car"},
	}
	assert.Equal(t, []string{"suv", "hybrid", "electric", "family car"}, MergedKeywords(themes))
	assert.Nil(t, MergedKeywords(nil))
}

func TestTargetingCategoriesPlatformFilters(t *testing.T) {
	campaign := &models.Campaign{
		Targets: &models.TargetGroups{
			Audience: []models.TargetSection{{
				Targets: []models.RetoolTarget{
					{Platform: "DV360", Type: "CAT", FullName: "dv-auto"},
					{Platform: "TTD", Type: "Affinity", FullName: "ttd-affinity"},
					{Platform: "TTD", Type: "INT", FullName: "ttd-interest"},
					{Platform: "XND", Type: "Environics", FullName: "xnd-env"},
					{Platform: "XND", Type: "CAT", FullName: "xnd-cat"},
				},
			}},
			Content: []models.TargetSection{{
				Targets: []models.RetoolTarget{
					{Platform: "DV360", Type: "CAT", FullName: "dv-auto"},
					{Platform: "DV360", Type: "INT", FullName: "dv-interest"},
				},
			}},
		},
	}

	dv360 := TargetingCategories(campaign, PlatformDV360)
	require.Len(t, dv360, 2)
	assert.Equal(t, "dv-auto", dv360[0].FullName)
	assert.Equal(t, "dv-interest", dv360[1].FullName)

	ttd := TargetingCategories(campaign, PlatformTTD)
	require.Len(t, ttd, 1)
	assert.Equal(t, "ttd-affinity", ttd[0].FullName)

	xandr := TargetingCategories(campaign, PlatformXANDR)
	require.Len(t, xandr, 1)
	assert.Equal(t, "xnd-env", xandr[0].FullName)
}

func TestTargetingCategoriesNilTargets(t *testing.T) {
	assert.Empty(t, TargetingCategories(&models.Campaign{}, PlatformDV360))
}

func TestTargetingTypeFor(t *testing.T) {
	assert.Equal(t, TargetingTypeAudienceGroup, TargetingTypeFor("INM"))
	assert.Equal(t, TargetingTypeAudienceGroup, TargetingTypeFor("INT"))
	assert.Equal(t, TargetingTypeCategory, TargetingTypeFor("CAT"))
	assert.Equal(t, TargetingTypeCategory, TargetingTypeFor("Affinity"))
}

func TestJoinNameDropsEmptySegments(t *testing.T) {
	assert.Equal(t, "a_b_/", joinName([]string{"a", "", "b", "/"}))
	assert.Equal(t, "", joinName(nil))
}
