package qp

import (
	"strings"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// DeviceBucket is one line-item grouping of the campaign's device selection.
type DeviceBucket struct {
	Name    string
	Devices models.FilterItems
}

// DeviceBuckets derives the line-item buckets from a device-targeting
// selection: all four device types collapse into the single omni bucket,
// exactly PC+Mobile+Tablet collapse into PMT, anything else gets one bucket
// per selected device.
func DeviceBuckets(selected models.FilterItems) []DeviceBucket {
	if len(selected) == totalDeviceTypes {
		return []DeviceBucket{{Name: DeviceBucketOmni, Devices: selected}}
	}

	values := make(map[string]bool, len(selected))
	for _, device := range selected {
		values[device.Value] = true
	}
	if values[deviceValuePC] && values[deviceValueMob] && values[deviceValueTab] {
		return []DeviceBucket{{Name: DeviceBucketPMT, Devices: selected}}
	}

	buckets := make([]DeviceBucket, 0, len(selected))
	for _, device := range selected {
		buckets = append(buckets, DeviceBucket{
			Name:    deviceBucketNames[device.Value],
			Devices: models.FilterItems{device},
		})
	}
	return buckets
}

// MergedKeywords flattens the campaign's content theme lists into one
// deduplicated keyword list, preserving first-seen order.
func MergedKeywords(themes *models.ContentThemes) []string {
	if themes == nil {
		return nil
	}

	var merged []string
	seen := make(map[string]bool)
	for _, list := range [][]string{
		themes.KeywordsFromAdvertiser,
		themes.KeywordsFromCategory,
		themes.KeywordsFromCompetitor,
		themes.KeywordsFromCultureVector,
	} {
		for _, keyword := range list {
			if seen[keyword] {
				continue
			}
			seen[keyword] = true
			merged = append(merged, keyword)
		}
	}
	return merged
}

// TargetingCategories flattens every configured targeting section, keeps the
// categories admitted for the given platform, and deduplicates them by full
// name, preserving first-seen order.
//
// TTD only admits its Affinity and CAT category types. XANDR draws from the
// XND sub-vendor, which admits four specific types. Every other platform
// admits its own categories unfiltered.
func TargetingCategories(campaign *models.Campaign, platform string) []models.RetoolTarget {
	var all []models.RetoolTarget
	for _, section := range campaign.Targets.Sections() {
		all = append(all, section.Targets...)
	}

	var filtered []models.RetoolTarget
	for _, category := range all {
		if admitsCategory(platform, category) {
			filtered = append(filtered, category)
		}
	}

	var deduped []models.RetoolTarget
	seen := make(map[string]bool)
	for _, category := range filtered {
		if seen[category.FullName] {
			continue
		}
		seen[category.FullName] = true
		deduped = append(deduped, category)
	}
	return deduped
}

func admitsCategory(platform string, category models.RetoolTarget) bool {
	if platform == category.Platform && category.Platform == PlatformTTD {
		return category.Type == "Affinity" || category.Type == "CAT"
	}
	if platform == PlatformXANDR && category.Platform == "XND" {
		switch category.Type {
		case "Environics", "INM", "3PD Dstillery", "Dstillery Predictive Location":
			return true
		default:
			return false
		}
	}
	return platform == category.Platform
}

// joinName builds a remote display name from ordered segments, dropping the
// empty ones. Names double as a human audit trail, so the output must be
// reproducible byte for byte.
func joinName(segments []string) string {
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		kept = append(kept, segment)
	}
	return strings.Join(kept, "_")
}
