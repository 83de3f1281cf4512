package qp

// ContentThemeKeyword is the pseudo targeting key under which the merged
// keyword line item is recorded.
const ContentThemeKeyword = "qn-content-theme"

// Device selection values as stored on a campaign.
const (
	deviceValuePC  = "1"
	deviceValueMob = "2"
	deviceValueTab = "3"
	deviceValueCTV = "4"
)

const totalDeviceTypes = 4

// Device bucket names for the grouped-selection cases.
const (
	DeviceBucketOmni = "OMN"
	DeviceBucketPMT  = "PMT"
)

// deviceBucketNames names the single-device buckets.
var deviceBucketNames = map[string]string{
	deviceValuePC:  "PC",
	deviceValueMob: "MOB",
	deviceValueTab: "TAB",
	deviceValueCTV: "CTV",
}

var dv360DeviceTypes = map[string]string{
	deviceValuePC:  "DEVICE_TYPE_COMPUTER",
	deviceValueMob: "DEVICE_TYPE_SMART_PHONE",
	deviceValueTab: "DEVICE_TYPE_TABLET",
	deviceValueCTV: "DEVICE_TYPE_CONNECTED_TV",
}

var ttdDeviceTypes = map[string]string{
	deviceValuePC:  "PC",
	deviceValueMob: "Mobile",
	deviceValueTab: "Tablet",
	deviceValueCTV: "ConnectedTV",
}

var xandrDeviceTypes = map[string]string{
	deviceValuePC:  "pc",
	deviceValueMob: "phone",
	deviceValueTab: "tablet",
	deviceValueCTV: "tv",
}

var dv360LanguageIDs = map[string]string{
	"English": "1000",
	"French":  "1002",
}

var ttdLanguageIDs = map[string]string{
	"English": "11",
	"French":  "15",
}

var xandrLanguageIDs = map[string]int{
	"English": 1,
	"French":  5,
}

var ttdAgeFromNames = map[int]string{
	18: "Eighteen",
	25: "TwentyFive",
	35: "ThirtyFive",
	45: "FortyFive",
	55: "FiftyFive",
	65: "SixtyFive",
}

var ttdAgeToNames = map[int]string{
	24: "TwentyFour",
	34: "ThirtyFour",
	44: "FortyFour",
	54: "FiftyFour",
	64: "SixtyFour",
	74: "SixtyFourPlus",
}

// targetingTypes maps a category type to its DV360 assigned-targeting type;
// anything absent falls back to TARGETING_TYPE_CATEGORY.
var targetingTypes = map[string]string{
	"INM": "TARGETING_TYPE_AUDIENCE_GROUP",
	"INT": "TARGETING_TYPE_AUDIENCE_GROUP",
}

const (
	TargetingTypeKeyword       = "TARGETING_TYPE_KEYWORD"
	TargetingTypeCategory      = "TARGETING_TYPE_CATEGORY"
	TargetingTypeAudienceGroup = "TARGETING_TYPE_AUDIENCE_GROUP"
)

// TargetingTypeFor picks the DV360 targeting type for a category type.
func TargetingTypeFor(categoryType string) string {
	if t, ok := targetingTypes[categoryType]; ok {
		return t
	}
	return TargetingTypeCategory
}

// timeUnitMinutes converts a frequency-cap time unit to minutes.
var timeUnitMinutes = map[string]int{
	"TIME_UNIT_HOURS":  60,
	"TIME_UNIT_DAYS":   1440,
	"TIME_UNIT_WEEKS":  10080,
	"TIME_UNIT_MONTHS": 43200,
}

var viewabilityEnums = map[int]string{
	10:  "VIEWABILITY_10_PERCENT_OR_MORE",
	20:  "VIEWABILITY_20_PERCENT_OR_MORE",
	30:  "VIEWABILITY_30_PERCENT_OR_MORE",
	40:  "VIEWABILITY_40_PERCENT_OR_MORE",
	50:  "VIEWABILITY_50_PERCENT_OR_MORE",
	60:  "VIEWABILITY_60_PERCENT_OR_MORE",
	70:  "VIEWABILITY_70_PERCENT_OR_MORE",
	80:  "VIEWABILITY_80_PERCENT_OR_MORE",
	90:  "VIEWABILITY_90_PERCENT_OR_MORE",
	100: "VIEWABILITY_90_PERCENT_OR_MORE",
}

var dv360GenderCodes = map[string]string{
	"Female": "F",
	"Male":   "M",
	"Both":   "A",
}

var xandrGenderCodes = map[string]string{
	"Female": "f",
	"Male":   "m",
}

var xandrGoalTypes = map[string]string{
	"CPA":         "cpc",
	"CPC":         "cpc",
	"CTR":         "ctr",
	"VIEWABILITY": "none",
}

// nonCategoryTypes are interest-style types that flip the name composition
// from category to audience.
var nonCategoryTypes = map[string]bool{
	"Affinity": true,
	"INT":      true,
	"INM":      true,
	"Interest": true,
}

// ageRange is one of the fixed demographic brackets the platforms accept.
type ageRange struct {
	from int
	to   int
}

var ageRanges = []ageRange{
	{18, 24},
	{25, 34},
	{35, 44},
	{45, 54},
	{55, 64},
	{65, 74},
}

// selectedAgeRanges returns the brackets fully contained in the campaign's
// [from, to] selection.
func selectedAgeRanges(from, to int) []ageRange {
	var selected []ageRange
	for _, r := range ageRanges {
		if r.from >= from && r.to <= to {
			selected = append(selected, r)
		}
	}
	return selected
}
