package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// jsonScan decodes a jsonb column into dst.
func jsonScan(dst any, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dst)
	}
}

// StringArray represents a PostgreSQL text[] type
type StringArray []string

// Scan implements the sql.Scanner interface
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		// Handle PostgreSQL array format: {value1,value2,value3}
		if v == "{}" || v == "" {
			*s = StringArray{}
			return nil
		}

		trimmed := strings.Trim(v, "{}")
		if trimmed == "" {
			*s = StringArray{}
			return nil
		}

		parts := strings.Split(trimmed, ",")
		result := make([]string, len(parts))
		for i, part := range parts {
			result[i] = strings.Trim(strings.TrimSpace(part), "\"")
		}
		*s = result
		return nil
	case []byte:
		var arr []string
		if err := json.Unmarshal(v, &arr); err == nil {
			*s = arr
			return nil
		}
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}

	quoted := make([]string, len(s))
	for i, v := range s {
		escaped := strings.ReplaceAll(v, "\"", "\\\"")
		quoted[i] = fmt.Sprintf("\"%s\"", escaped)
	}

	return fmt.Sprintf("{%s}", strings.Join(quoted, ",")), nil
}

// FilterItem is the generic label/value pair used across campaign selections
// (platforms, channels, goal, currency, gender, device targeting and so on).
// It carries no Scanner/Valuer pair of its own: a Value method would collide
// with the Value field, so columns storing a single item use the gorm JSON
// serializer instead.
type FilterItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type FilterItems []FilterItem

func (f *FilterItems) Scan(value interface{}) error { return jsonScan(f, value) }
func (f FilterItems) Value() (driver.Value, error)  { return json.Marshal(f) }

// Values returns the raw value list of the items.
func (f FilterItems) Values() []string {
	values := make([]string, 0, len(f))
	for _, item := range f {
		values = append(values, item.Value)
	}
	return values
}

// ExclusionItem carries per-platform ids for a single selectable entry,
// used for content exclusions and geo locations.
type ExclusionItem struct {
	Label      string `json:"label"`
	TTDValue   string `json:"ttdValue"`
	DV360Value string `json:"dv360Value"`
}

// GeographicDetails is the advertiser-level locale selection.
type GeographicDetails struct {
	TimeZone  FilterItem    `json:"timeZone"`
	Currency  FilterItem    `json:"currency"`
	Locations ExclusionItem `json:"locations"`
}

func (g *GeographicDetails) Scan(value interface{}) error { return jsonScan(g, value) }
func (g GeographicDetails) Value() (driver.Value, error)  { return json.Marshal(g) }

// Flight is a single campaign flight date range.
type Flight struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type Flights []Flight

func (f *Flights) Scan(value interface{}) error { return jsonScan(f, value) }
func (f Flights) Value() (driver.Value, error)  { return json.Marshal(f) }

// GamePlanDetails holds the KPI/budget plan attached to a campaign.
type GamePlanDetails struct {
	Kpi1Name             string      `json:"kpi1Name"`
	Kpi1Value            string      `json:"kpi1Value"`
	Kpi1Unit             string      `json:"kpi1Unit,omitempty"`
	Kpi2Name             string      `json:"kpi2Name"`
	Kpi2Value            string      `json:"kpi2Value"`
	Kpi2Unit             string      `json:"kpi2Unit,omitempty"`
	Kpi3Name             string      `json:"kpi3Name"`
	Kpi3Value            string      `json:"kpi3Value"`
	Kpi3Unit             string      `json:"kpi3Unit,omitempty"`
	BillingMetric        FilterItem  `json:"billingMetric"`
	Rate                 float64     `json:"rate"`
	Budget               float64     `json:"budget"`
	EstimatedImpressions int64       `json:"estimatedImpressions"`
	Format               FilterItems `json:"format,omitempty"`
	BidStrategyType      *FilterItem `json:"bidStrategyType,omitempty"`
}

func (g *GamePlanDetails) Scan(value interface{}) error { return jsonScan(g, value) }
func (g GamePlanDetails) Value() (driver.Value, error)  { return json.Marshal(g) }

// ContentThemes collects keyword lists accumulated from the suggestion subsystem.
type ContentThemes struct {
	KeywordsFromAdvertiser    []string `json:"keywordsFromAdvertiser"`
	KeywordsFromCompetitor    []string `json:"keywordsFromCompetitor"`
	KeywordsFromCategory      []string `json:"keywordsFromCategory"`
	KeywordsFromCultureVector []string `json:"keywordsFromCultureVector"`
}

func (c *ContentThemes) Scan(value interface{}) error { return jsonScan(c, value) }
func (c ContentThemes) Value() (driver.Value, error)  { return json.Marshal(c) }

// LimitFrequency is the frequency-cap selection: at most Frequency impressions
// per ExposerPer units of ExposerFrequency.
type LimitFrequency struct {
	Frequency        int        `json:"frequency"`
	ExposerPer       int        `json:"exposerPer"`
	ExposerFrequency FilterItem `json:"exposerFrequency"`
}

// IOTarget carries the insertion-order level targeting selections.
type IOTarget struct {
	LimitFrequency           LimitFrequency  `json:"limitFrequency"`
	TotalMediaCost           float64         `json:"totalMediaCost"`
	Fees                     FilterItem      `json:"fees"`
	DeviceTargeting          FilterItems     `json:"deviceTargeting"`
	Viewability              int             `json:"viewability"`
	CategoryContentExclusion []ExclusionItem `json:"categoryContentExclusion"`
}

func (t *IOTarget) Scan(value interface{}) error { return jsonScan(t, value) }
func (t IOTarget) Value() (driver.Value, error)  { return json.Marshal(t) }

// Demographic is the age/gender selection.
type Demographic struct {
	From   int        `json:"from"`
	To     int        `json:"to"`
	Gender FilterItem `json:"gender"`
}

type DemographicInformation struct {
	Demographic   Demographic `json:"demographic"`
	Category      FilterItem  `json:"category"`
	CultureVector FilterItems `json:"cultureVector"`
}

func (d *DemographicInformation) Scan(value interface{}) error { return jsonScan(d, value) }
func (d DemographicInformation) Value() (driver.Value, error)  { return json.Marshal(d) }

// RetoolTarget is a precomputed targeting category ranked by the keyword
// subsystem; consumed here as an opaque tuple.
type RetoolTarget struct {
	Platform             string  `json:"platform"`
	Type                 string  `json:"type"`
	FullName             string  `json:"fullName"`
	LineItemNameVariable string  `json:"lineItemNameVariable"`
	Leaf                 string  `json:"leaf"`
	PlatformID           string  `json:"platformId"`
	Relevance            float64 `json:"relevance"`
	RowNumber            int     `json:"rowNumber"`
}

// TargetSection groups categories of one type from one vendor.
type TargetSection struct {
	Name     string         `json:"name"`
	Platform string         `json:"platform"`
	Type     string         `json:"type"`
	Targets  []RetoolTarget `json:"targets"`
}

// TargetGroups holds every configured targeting section of a campaign.
type TargetGroups struct {
	Audience []TargetSection `json:"audience"`
	Content  []TargetSection `json:"content"`
	Location []TargetSection `json:"location"`
	Cultural []TargetSection `json:"cultural"`
	T3pd     []TargetSection `json:"t3pd"`
	Vividata []TargetSection `json:"vividata"`
}

func (t *TargetGroups) Scan(value interface{}) error { return jsonScan(t, value) }
func (t TargetGroups) Value() (driver.Value, error)  { return json.Marshal(t) }

// Sections flattens all groups in a fixed order so the line-item enumeration
// stays deterministic across runs.
func (t *TargetGroups) Sections() []TargetSection {
	if t == nil {
		return nil
	}
	var sections []TargetSection
	sections = append(sections, t.Audience...)
	sections = append(sections, t.Content...)
	sections = append(sections, t.Location...)
	sections = append(sections, t.Cultural...)
	sections = append(sections, t.T3pd...)
	sections = append(sections, t.Vividata...)
	return sections
}
