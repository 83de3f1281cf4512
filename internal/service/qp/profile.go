package qp

import (
	"context"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// xandrProfile is the targeting profile attached to a XANDR line item, either
// inline on creation or through the script endpoint afterwards.
type xandrProfile struct {
	AdvertiserID          string                      `json:"advertiser_id,omitempty"`
	MaxLifetimeImps       *int                        `json:"max_lifetime_imps,omitempty"`
	MaxHourImps           *int                        `json:"max_hour_imps"`
	MaxDayImps            *int                        `json:"max_day_imps"`
	MaxWeekImps           *int                        `json:"max_week_imps"`
	MaxMonthImps          *int                        `json:"max_month_imps"`
	EngagementRateTargets []xandrEngagementRateTarget `json:"engagement_rate_targets,omitempty"`
	SupplyTypeTargets     []string                    `json:"supply_type_targets,omitempty"`
	AdsTxtAuthorizedOnly  bool                        `json:"ads_txt_authorized_only,omitempty"`
	SegmentGroupTargets   []xandrSegmentGroup         `json:"segment_group_targets,omitempty"`
	AgeTargets            xandrAgeTargets             `json:"age_targets"`
	GenderTargets         xandrGenderTargets          `json:"gender_targets"`
	DeviceTypeAction      string                      `json:"device_type_action"`
	DeviceTypeTargets     []string                    `json:"device_type_targets"`
	LanguageAction        string                      `json:"language_action"`
	LanguageTargets       []xandrLanguageTarget       `json:"language_targets"`
	CountryAction         string                      `json:"country_action,omitempty"`
	CountryTargets        []xandrGeoTarget            `json:"country_targets,omitempty"`
	RegionAction          string                      `json:"region_action,omitempty"`
	RegionTargets         []xandrGeoTarget            `json:"region_targets,omitempty"`
	CityAction            string                      `json:"city_action,omitempty"`
	CityTargets           []xandrGeoTarget            `json:"city_targets,omitempty"`
}

type xandrEngagementRateTarget struct {
	EngagementRateType string `json:"engagement_rate_type"`
	EngagementRatePct  int    `json:"engagement_rate_pct"`
}

type xandrSegmentGroup struct {
	BooleanOperator string       `json:"boolean_operator"`
	Segments        []xandrIDRef `json:"segments"`
}

type xandrAgeTargets struct {
	AllowUnknown bool              `json:"allow_unknown"`
	Ages         []xandrAgeBracket `json:"ages"`
}

type xandrAgeBracket struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

type xandrGenderTargets struct {
	AllowUnknown bool    `json:"allow_unknown"`
	Gender       *string `json:"gender"`
}

type xandrLanguageTarget struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Deleted bool   `json:"deleted"`
}

type xandrGeoTarget struct {
	ID          int    `json:"id"`
	Name        string `json:"name,omitempty"`
	Code        string `json:"code,omitempty"`
	RegionName  string `json:"region_name,omitempty"`
	RegionCode  string `json:"region_code,omitempty"`
	CountryName string `json:"country_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

// xandrAgeSegmentIDs maps the fixed demographic brackets to the vendor's
// audience segment ids.
var xandrAgeSegmentIDs = map[ageRange]int{
	{18, 24}: 106006,
	{25, 34}: 106007,
	{35, 44}: 106008,
	{45, 54}: 106010,
	{55, 64}: 106011,
	{65, 74}: 106012,
}

func xandrAgeTargetsFor(campaign *models.Campaign, allowUnknown bool) xandrAgeTargets {
	demographic := campaign.DemographicInformation.Demographic
	ages := []xandrAgeBracket{}
	for _, r := range selectedAgeRanges(demographic.From, demographic.To) {
		ages = append(ages, xandrAgeBracket{Low: r.from, High: r.to})
	}
	return xandrAgeTargets{AllowUnknown: allowUnknown, Ages: ages}
}

func xandrGenderTargetsFor(campaign *models.Campaign) xandrGenderTargets {
	targets := xandrGenderTargets{AllowUnknown: true}
	if code, ok := xandrGenderCodes[campaign.DemographicInformation.Demographic.Gender.Value]; ok {
		targets.Gender = &code
	}
	return targets
}

func xandrDeviceTargetsFor(deviceTargeting models.FilterItems) []string {
	targets := make([]string, 0, len(deviceTargeting))
	for _, device := range deviceTargeting {
		targets = append(targets, xandrDeviceTypes[device.Value])
	}
	return targets
}

func xandrLanguageTargetsFor(campaign *models.Campaign) []xandrLanguageTarget {
	name := "French"
	if campaign.Language == "English" {
		name = "English"
	}
	return []xandrLanguageTarget{
		{
			ID:   xandrLanguageIDs[campaign.Language],
			Name: name,
			Code: languageCode(campaign.Language),
		},
	}
}

func xandrGeoTargetIDs(ids []string) []xandrGeoTarget {
	targets := make([]xandrGeoTarget, 0, len(ids))
	for _, id := range ids {
		n, _ := strconv.Atoi(id)
		targets = append(targets, xandrGeoTarget{ID: n})
	}
	return targets
}

// xandrLineItemProfile builds the profile embedded in a XANDR line item
// creation, including the audience segment groups and geo taken from the
// campaign's location list.
func xandrLineItemProfile(campaign *models.Campaign, deviceTargeting models.FilterItems) xandrProfile {
	demographic := campaign.DemographicInformation.Demographic
	target := ioTargetOf(campaign)
	limit := target.LimitFrequency
	viewability := target.Viewability

	ageSegments := []xandrIDRef{}
	for _, r := range selectedAgeRanges(demographic.From, demographic.To) {
		ageSegments = append(ageSegments, xandrIDRef{ID: xandrAgeSegmentIDs[r]})
	}

	segmentGroups := []xandrSegmentGroup{
		{
			BooleanOperator: "or",
			Segments: []xandrIDRef{
				{ID: 20440138}, {ID: 20440479}, {ID: 8900447}, {ID: 591086},
			},
		},
		{BooleanOperator: "or", Segments: ageSegments},
	}
	switch demographic.Gender.Value {
	case "Female":
		segmentGroups = append(segmentGroups, xandrSegmentGroup{
			BooleanOperator: "or",
			Segments:        []xandrIDRef{{ID: 106004}},
		})
	case "Male":
		segmentGroups = append(segmentGroups, xandrSegmentGroup{
			BooleanOperator: "or",
			Segments:        []xandrIDRef{{ID: 106005}},
		})
	}

	profile := xandrProfile{
		MaxHourImps:  frequencyImps(limit, "TIME_UNIT_HOURS"),
		MaxDayImps:   frequencyImps(limit, "TIME_UNIT_DAYS"),
		MaxWeekImps:  frequencyImps(limit, "TIME_UNIT_WEEKS"),
		MaxMonthImps: frequencyImps(limit, "TIME_UNIT_MONTHS"),
		EngagementRateTargets: []xandrEngagementRateTarget{
			{EngagementRateType: "view", EngagementRatePct: viewability},
		},
		SupplyTypeTargets:    []string{"mobile_web", "web"},
		AdsTxtAuthorizedOnly: true,
		SegmentGroupTargets:  segmentGroups,
		AgeTargets:           xandrAgeTargetsFor(campaign, true),
		GenderTargets:        xandrGenderTargetsFor(campaign),
		DeviceTypeAction:     "include",
		DeviceTypeTargets:    xandrDeviceTargetsFor(deviceTargeting),
		LanguageAction:       "include",
		LanguageTargets:      xandrLanguageTargetsFor(campaign),
	}

	if campaign.LocationList != nil {
		include := campaign.LocationList.Platforms[PlatformXANDR].Include
		if len(include) > 0 {
			switch campaign.LocationList.Level {
			case models.GeoTargetLevelCountry:
				profile.CountryAction = "include"
				profile.CountryTargets = xandrGeoTargetIDs(include)
			case models.GeoTargetLevelRegion:
				profile.RegionAction = "include"
				profile.RegionTargets = xandrGeoTargetIDs(include)
			case models.GeoTargetLevelCity:
				profile.CityAction = "include"
				profile.CityTargets = xandrGeoTargetIDs(include)
			}
		}
	}

	return profile
}

// frequencyImps returns the cap count when the configured time unit matches,
// otherwise nil so the field serializes as null.
func frequencyImps(limit models.LimitFrequency, timeUnit string) *int {
	if limit.ExposerFrequency.Value == timeUnit {
		value := limit.ExposerPer
		return &value
	}
	return nil
}

// ProfilePublisher creates a standalone XANDR targeting profile through the
// script endpoint.
type ProfilePublisher struct {
	client   *Client
	resolver *Resolver
	logger   *zap.Logger
}

func NewProfilePublisher(client *Client, resolver *Resolver, logger *zap.Logger) *ProfilePublisher {
	return &ProfilePublisher{client: client, resolver: resolver, logger: logger}
}

type xandrScriptSection struct {
	Profile xandrProfile `json:"profile"`
}

func (p *ProfilePublisher) mapProfile(campaign *models.Campaign, advertiserXandrID string, qpInsertionOrderID int64, deviceTargeting models.FilterItems) scriptPayload {
	limit := ioTargetOf(campaign).LimitFrequency
	maxLifetime := limit.Frequency

	profile := xandrProfile{
		AdvertiserID:      advertiserXandrID,
		MaxLifetimeImps:   &maxLifetime,
		MaxHourImps:       frequencyImps(limit, "TIME_UNIT_HOURS"),
		MaxDayImps:        frequencyImps(limit, "TIME_UNIT_DAYS"),
		MaxWeekImps:       frequencyImps(limit, "TIME_UNIT_WEEKS"),
		MaxMonthImps:      frequencyImps(limit, "TIME_UNIT_MONTHS"),
		AgeTargets:        xandrAgeTargetsFor(campaign, false),
		GenderTargets:     xandrGenderTargetsFor(campaign),
		DeviceTypeAction:  "include",
		DeviceTypeTargets: xandrDeviceTargetsFor(deviceTargeting),
		LanguageAction:    "include",
		LanguageTargets:   xandrLanguageTargetsFor(campaign),
		RegionAction:      "include",
		RegionTargets: []xandrGeoTarget{
			{ID: 3950, Name: "New York", Code: "NY", CountryName: "United States", CountryCode: "US"},
		},
		CityAction: "include",
		CityTargets: []xandrGeoTarget{
			{ID: 200942, Name: "Portland", RegionName: "Oregon", RegionCode: "OR", CountryCode: "US", CountryName: "United States"},
		},
		CountryAction: "include",
		CountryTargets: []xandrGeoTarget{
			{ID: 233, Name: "United States", Code: "US"},
		},
	}

	return scriptPayload{
		Entity: "line_items",
		Action: "line_items.profile.create",
		DbObject: scriptDbObject{
			LineItems: scriptLineItems{
				AdvertiserID:     campaign.Advertiser.QpID,
				CampaignID:       campaign.QpID,
				GamePlanID:       campaign.QpGamePlanID,
				InsertionOrderID: qpInsertionOrderID,
				PlatformSpecificInfo: scriptPlatformInfo{
					XANDR: &xandrScriptSection{Profile: profile},
				},
			},
		},
	}
}

// Publish resolves the advertiser's XANDR id, submits the profile script and
// returns the created record id.
func (p *ProfilePublisher) Publish(ctx context.Context, campaign *models.Campaign, qpInsertionOrderID int64, deviceTargeting models.FilterItems) (int64, error) {
	platforms := campaign.Platforms.Values()

	advertiserIdentifiers, err := p.resolver.Resolve(ctx, EntityAdvertiser, platforms, campaign.Advertiser.QpID, false)
	if err != nil {
		return 0, err
	}
	p.logger.Info("resolved advertiser platform identifiers",
		zap.String("campaignId", campaign.ID),
		zap.Any("identifiers", advertiserIdentifiers))

	campaignIdentifiers, err := p.resolver.Resolve(ctx, EntityCampaign, campaignPullPlatforms(platforms), campaign.QpID, false)
	if err != nil {
		return 0, err
	}
	p.logger.Info("resolved campaign platform identifiers",
		zap.String("campaignId", campaign.ID),
		zap.Any("identifiers", campaignIdentifiers))

	orderIdentifiers, err := p.resolver.Resolve(ctx, EntityInsertionOrder, platforms, qpInsertionOrderID, false)
	if err != nil {
		return 0, err
	}
	p.logger.Info("resolved insertion order platform identifiers",
		zap.String("campaignId", campaign.ID),
		zap.Any("identifiers", orderIdentifiers))

	payload := p.mapProfile(campaign, advertiserIdentifiers[PlatformXANDR], qpInsertionOrderID, deviceTargeting)
	id, err := p.client.Send(ctx, http.MethodPost, "/scripts/list", payload)
	if err != nil {
		return 0, err
	}

	campaign.EntityStatus = models.StatusPublishRequested
	return id, nil
}
