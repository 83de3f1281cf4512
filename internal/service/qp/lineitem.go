package qp

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// LineItemPublisher pushes one line item per insertion order, device bucket
// and targeting category to the aggregation API.
type LineItemPublisher struct {
	client   *Client
	resolver *Resolver
	logger   *zap.Logger
}

func NewLineItemPublisher(client *Client, resolver *Resolver, logger *zap.Logger) *LineItemPublisher {
	return &LineItemPublisher{client: client, resolver: resolver, logger: logger}
}

// LineItemRequest describes one line item to create or update. Category is
// nil for the merged-keyword line item; QpLineItemID selects the update path.
type LineItemRequest struct {
	Campaign           *models.Campaign
	Platform           string
	LineItemName       string
	QpInsertionOrderID int64
	Format             string
	Category           *models.RetoolTarget
	DeviceName         string
	DeviceTargeting    models.FilterItems
	Keywords           []string
	TargetingType      string
	QpLineItemID       int64
}

type lineItemPayload struct {
	AdvertiserID         int64                `json:"advertiser_id,omitempty"`
	CampaignID           int64                `json:"campaign_id,omitempty"`
	GamePlanID           int64                `json:"game_plan_id,omitempty"`
	InsertionOrderID     int64                `json:"insertion_order_id,omitempty"`
	DisplayName          string               `json:"display_name"`
	EntityStatus         string               `json:"entity_status"`
	Flight               []struct{}           `json:"flight,omitempty"`
	PlatformSpecificInfo lineItemPlatformInfo `json:"platform_specific_info"`
	SyncsWith            []string             `json:"syncs_with"`
}

type lineItemPlatformInfo struct {
	DV360 *dv360LineItemSection `json:"DV360,omitempty"`
	TTD   *ttdLineItemSection   `json:"TTD,omitempty"`
	XANDR *xandrLineItemSection `json:"XANDR,omitempty"`
}

type dv360LineItemSection struct {
	LineItem                         dv360LineItem     `json:"lineItem"`
	BulkEditAssignedTargetingOptions bulkEditTargeting `json:"bulkEditAssignedTargetingOptions"`
}

type dv360LineItem struct {
	DisplayName         string                   `json:"displayName"`
	LineItemType        string                   `json:"lineItemType"`
	Flight              dv360LineItemFlight      `json:"flight"`
	Budget              dv360LineItemBudget      `json:"budget"`
	Pacing              dv360Pacing              `json:"pacing"`
	FrequencyCap        dv360BoundedFreqCap      `json:"frequencyCap"`
	PartnerRevenueModel dv360PartnerRevenueModel `json:"partnerRevenueModel"`
	ConversionCounting  struct{}                 `json:"conversionCounting"`
	BidStrategy         dv360BidStrategy         `json:"bidStrategy"`
	IntegrationDetails  dv360IntegrationDetails  `json:"integrationDetails"`
	TargetingExpansion  dv360TargetingExpansion  `json:"targetingExpansion"`
	WarningMessages     []string                 `json:"warningMessages"`
	ReservationType     string                   `json:"reservationType"`
	ExcludeNewExchanges bool                     `json:"excludeNewExchanges"`
}

type dv360LineItemFlight struct {
	FlightDateType string    `json:"flightDateType"`
	DateRange      dateRange `json:"dateRange"`
}

type dv360LineItemBudget struct {
	BudgetAllocationType string `json:"budgetAllocationType"`
	BudgetUnit           string `json:"budgetUnit"`
	MaxAmount            string `json:"maxAmount"`
}

type dv360PartnerRevenueModel struct {
	MarkupType   string `json:"markupType"`
	MarkupAmount string `json:"markupAmount"`
}

type dv360IntegrationDetails struct {
	IntegrationCode string `json:"integrationCode"`
	Details         string `json:"details"`
}

type dv360TargetingExpansion struct {
	EnableOptimizedTargeting bool `json:"enableOptimizedTargeting"`
}

type ttdLineItemSection struct {
	LineItem      ttdLineItem      `json:"lineItem"`
	AdditionalFee ttdAdditionalFee `json:"additionalfee"`
}

type ttdLineItem struct {
	AdGroupName         string                   `json:"AdGroupName"`
	IndustryCategoryID  int                      `json:"IndustryCategoryId"`
	AdGroupCategory     ttdCategoryRef           `json:"AdGroupCategory"`
	RTBAttributes       ttdRTBAttributes         `json:"RTBAttributes"`
	NewFrequencyConfigs []ttdAdGroupFreqConfig   `json:"NewFrequencyConfigs"`
	NewBidLists         []ttdBidList             `json:"NewBidLists"`
	Availability        string                   `json:"Availability"`
}

type ttdRTBAttributes struct {
	BudgetSettings    ttdBudgetSettings    `json:"BudgetSettings"`
	BaseBidCPM        ttdAmount            `json:"BaseBidCPM"`
	MaxBidCPM         ttdAmount            `json:"MaxBidCPM"`
	AudienceTargeting ttdAudienceTargeting `json:"AudienceTargeting"`
	ROIGoal           ttdROIGoal           `json:"ROIGoal"`
	CreativeIDs       []struct{}           `json:"CreativeIds"`
}

type ttdBudgetSettings struct {
	DailyBudget ttdAmount `json:"DailyBudget"`
	PacingMode  string    `json:"PacingMode"`
}

type ttdAudienceTargeting struct {
	CrossDeviceVendorListForAudience []ttdCrossDeviceVendor         `json:"CrossDeviceVendorListForAudience"`
	TargetInterestSettingsEnabled    bool                           `json:"TargetInterestSettingsEnabled,omitempty"`
	TargetInterestSettings           *ttdTargetInterestSettings     `json:"TargetInterestSettings,omitempty"`
	TargetDemographicSettingsEnabled bool                           `json:"TargetDemographicSettingsEnabled,omitempty"`
	TargetDemographicSettings        *ttdTargetDemographicSettings  `json:"TargetDemographicSettings,omitempty"`
}

type ttdCrossDeviceVendor struct {
	CrossDeviceVendorID   int    `json:"CrossDeviceVendorId"`
	CrossDeviceVendorName string `json:"CrossDeviceVendorName"`
}

type ttdTargetInterestSettings struct {
	CategoryID   string `json:"CategoryId"`
	CategoryName string `json:"CategoryName"`
}

type ttdTargetDemographicSettings struct {
	CountryCode  string `json:"CountryCode"`
	DataRateType string `json:"DataRateType"`
	EndAge       string `json:"EndAge"`
	StartAge     string `json:"StartAge"`
	Gender       string `json:"Gender"`
}

type ttdROIGoal struct {
	CPAInAdvertiserCurrency ttdAmount `json:"CPAInAdvertiserCurrency"`
}

// ttdAdGroupFreqConfig is the ad-group variant of the frequency config; the
// reset interval is numeric here.
type ttdAdGroupFreqConfig struct {
	CounterID              string `json:"CounterId"`
	CounterName            string `json:"CounterName"`
	FrequencyCap           int    `json:"FrequencyCap"`
	ResetIntervalInMinutes int    `json:"ResetIntervalInMinutes"`
}

type ttdBidList struct {
	BidLines              []ttdBidLine `json:"BidLines"`
	BidListAdjustmentType string       `json:"BidListAdjustmentType"`
	Name                  string       `json:"Name"`
	IsDefaultForDimension bool         `json:"IsDefaultForDimension"`
	IsEnabled             bool         `json:"IsEnabled"`
	ResolutionType        string       `json:"ResolutionType"`
}

// ttdBidLine carries exactly one dimension id per line.
type ttdBidLine struct {
	DeviceType                         string `json:"DeviceType,omitempty"`
	GeoSegmentID                       string `json:"GeoSegmentId,omitempty"`
	LanguageID                         string `json:"LanguageId,omitempty"`
	UniversalCategoryTaxonomyID        string `json:"UniversalCategoryTaxonomyId,omitempty"`
	IntegralViewabilityCategoryID      string `json:"IntegralViewabilityCategoryId,omitempty"`
	IntegralPageQualityCategoryID      string `json:"IntegralPageQualityCategoryId,omitempty"`
	IntegralBrandSafetyCategoryID      string `json:"IntegralBrandSafetyCategoryId,omitempty"`
	IntegralVideoViewabilityCategoryID string `json:"IntegralVideoViewabilityCategoryId,omitempty"`
	IntegralVideoPageQualityCategoryID string `json:"IntegralVideoPageQualityCategoryId,omitempty"`
	IntegralVideoBrandSafetyCategoryID string `json:"IntegralVideoBrandSafetyCategoryId,omitempty"`
}

type xandrLineItemSection struct {
	LineItem xandrLineItem `json:"lineItem"`
	Profile  xandrProfile  `json:"profile"`
}

type xandrLineItem struct {
	Name                          string                   `json:"name"`
	ProfileID                     string                   `json:"profile_id"`
	Currency                      string                   `json:"currency"`
	BudgetIntervals               []xandrBudgetInterval    `json:"budget_intervals"`
	GoalType                      string                   `json:"goal_type"`
	LineItemType                  string                   `json:"line_item_type"`
	RevenueType                   string                   `json:"revenue_type"`
	RevenueValue                  string                   `json:"revenue_value"`
	Valuation                     xandrValuation           `json:"valuation"`
	GoalPixels                    []xandrGoalPixel         `json:"goal_pixels"`
	AuctionEvent                  xandrAuctionEvent        `json:"auction_event"`
	InventoryDiscovery            *xandrInventoryDiscovery `json:"inventory_discovery"`
	AdTypes                       []string                 `json:"ad_types"`
	CreativeDistributionType      string                   `json:"creative_distribution_type"`
	ManageCreative                bool                     `json:"manage_creative"`
	PreferDeliveryOverPerformance bool                     `json:"prefer_delivery_over_performance"`
	ViewabilityVendor             string                   `json:"viewability_vendor"`
	PartnerFees                   []xandrIDRef             `json:"partner_fees"`
}

type xandrValuation struct {
	GoalTarget                     *float64 `json:"goal_target"`
	GoalThreshold                  *float64 `json:"goal_threshold"`
	CampaignGroupValuationStrategy string   `json:"campaign_group_valuation_strategy"`
	MaxAvgCPM                      float64  `json:"max_avg_cpm"`
	MinAvgCPM                      float64  `json:"min_avg_cpm"`
}

type xandrGoalPixel struct {
	ID                     int `json:"id"`
	PostClickGoalThreshold int `json:"post_click_goal_threshold"`
	PostViewGoalThreshold  int `json:"post_videw_goal_threshold"`
	PostClickGoalTarget    int `json:"post_click_goal_target"`
}

type xandrAuctionEvent struct {
	KpiAuctionEventType     string  `json:"kpi_auction_event_type"`
	KpiAuctionEventTypeCode string  `json:"kpi_auction_event_type_code"`
	KpiAuctionTypeID        int     `json:"kpi_auction_type_id"`
	KpiValue                *string `json:"kpi_value"`
}

type xandrInventoryDiscovery struct {
	UseRankedDiscovery bool    `json:"use_ranked_discovery"`
	FailCriteriaType   string  `json:"fail_criteria_type"`
	FailCriteriaAmount float64 `json:"fail_criteria_amount"`
}

type xandrIDRef struct {
	ID int `json:"id"`
}

// lineItemName composes the deterministic display name of one line item.
func lineItemName(req LineItemRequest) string {
	campaign := req.Campaign
	demographic := campaign.DemographicInformation.Demographic

	categoryType := ""
	categoryVariable := ""
	if req.Category != nil {
		categoryType = req.Category.Type
		categoryVariable = req.Category.LineItemNameVariable
	}

	audienceSegment := req.LineItemName
	if categoryVariable != "" {
		audienceSegment = categoryVariable
	}
	if nonCategoryTypes[categoryType] {
		audienceSegment = "RON"
	}

	attSegment := "PRT"
	if nonCategoryTypes[categoryType] && categoryVariable != "" {
		attSegment = categoryVariable
	}

	geoSegment := campaign.LocationListName
	if geoSegment == "" {
		geoSegment = "Geo-List"
	}

	upper := fmt.Sprintf("-%d", demographic.To)
	if demographic.To == 74 {
		upper = "+"
	}
	demoSegment := fmt.Sprintf("%s%d%s", dv360GenderCodes[demographic.Gender.Value], demographic.From, upper)

	return joinName([]string{
		req.Format,
		audienceSegment,
		attSegment,
		geoSegment,
		"/",
		demoSegment,
		req.DeviceName,
		"/",
	})
}

// ttdViewabilityBidLines maps the viewability threshold to the vendor's
// category ids; prefix is "integral-9" for display, "integral-8" for video.
func ttdViewabilityBidLines(viewability int, prefix string, assign func(*ttdBidLine, string)) []ttdBidLine {
	switch viewability {
	case 40, 50, 60, 70:
		var line ttdBidLine
		assign(&line, fmt.Sprintf("%s%d", prefix, viewability))
		return []ttdBidLine{line}
	}
	return []ttdBidLine{}
}

var ttdDisplayBrandSafetyIDs = []string{
	"integral-not-101", "integral-not-102", "integral-not-103", "integral-not-104",
	"integral-not-107", "integral-not-108", "integral-not-4008", "integral-not-4009",
	"integral-not-109", "integral-not-110", "integral-not-105", "integral-not-106",
	"integral-not-111", "integral-not-112", "integral-not-531", "integral-not-532",
}

var ttdVideoBrandSafetyIDs = []string{
	"integral-not-535", "integral-not-536", "integral-not-537", "integral-not-538",
	"integral-not-541", "integral-not-542", "integral-not-8008", "integral-not-8009",
	"integral-not-543", "integral-not-544", "integral-not-539", "integral-not-540",
	"integral-not-545", "integral-not-546", "integral-not-533", "integral-not-534",
}

func (p *LineItemPublisher) ttdBidLists(req LineItemRequest) []ttdBidList {
	campaign := req.Campaign

	deviceLines := make([]ttdBidLine, 0, len(req.DeviceTargeting))
	for _, device := range req.DeviceTargeting {
		deviceLines = append(deviceLines, ttdBidLine{DeviceType: ttdDeviceTypes[device.Value]})
	}

	var geoInclude, geoExclude []string
	if campaign.LocationList != nil {
		geo := campaign.LocationList.Platforms[PlatformTTD]
		geoInclude = geo.Include
		geoExclude = geo.Exclude
	}
	geoIncludeLines := make([]ttdBidLine, 0, len(geoInclude))
	for _, id := range geoInclude {
		geoIncludeLines = append(geoIncludeLines, ttdBidLine{GeoSegmentID: id})
	}

	exclusionLines := []ttdBidLine{}
	if campaign.IOTarget != nil {
		for _, category := range campaign.IOTarget.CategoryContentExclusion {
			exclusionLines = append(exclusionLines, ttdBidLine{UniversalCategoryTaxonomyID: category.TTDValue})
		}
	}

	lists := []ttdBidList{
		{
			BidLines:              deviceLines,
			BidListAdjustmentType: "TargetList",
			Name:                  "Device List ",
			IsEnabled:             true,
			ResolutionType:        "ApplyMultiplyAdjustment",
		},
		{
			BidLines:              geoIncludeLines,
			BidListAdjustmentType: "TargetList",
			Name:                  "Geo List Inclusion",
			IsEnabled:             true,
			ResolutionType:        "ApplyMultiplyAdjustment",
		},
	}

	if len(geoExclude) > 0 {
		geoExcludeLines := make([]ttdBidLine, 0, len(geoExclude))
		for _, id := range geoExclude {
			geoExcludeLines = append(geoExcludeLines, ttdBidLine{GeoSegmentID: id})
		}
		lists = append(lists, ttdBidList{
			BidLines:              geoExcludeLines,
			BidListAdjustmentType: "BlockList",
			Name:                  "Geo List Exclusion",
			IsEnabled:             false,
			ResolutionType:        "ApplyMultiplyAdjustment",
		})
	}

	lists = append(lists,
		ttdBidList{
			BidLines:              []ttdBidLine{{LanguageID: ttdLanguageIDs[campaign.Language]}},
			BidListAdjustmentType: "TargetList",
			Name:                  "Language List",
			IsEnabled:             true,
			ResolutionType:        "ApplyMultiplyAdjustment",
		},
		ttdBidList{
			BidLines:              exclusionLines,
			BidListAdjustmentType: "BlockList",
			Name:                  "CategoryContentExclusion List",
			IsEnabled:             true,
			ResolutionType:        "ApplyMultiplyAdjustment",
		},
	)

	if req.Category != nil && req.Category.Type == "CAT" {
		lists = append(lists, ttdBidList{
			BidLines:              []ttdBidLine{{UniversalCategoryTaxonomyID: req.Category.PlatformID}},
			BidListAdjustmentType: "TargetList",
			Name:                  "BidList Category " + req.Category.FullName,
			IsEnabled:             true,
			ResolutionType:        "ApplyMultiplyAdjustment",
		})
	}

	viewability := 0
	if campaign.IOTarget != nil {
		viewability = campaign.IOTarget.Viewability
	}

	if strings.Contains(req.Format, "DIS") {
		safetyLines := make([]ttdBidLine, 0, len(ttdDisplayBrandSafetyIDs))
		for _, id := range ttdDisplayBrandSafetyIDs {
			safetyLines = append(safetyLines, ttdBidLine{IntegralBrandSafetyCategoryID: id})
		}
		lists = append(lists,
			ttdBidList{
				BidLines: ttdViewabilityBidLines(viewability, "integral-9", func(line *ttdBidLine, id string) {
					line.IntegralViewabilityCategoryID = id
				}),
				BidListAdjustmentType: "TargetList",
				Name:                  "Display Viewability",
				IsEnabled:             true,
				ResolutionType:        "ApplyMultiplyAdjustment",
			},
			ttdBidList{
				BidLines: []ttdBidLine{
					{IntegralPageQualityCategoryID: "integral-301"},
					{IntegralPageQualityCategoryID: "integral-4016"},
				},
				BidListAdjustmentType: "TargetList",
				Name:                  "Display Ad Fraud Prevention",
				IsEnabled:             true,
				ResolutionType:        "ApplyMultiplyAdjustment",
			},
			ttdBidList{
				BidLines:              safetyLines,
				BidListAdjustmentType: "BlockList",
				Name:                  "Display Brand Safety",
				IsEnabled:             true,
				ResolutionType:        "ApplyMultiplyAdjustment",
			},
		)
	}

	if strings.Contains(req.Format, "VID") {
		safetyLines := make([]ttdBidLine, 0, len(ttdVideoBrandSafetyIDs))
		for _, id := range ttdVideoBrandSafetyIDs {
			safetyLines = append(safetyLines, ttdBidLine{IntegralVideoBrandSafetyCategoryID: id})
		}
		lists = append(lists,
			ttdBidList{
				BidLines: ttdViewabilityBidLines(viewability, "integral-8", func(line *ttdBidLine, id string) {
					line.IntegralVideoViewabilityCategoryID = id
				}),
				BidListAdjustmentType: "TargetList",
				Name:                  "Video Viewability",
				IsEnabled:             true,
				ResolutionType:        "ApplyMultiplyAdjustment",
			},
			ttdBidList{
				BidLines: []ttdBidLine{
					{IntegralVideoPageQualityCategoryID: "integral-408"},
					{IntegralVideoPageQualityCategoryID: "integral-8016"},
				},
				BidListAdjustmentType: "TargetList",
				Name:                  "Video Ad Fraud Prevention",
				IsEnabled:             true,
				ResolutionType:        "ApplyMultiplyAdjustment",
			},
			ttdBidList{
				BidLines:              safetyLines,
				BidListAdjustmentType: "BlockList",
				Name:                  "Video Brand Safety",
				IsEnabled:             true,
				ResolutionType:        "ApplyMultiplyAdjustment",
			},
		)
	}

	return lists
}

func (p *LineItemPublisher) mapLineItem(action Action, req LineItemRequest) lineItemPayload {
	campaign := req.Campaign
	advertiser := campaign.Advertiser
	displayName := lineItemName(req)
	flight := firstFlight(campaign)
	plan := gamePlanOf(campaign)
	target := ioTargetOf(campaign)

	info := lineItemPlatformInfo{}

	switch req.Platform {
	case PlatformDV360:
		variant := targetingRequest{
			TargetingType:            req.TargetingType,
			AssignedTargetingOptions: []assignedTargetingOption{},
		}
		switch req.TargetingType {
		case TargetingTypeKeyword:
			for _, keyword := range req.Keywords {
				variant.AssignedTargetingOptions = append(variant.AssignedTargetingOptions, assignedTargetingOption{
					KeywordDetails: &keywordDetails{Keyword: keyword},
				})
			}
		case TargetingTypeCategory:
			if req.Category != nil {
				variant.AssignedTargetingOptions = append(variant.AssignedTargetingOptions, assignedTargetingOption{
					CategoryDetails: &categoryDetails{TargetingOptionID: req.Category.PlatformID},
				})
			}
		case TargetingTypeAudienceGroup:
			if req.Category != nil {
				variant.AssignedTargetingOptions = append(variant.AssignedTargetingOptions, assignedTargetingOption{
					AudienceGroupDetails: &audienceGroupDetails{
						IncludedGoogleAudienceGroup: googleAudienceGroup{
							Settings: []googleAudienceSetting{{GoogleAudienceID: req.Category.PlatformID}},
						},
					},
				})
			}
		}

		markup := target.TotalMediaCost

		info.DV360 = &dv360LineItemSection{
			LineItem: dv360LineItem{
				DisplayName:  displayName,
				LineItemType: "LINE_ITEM_TYPE_DISPLAY_DEFAULT",
				Flight: dv360LineItemFlight{
					FlightDateType: "LINE_ITEM_FLIGHT_DATE_TYPE_CUSTOM",
					DateRange:      newDateRange(flight.From, flight.To),
				},
				Budget: dv360LineItemBudget{
					BudgetAllocationType: "LINE_ITEM_BUDGET_ALLOCATION_TYPE_AUTOMATIC",
					BudgetUnit:           "BUDGET_UNIT_CURRENCY",
					MaxAmount:            "500000000",
				},
				Pacing: dv360Pacing{
					PacingPeriod:   "PACING_PERIOD_FLIGHT",
					PacingType:     "PACING_TYPE_AHEAD",
					DailyMaxMicros: "10000",
				},
				FrequencyCap: dv360BoundedFreqCap{
					Unlimited:      false,
					TimeUnit:       target.LimitFrequency.ExposerFrequency.Value,
					TimeUnitCount:  target.LimitFrequency.ExposerPer,
					MaxImpressions: target.LimitFrequency.Frequency,
				},
				PartnerRevenueModel: dv360PartnerRevenueModel{
					MarkupType:   "PARTNER_REVENUE_MODEL_MARKUP_TYPE_TOTAL_MEDIA_COST_MARKUP",
					MarkupAmount: fmt.Sprintf("%.0f", (1/(1-markup/100)-1)*100000),
				},
				BidStrategy: dv360BidStrategy{
					FixedBid: dv360FixedBid{
						BidAmountMicros: micros(plan.Rate, 1000000),
					},
				},
				IntegrationDetails: dv360IntegrationDetails{
					IntegrationCode: "SomeRandomIntegrationCode",
					Details:         "Some Random Integration details",
				},
				TargetingExpansion: dv360TargetingExpansion{EnableOptimizedTargeting: true},
				WarningMessages:    []string{"PARENT_INSERTION_ORDER_PAUSED"},
				ReservationType:    "RESERVATION_TYPE_NOT_GUARANTEED",
				ExcludeNewExchanges: true,
			},
			BulkEditAssignedTargetingOptions: bulkEditTargeting{
				LineItemIDs:    []string{"response[0].lineItemId"},
				DeleteRequests: []struct{}{},
				CreateRequests: append([]targetingRequest{variant}, dv360CommonTargeting(campaign)...),
			},
		}
	case PlatformTTD:
		currency := advertiser.GeographicDetails.Currency.Value
		demographic := campaign.DemographicInformation.Demographic

		audience := ttdAudienceTargeting{
			CrossDeviceVendorListForAudience: []ttdCrossDeviceVendor{
				{CrossDeviceVendorID: 11, CrossDeviceVendorName: "Identity Alliance"},
			},
		}
		if req.Category != nil && req.Category.Type == "Affinity" {
			audience.TargetInterestSettingsEnabled = true
			audience.TargetInterestSettings = &ttdTargetInterestSettings{
				CategoryID:   req.Category.PlatformID,
				CategoryName: req.Category.FullName,
			}
		} else {
			countryCode := "US"
			if strings.Contains(advertiser.GeographicDetails.Locations.Label, "Canada") {
				countryCode = "CA"
			}
			audience.TargetDemographicSettingsEnabled = true
			audience.TargetDemographicSettings = &ttdTargetDemographicSettings{
				CountryCode:  countryCode,
				DataRateType: "CPM",
				EndAge:       ttdAgeToNames[demographic.To],
				StartAge:     ttdAgeFromNames[demographic.From],
				Gender:       demographic.Gender.Value,
			}
		}

		resetMinutes := target.LimitFrequency.ExposerPer *
			timeUnitMinutes[target.LimitFrequency.ExposerFrequency.Value]
		if resetMinutes < 1440 {
			resetMinutes = 1440
		}

		info.TTD = &ttdLineItemSection{
			LineItem: ttdLineItem{
				AdGroupName:        displayName,
				IndustryCategoryID: 292,
				AdGroupCategory: ttdCategoryRef{
					CategoryID: campaign.DemographicInformation.Category.Value,
				},
				RTBAttributes: ttdRTBAttributes{
					BudgetSettings: ttdBudgetSettings{
						DailyBudget: ttdAmount{Amount: 1, CurrencyCode: currency},
						PacingMode:  "PaceToEndOfDay",
					},
					BaseBidCPM:        ttdAmount{Amount: plan.Rate * 0.75, CurrencyCode: currency},
					MaxBidCPM:         ttdAmount{Amount: plan.Rate, CurrencyCode: currency},
					AudienceTargeting: audience,
					ROIGoal: ttdROIGoal{
						CPAInAdvertiserCurrency: ttdAmount{Amount: 0.2, CurrencyCode: currency},
					},
					CreativeIDs: []struct{}{},
				},
				NewFrequencyConfigs: []ttdAdGroupFreqConfig{
					{
						CounterID:              "1",
						CounterName:            "First frequency config",
						FrequencyCap:           target.LimitFrequency.Frequency,
						ResetIntervalInMinutes: resetMinutes,
					},
				},
				NewBidLists:  p.ttdBidLists(req),
				Availability: "Available",
			},
			AdditionalFee: ttdAdditionalFee{
				StartDateUtc: flight.From,
				Fees: []ttdFee{
					{Description: "Media Cost Markup", Amount: target.TotalMediaCost, FeeType: "MediaPlusDataCostPercentage"},
					{Description: "Data Fee", Amount: 0.18, FeeType: "FeeCPM"},
				},
				OwnerID:   "response[0].AdGroupId",
				OwnerType: "adgroup",
			},
		}
	case PlatformXANDR:
		info.XANDR = &xandrLineItemSection{
			LineItem: p.xandrLineItem(req, displayName, flight),
			Profile:  xandrLineItemProfile(campaign, req.DeviceTargeting),
		}
	}

	payload := lineItemPayload{
		DisplayName:          displayName,
		EntityStatus:         "DRAFT",
		PlatformSpecificInfo: info,
		SyncsWith:            []string{req.Platform},
	}
	if action == ActionCreate {
		payload.AdvertiserID = advertiser.QpID
		payload.CampaignID = campaign.QpID
		payload.GamePlanID = campaign.QpGamePlanID
		payload.InsertionOrderID = req.QpInsertionOrderID
		payload.Flight = []struct{}{}
	}
	return payload
}

func (p *LineItemPublisher) xandrLineItem(req LineItemRequest, displayName string, flight models.Flight) xandrLineItem {
	campaign := req.Campaign
	advertiser := campaign.Advertiser
	plan := gamePlanOf(campaign)

	goalType := xandrGoalTypes[plan.Kpi1Name]
	kpiValue := parseAmount(plan.Kpi1Value)
	budget := platformBudget(campaign)
	markup := ioTargetOf(campaign).TotalMediaCost

	var goalTarget, goalThreshold *float64
	switch goalType {
	case "cpc":
		v := 2.0
		goalTarget, goalThreshold = &v, &v
	case "ctr":
		v := 0.001
		goalTarget, goalThreshold = &v, &v
	}

	var goalPixels []xandrGoalPixel
	if goalType == "cpa" {
		goalPixels = []xandrGoalPixel{
			{ID: 932952, PostClickGoalThreshold: 10, PostViewGoalThreshold: 10, PostClickGoalTarget: 10},
		}
	}

	auction := xandrAuctionEvent{
		KpiAuctionEventType:     "impression",
		KpiAuctionEventTypeCode: "impression",
		KpiAuctionTypeID:        1,
	}
	if goalType == "none" {
		value := fmt.Sprintf("%.2f", plan.Rate/kpiValue*100)
		auction = xandrAuctionEvent{
			KpiAuctionEventType:     "view",
			KpiAuctionEventTypeCode: "view_display_50pv1s_an",
			KpiAuctionTypeID:        2,
			KpiValue:                &value,
		}
	}

	var discovery *xandrInventoryDiscovery
	if goalType == "cpc" || goalType == "ctr" {
		discovery = &xandrInventoryDiscovery{
			UseRankedDiscovery: true,
			FailCriteriaType:   "booked_revenue",
			FailCriteriaAmount: kpiValue,
		}
	}

	return xandrLineItem{
		Name:      displayName,
		ProfileID: "response[0].response.id",
		Currency:  advertiser.GeographicDetails.Currency.Value,
		BudgetIntervals: []xandrBudgetInterval{
			{
				StartDate:      xandrDateTime(flight.From),
				EndDate:        xandrDateTime(flight.To),
				EnablePacing:   true,
				LifetimeBudget: budget,
				LifetimePacing: true,
			},
		},
		GoalType:     goalType,
		LineItemType: "standard_v2",
		RevenueType:  "cost_plus_margin",
		RevenueValue: fmt.Sprintf("%.4f", (1/(1-markup/100)-1)*100/100),
		Valuation: xandrValuation{
			GoalTarget:                     goalTarget,
			GoalThreshold:                  goalThreshold,
			CampaignGroupValuationStrategy: "prospecting",
			MaxAvgCPM:                      kpiValue,
			MinAvgCPM:                      kpiValue * 0.75,
		},
		GoalPixels:                    goalPixels,
		AuctionEvent:                  auction,
		InventoryDiscovery:            discovery,
		AdTypes:                       []string{"banner"},
		CreativeDistributionType:      "ctr-optimized",
		ManageCreative:                true,
		PreferDeliveryOverPerformance: true,
		ViewabilityVendor:             "appnexus",
		PartnerFees:                   []xandrIDRef{{ID: 618484}, {ID: 618595}},
	}
}

// Publish creates or updates one line item remotely and returns its id.
func (p *LineItemPublisher) Publish(ctx context.Context, req LineItemRequest) (int64, error) {
	campaign := req.Campaign
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

	orderIdentifiers, err := p.resolver.Resolve(ctx, EntityInsertionOrder, []string{req.Platform}, req.QpInsertionOrderID, false)
	if err != nil {
		return 0, err
	}
	p.logger.Info("resolved insertion order platform identifiers",
		zap.String("campaignId", campaign.ID),
		zap.Any("identifiers", orderIdentifiers))

	if req.QpLineItemID != 0 {
		identifiers, err := p.resolver.Resolve(ctx, EntityLineItem, []string{req.Platform}, req.QpLineItemID, true)
		if err != nil {
			return 0, err
		}
		p.logger.Info("resolved line item platform identifiers",
			zap.String("campaignId", campaign.ID),
			zap.Any("identifiers", identifiers))

		payload := p.mapLineItem(ActionUpdate, req)
		if _, err := p.client.Send(ctx, http.MethodPut, fmt.Sprintf("/line-item/%d", req.QpLineItemID), payload); err != nil {
			return 0, err
		}
		return req.QpLineItemID, nil
	}

	payload := p.mapLineItem(ActionCreate, req)
	return p.client.Send(ctx, http.MethodPost, "/line-item", payload)
}
