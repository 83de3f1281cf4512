package qp

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// InsertionOrderPublisher pushes one insertion order per platform/format pair
// to the aggregation API.
type InsertionOrderPublisher struct {
	client   *Client
	resolver *Resolver
	logger   *zap.Logger
}

func NewInsertionOrderPublisher(client *Client, resolver *Resolver, logger *zap.Logger) *InsertionOrderPublisher {
	return &InsertionOrderPublisher{client: client, resolver: resolver, logger: logger}
}

type insertionOrderPayload struct {
	AdvertiserID         int64                      `json:"advertiser_id,omitempty"`
	CampaignID           int64                      `json:"campaign_id,omitempty"`
	GamePlanID           int64                      `json:"game_plan_id,omitempty"`
	Format               struct{}                   `json:"format"`
	Pacing               struct{}                   `json:"pacing"`
	Targeting            struct{}                   `json:"targeting"`
	DisplayName          string                     `json:"display_name"`
	EntityStatus         string                     `json:"entity_status"`
	Flight               []struct{}                 `json:"flight,omitempty"`
	PlatformSpecificInfo insertionOrderPlatformInfo `json:"platform_specific_info"`
	SyncsWith            []string                   `json:"syncs_with"`
}

type insertionOrderPlatformInfo struct {
	DV360 *dv360InsertionOrderSection `json:"DV360,omitempty"`
	TTD   *ttdInsertionOrderSection   `json:"TTD,omitempty"`
	XANDR *xandrInsertionOrderSection `json:"XANDR,omitempty"`
}

type dv360InsertionOrderSection struct {
	InsertionOrder dv360InsertionOrder `json:"insertionOrder"`
}

type dv360InsertionOrder struct {
	DisplayName  string              `json:"displayName"`
	EntityStatus string              `json:"entityStatus"`
	Pacing       dv360Pacing         `json:"pacing"`
	FrequencyCap dv360BoundedFreqCap `json:"frequencyCap"`
	Kpi          dv360Kpi            `json:"kpi"`
	Budget       dv360Budget         `json:"budget"`
	BidStrategy  dv360BidStrategy    `json:"bidStrategy"`
}

type dv360Pacing struct {
	PacingPeriod   string `json:"pacingPeriod"`
	PacingType     string `json:"pacingType"`
	DailyMaxMicros string `json:"dailyMaxMicros"`
}

type dv360BoundedFreqCap struct {
	Unlimited      bool   `json:"unlimited"`
	TimeUnit       string `json:"timeUnit"`
	TimeUnitCount  int    `json:"timeUnitCount"`
	MaxImpressions int    `json:"maxImpressions"`
}

type dv360Kpi struct {
	KpiType             string `json:"kpiType"`
	KpiAmountMicros     string `json:"kpiAmountMicros,omitempty"`
	KpiPercentageMicros string `json:"kpiPercentageMicros,omitempty"`
}

type dv360Budget struct {
	BudgetUnit     string               `json:"budgetUnit"`
	AutomationType string               `json:"automationType"`
	BudgetSegments []dv360BudgetSegment `json:"budgetSegments"`
}

type dv360BudgetSegment struct {
	BudgetAmountMicros string    `json:"budgetAmountMicros"`
	DateRange          dateRange `json:"dateRange"`
}

type dv360BidStrategy struct {
	FixedBid dv360FixedBid `json:"fixedBid"`
}

type dv360FixedBid struct {
	BidAmountMicros string `json:"bidAmountMicros"`
}

type ttdInsertionOrderSection struct {
	InsertionOrder ttdInsertionOrder `json:"insertionOrder"`
	AdditionalFee  ttdAdditionalFee  `json:"additionalfee"`
}

type ttdAmount struct {
	Amount       float64 `json:"Amount"`
	CurrencyCode string  `json:"CurrencyCode"`
}

type ttdFrequencyConfig struct {
	CounterID              string `json:"CounterId"`
	CounterName            string `json:"CounterName"`
	FrequencyCap           int    `json:"FrequencyCap"`
	ResetIntervalInMinutes string `json:"ResetIntervalInMinutes"`
}

// ttdGoal carries exactly one of its members depending on the KPI name.
type ttdGoal struct {
	CPCInAdvertiserCurrency *ttdAmount `json:"CPCInAdvertiserCurrency,omitempty"`
	CPAInAdvertiserCurrency *ttdAmount `json:"CPAInAdvertiserCurrency,omitempty"`
	CTRInPercent            *float64   `json:"CTRInPercent,omitempty"`
	ViewabilityInPercent    *float64   `json:"ViewabilityInPercent,omitempty"`
}

type ttdInsertionOrder struct {
	Budget                             ttdAmount            `json:"Budget"`
	CampaignConversionReportingColumns []struct{}           `json:"CampaignConversionReportingColumns"`
	CampaignName                       string               `json:"CampaignName"`
	AssociatedBidLists                 []struct{}           `json:"AssociatedBidLists"`
	AutoAllocatorEnabled               bool                 `json:"AutoAllocatorEnabled"`
	AutoPrioritizationEnabled          bool                 `json:"AutoPrioritizationEnabled"`
	Availability                       string               `json:"Availability"`
	CampaignType                       string               `json:"CampaignType"`
	CustomCPAType                      string               `json:"CustomCPAType"`
	CustomLabels                       []struct{}           `json:"CustomLabels"`
	CustomROASType                     string               `json:"CustomROASType"`
	DefaultBidLists                    []struct{}           `json:"DefaultBidLists"`
	Description                        string               `json:"Description"`
	Increments                         []struct{}           `json:"Increments"`
	IsBallotMeasure                    bool                 `json:"IsBallotMeasure"`
	NewFrequencyConfigs                []ttdFrequencyConfig `json:"NewFrequencyConfigs"`
	PacingMode                         string               `json:"PacingMode"`
	Objective                          string               `json:"Objective"`
	PrimaryChannel                     string               `json:"PrimaryChannel"`
	PrimaryGoal                        ttdGoal              `json:"PrimaryGoal"`
	SecondaryGoal                      ttdGoal              `json:"SecondaryGoal"`
	TertiaryGoal                       ttdGoal              `json:"TertiaryGoal"`
	PurchaseOrderNumber                string               `json:"PurchaseOrderNumber"`
	StartDate                          time.Time            `json:"StartDate"`
	EndDate                            time.Time            `json:"EndDate"`
}

type ttdAdditionalFee struct {
	StartDateUtc time.Time `json:"StartDateUtc"`
	Fees         []ttdFee  `json:"Fees"`
	OwnerID      string    `json:"OwnerId"`
	OwnerType    string    `json:"OwnerType"`
}

type ttdFee struct {
	Description string  `json:"Description"`
	Amount      float64 `json:"Amount"`
	FeeType     string  `json:"FeeType"`
}

type xandrInsertionOrderSection struct {
	InsertionOrder xandrInsertionOrder `json:"insertionOrder"`
}

type xandrInsertionOrder struct {
	Name            string                `json:"name"`
	BillingCode     string                `json:"billing_code"`
	Currency        string                `json:"currency"`
	BudgetType      string                `json:"budget_type"`
	BudgetIntervals []xandrBudgetInterval `json:"budget_intervals"`
}

type xandrBudgetInterval struct {
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	LifetimePacing bool    `json:"lifetime_pacing"`
	EnablePacing   bool    `json:"enable_pacing"`
	LifetimeBudget float64 `json:"lifetime_budget"`
}

// insertionOrderName composes the deterministic display name shared by the
// insertion order and its downstream line items.
func insertionOrderName(campaign *models.Campaign, platform, format string) string {
	advertiser := campaign.Advertiser
	flight := firstFlight(campaign)

	platformSegment := platform
	if platform == PlatformXANDR {
		platformSegment = "XND"
	}
	geoSegment := campaign.LocationListName
	if geoSegment == "" {
		geoSegment = "Geo-List"
	}
	optimizationSegment := gamePlanOf(campaign).Kpi1Name
	if optimizationSegment == "VIEWABILITY" {
		optimizationSegment = "VTR"
	}
	channelSegment := ""
	if len(campaign.Channel) > 0 {
		channelSegment = campaign.Channel[0].Value
	}

	return joinName([]string{
		advertiser.DisplayName,
		advertiser.BrandName,
		campaign.DisplayName,
		channelSegment,
		platformSegment,
		format,
		geoSegment,
		languageCode(campaign.Language),
		"ALL",
		shortDate(flight.From),
		shortDate(flight.To),
		campaign.BillingCode,
		optimizationSegment,
		"/",
	})
}

// newTTDGoal builds the goal variant for one KPI slot; unknown names yield an
// empty goal object.
func newTTDGoal(name, value, currency string) ttdGoal {
	amount := parseAmount(value)
	switch name {
	case "CPC":
		return ttdGoal{CPCInAdvertiserCurrency: &ttdAmount{Amount: amount, CurrencyCode: currency}}
	case "CPA":
		return ttdGoal{CPAInAdvertiserCurrency: &ttdAmount{Amount: amount, CurrencyCode: currency}}
	case "CTR":
		return ttdGoal{CTRInPercent: &amount}
	case "VIEWABILITY":
		return ttdGoal{ViewabilityInPercent: &amount}
	}
	return ttdGoal{}
}

func (p *InsertionOrderPublisher) mapInsertionOrder(action Action, campaign *models.Campaign, platform, format string) insertionOrderPayload {
	advertiser := campaign.Advertiser
	displayName := insertionOrderName(campaign, platform, format)
	flight := firstFlight(campaign)
	plan := gamePlanOf(campaign)
	target := ioTargetOf(campaign)
	budget := platformBudget(campaign)

	info := insertionOrderPlatformInfo{}

	switch platform {
	case PlatformDV360:
		kpi := dv360Kpi{KpiType: "KPI_TYPE_" + plan.Kpi1Name}
		if plan.Kpi1Name == "CPC" || plan.Kpi1Name == "CPA" {
			kpi.KpiAmountMicros = micros(parseAmount(plan.Kpi1Value), 1000000)
		} else {
			kpi.KpiPercentageMicros = micros(parseAmount(plan.Kpi1Value), 10000)
		}
		info.DV360 = &dv360InsertionOrderSection{
			InsertionOrder: dv360InsertionOrder{
				DisplayName:  displayName,
				EntityStatus: "ENTITY_STATUS_DRAFT",
				Pacing: dv360Pacing{
					PacingPeriod:   "PACING_PERIOD_FLIGHT",
					PacingType:     "PACING_TYPE_AHEAD",
					DailyMaxMicros: "1500000",
				},
				FrequencyCap: dv360BoundedFreqCap{
					Unlimited:      false,
					TimeUnit:       target.LimitFrequency.ExposerFrequency.Value,
					TimeUnitCount:  target.LimitFrequency.ExposerPer,
					MaxImpressions: target.LimitFrequency.Frequency,
				},
				Kpi: kpi,
				Budget: dv360Budget{
					BudgetUnit:     "BUDGET_UNIT_CURRENCY",
					AutomationType: "INSERTION_ORDER_AUTOMATION_TYPE_BUDGET",
					BudgetSegments: []dv360BudgetSegment{
						{
							BudgetAmountMicros: micros(budget, 1000000),
							DateRange:          newDateRange(flight.From, flight.To),
						},
					},
				},
				BidStrategy: dv360BidStrategy{
					FixedBid: dv360FixedBid{BidAmountMicros: "500000"},
				},
			},
		}
	case PlatformTTD:
		currency := advertiser.GeographicDetails.Currency.Value
		resetMinutes := target.LimitFrequency.ExposerPer *
			timeUnitMinutes[target.LimitFrequency.ExposerFrequency.Value]
		info.TTD = &ttdInsertionOrderSection{
			InsertionOrder: ttdInsertionOrder{
				Budget: ttdAmount{Amount: budget, CurrencyCode: currency},
				CampaignConversionReportingColumns: []struct{}{},
				CampaignName:                       displayName,
				AssociatedBidLists:                 []struct{}{},
				CustomLabels:                       []struct{}{},
				DefaultBidLists:                    []struct{}{},
				Increments:                         []struct{}{},
				AutoAllocatorEnabled:               true,
				AutoPrioritizationEnabled: true,
				Availability:              "Available",
				CampaignType:              "Standard",
				CustomCPAType:             "Disabled",
				CustomROASType:            "Disabled",
				Description:               "Campaign to test API based creation without flight",
				IsBallotMeasure:           false,
				NewFrequencyConfigs: []ttdFrequencyConfig{
					{
						CounterID:              "1",
						CounterName:            "First frequency config",
						FrequencyCap:           target.LimitFrequency.Frequency,
						ResetIntervalInMinutes: fmt.Sprintf("%d", resetMinutes),
					},
				},
				PacingMode:     "PaceAhead",
				Objective:      "Awareness",
				PrimaryChannel: "Display",
				PrimaryGoal:    newTTDGoal(plan.Kpi1Name, plan.Kpi1Value, currency),
				SecondaryGoal:  newTTDGoal(plan.Kpi2Name, plan.Kpi2Value, currency),
				TertiaryGoal:   newTTDGoal(plan.Kpi3Name, plan.Kpi3Value, currency),
				StartDate:      flight.From,
				EndDate:        flight.To,
			},
			AdditionalFee: ttdAdditionalFee{
				StartDateUtc: flight.From,
				Fees: []ttdFee{
					{Description: "Media Cost Markup", Amount: target.TotalMediaCost, FeeType: "MediaPlusDataCostPercentage"},
					{Description: "Data Fee", Amount: 0.18, FeeType: "FeeCPM"},
				},
				OwnerID:   "response[0].CampaignId",
				OwnerType: "campaign",
			},
		}
	case PlatformXANDR:
		info.XANDR = &xandrInsertionOrderSection{
			InsertionOrder: xandrInsertionOrder{
				Name:        displayName,
				BillingCode: campaign.BillingCode,
				Currency:    advertiser.GeographicDetails.Currency.Value,
				BudgetType:  "revenue",
				BudgetIntervals: []xandrBudgetInterval{
					{
						StartDate:      xandrDateTime(flight.From),
						EndDate:        xandrDateTime(flight.To),
						LifetimePacing: true,
						EnablePacing:   true,
						LifetimeBudget: budget,
					},
				},
			},
		}
	}

	payload := insertionOrderPayload{
		DisplayName:          displayName,
		EntityStatus:         "DRAFT",
		PlatformSpecificInfo: info,
		SyncsWith:            []string{platform},
	}
	if action == ActionCreate {
		payload.AdvertiserID = advertiser.QpID
		payload.CampaignID = campaign.QpID
		payload.GamePlanID = campaign.QpGamePlanID
		payload.Flight = []struct{}{}
	}
	return payload
}

// Publish creates or updates one insertion order remotely and returns its id.
// Passing a non-zero qpInsertionOrderID selects the update path.
func (p *InsertionOrderPublisher) Publish(ctx context.Context, campaign *models.Campaign, platform, format string, qpInsertionOrderID int64) (int64, error) {
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

	if qpInsertionOrderID != 0 {
		identifiers, err := p.resolver.Resolve(ctx, EntityInsertionOrder, []string{platform}, qpInsertionOrderID, true)
		if err != nil {
			return 0, err
		}
		p.logger.Info("resolved insertion order platform identifiers",
			zap.String("campaignId", campaign.ID),
			zap.Any("identifiers", identifiers))

		payload := p.mapInsertionOrder(ActionUpdate, campaign, platform, format)
		if _, err := p.client.Send(ctx, http.MethodPut, fmt.Sprintf("/insertion-order/%d", qpInsertionOrderID), payload); err != nil {
			return 0, err
		}
		return qpInsertionOrderID, nil
	}

	payload := p.mapInsertionOrder(ActionCreate, campaign, platform, format)
	return p.client.Send(ctx, http.MethodPost, "/insertion-order", payload)
}
