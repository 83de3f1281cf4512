package qp

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

func namingCampaign() *models.Campaign {
	return &models.Campaign{
		DisplayName: "Summer",
		BillingCode: "BC01",
		Language:    "English",
		Channel:     models.FilterItems{{Label: "Display", Value: "Display"}},
		Flights: models.Flights{{
			From: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
		}},
		GamePlan: &models.GamePlanDetails{
			Kpi1Name:  "VIEWABILITY",
			Kpi1Value: "70",
			Rate:      2.5,
			Budget:    1000,
		},
		DemographicInformation: models.DemographicInformation{
			Demographic: models.Demographic{
				From:   25,
				To:     54,
				Gender: models.FilterItem{Label: "Female", Value: "Female"},
			},
		},
		Advertiser: &models.Advertiser{
			DisplayName: "Acme",
			BrandName:   "Cars",
		},
	}
}

func TestInsertionOrderName(t *testing.T) {
	campaign := namingCampaign()

	name := insertionOrderName(campaign, PlatformDV360, "DIS")
	assert.Equal(t, "Acme_Cars_Summer_Display_DV360_DIS_Geo-List_EN_ALL_01Jun26_30Jun26_BC01_VTR_/", name)

	// XANDR is shortened and VIEWABILITY reads as VTR.
	name = insertionOrderName(campaign, PlatformXANDR, "VID")
	assert.Equal(t, "Acme_Cars_Summer_Display_XND_VID_Geo-List_EN_ALL_01Jun26_30Jun26_BC01_VTR_/", name)

	// The location list name replaces the placeholder once set.
	campaign.LocationListName = "Ontario"
	name = insertionOrderName(campaign, PlatformTTD, "DIS")
	assert.Equal(t, "Acme_Cars_Summer_Display_TTD_DIS_Ontario_EN_ALL_01Jun26_30Jun26_BC01_VTR_/", name)
}

func TestLineItemNameKeywordLine(t *testing.T) {
	name := lineItemName(LineItemRequest{
		Campaign:     namingCampaign(),
		Platform:     PlatformDV360,
		LineItemName: "CNT",
		Format:       "DIS",
		DeviceName:   "OMN",
	})
	assert.Equal(t, "DIS_CNT_PRT_Geo-List_/_F25-54_OMN_/", name)
}

func TestLineItemNameCategoryLine(t *testing.T) {
	name := lineItemName(LineItemRequest{
		Campaign:   namingCampaign(),
		Platform:   PlatformDV360,
		Format:     "DIS",
		DeviceName: "PC",
		Category: &models.RetoolTarget{
			Type:                 "CAT",
			LineItemNameVariable: "AUTO",
		},
	})
	assert.Equal(t, "DIS_AUTO_PRT_Geo-List_/_F25-54_PC_/", name)
}

func TestLineItemNameInterestLine(t *testing.T) {
	campaign := namingCampaign()
	campaign.DemographicInformation.Demographic = models.Demographic{
		From:   18,
		To:     74,
		Gender: models.FilterItem{Label: "Male", Value: "Male"},
	}

	// Interest-style categories read RON for the audience slot and move the
	// name variable to the attribution slot; a 74 upper bound renders as "+".
	name := lineItemName(LineItemRequest{
		Campaign:   campaign,
		Platform:   PlatformDV360,
		Format:     "VID",
		DeviceName: "MOB",
		Category: &models.RetoolTarget{
			Type:                 "Affinity",
			LineItemNameVariable: "SPORTS",
		},
	})
	assert.Equal(t, "VID_RON_SPORTS_Geo-List_/_M18+_MOB_/", name)
}

func TestTTDGoalVariants(t *testing.T) {
	goal := newTTDGoal("CPC", "1.50", "CAD")
	require.NotNil(t, goal.CPCInAdvertiserCurrency)
	assert.Equal(t, 1.5, goal.CPCInAdvertiserCurrency.Amount)
	assert.Equal(t, "CAD", goal.CPCInAdvertiserCurrency.CurrencyCode)

	goal = newTTDGoal("CPA", "3", "USD")
	require.NotNil(t, goal.CPAInAdvertiserCurrency)
	assert.Equal(t, float64(3), goal.CPAInAdvertiserCurrency.Amount)

	goal = newTTDGoal("CTR", "0.2", "")
	require.NotNil(t, goal.CTRInPercent)
	assert.Equal(t, 0.2, *goal.CTRInPercent)

	goal = newTTDGoal("VIEWABILITY", "70", "")
	require.NotNil(t, goal.ViewabilityInPercent)
	assert.Equal(t, float64(70), *goal.ViewabilityInPercent)

	assert.Equal(t, ttdGoal{}, newTTDGoal("CPM", "1", "USD"))
}

func TestMicros(t *testing.T) {
	assert.Equal(t, "2500000", micros(2.5, 1e6))
	assert.Equal(t, "15000", micros(1.5, 1e4))
	assert.Equal(t, "0", micros(0, 1e6))
}

func TestParseAmount(t *testing.T) {
	assert.Equal(t, 1.5, parseAmount("1.5"))
	assert.Equal(t, float64(0), parseAmount(""))
	assert.Equal(t, float64(0), parseAmount("n/a"))
}

func TestLanguageCode(t *testing.T) {
	assert.Equal(t, "EN", languageCode("English"))
	assert.Equal(t, "FR", languageCode("French"))
}

func TestSelectedAgeRanges(t *testing.T) {
	selected := selectedAgeRanges(25, 54)
	assert.Equal(t, []ageRange{{25, 34}, {35, 44}, {45, 54}}, selected)

	assert.Len(t, selectedAgeRanges(18, 74), 6)
	assert.Empty(t, selectedAgeRanges(20, 23))
}

// sparseCampaign has none of the optional sections a draft may still lack:
// no game plan, no IO targeting, no flights, no channel selection.
func sparseCampaign() *models.Campaign {
	return &models.Campaign{
		ID:          "cmp-sparse",
		DisplayName: "Sparse",
		Language:    "English",
		Platforms: models.FilterItems{
			{Label: "DV360", Value: PlatformDV360},
			{Label: "The Trade Desk", Value: PlatformTTD},
			{Label: "Xandr", Value: PlatformXANDR},
		},
		Advertiser: &models.Advertiser{DisplayName: "Acme", QpID: 101},
	}
}

func TestMappersTolerateMissingOptionalSections(t *testing.T) {
	campaign := sparseCampaign()

	payload := (&CampaignPublisher{}).mapCampaign(ActionCreate, campaign)
	require.NotNil(t, payload.PlatformSpecificInfo.DV360)
	assert.Equal(t, "PERFORMANCE_GOAL_TYPE_", payload.PlatformSpecificInfo.DV360.Campaign.CampaignGoal.PerformanceGoal.PerformanceGoalType)

	for _, platform := range campaign.Platforms.Values() {
		order := (&InsertionOrderPublisher{}).mapInsertionOrder(ActionCreate, campaign, platform, "DIS")
		assert.NotEmpty(t, order.DisplayName)

		item := (&LineItemPublisher{}).mapLineItem(ActionCreate, LineItemRequest{
			Campaign:      campaign,
			Platform:      platform,
			LineItemName:  "CNT",
			Format:        "DIS",
			DeviceName:    "OMN",
			TargetingType: TargetingTypeKeyword,
		})
		assert.NotEmpty(t, item.DisplayName)
	}

	order := (&InsertionOrderPublisher{}).mapInsertionOrder(ActionCreate, campaign, PlatformDV360, "DIS")
	assert.Equal(t, "0", order.PlatformSpecificInfo.DV360.InsertionOrder.Budget.BudgetSegments[0].BudgetAmountMicros)
}

func TestPlatformBudgetSplit(t *testing.T) {
	campaign := sparseCampaign()
	campaign.GamePlan = &models.GamePlanDetails{Budget: 900}
	assert.Equal(t, float64(300), platformBudget(campaign))

	// No platform selection yields a zero budget rather than dividing by zero.
	campaign.Platforms = nil
	assert.Equal(t, float64(0), platformBudget(campaign))
}

func TestPublishCampaignWithoutGamePlan(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/advertisers/101":
			fmt.Fprint(w, `{"data":{"platform_specific_info":{"DV360":{"advertiser":{"advertiserId":"adv-1"}}}}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/campaigns":
			fmt.Fprint(w, `{"data":{"id":201}}`)
		default:
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	})
	resolver := newTestResolver(t, handler, newMemStore())

	campaign := sparseCampaign()
	campaign.Platforms = models.FilterItems{{Label: "DV360", Value: PlatformDV360}}

	publisher := NewCampaignPublisher(resolver.client, resolver, zap.NewNop())
	require.NoError(t, publisher.Publish(context.Background(), campaign))
	assert.Equal(t, int64(201), campaign.QpID)
	assert.Equal(t, models.StatusPublishRequested, campaign.EntityStatus)
}
