package qp

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// CampaignPublisher pushes the campaign shell to the aggregation API. The
// advertiser must already hold its remote id.
type CampaignPublisher struct {
	client   *Client
	resolver *Resolver
	logger   *zap.Logger
}

func NewCampaignPublisher(client *Client, resolver *Resolver, logger *zap.Logger) *CampaignPublisher {
	return &CampaignPublisher{client: client, resolver: resolver, logger: logger}
}

type campaignPayload struct {
	AdvertiserID         int64                `json:"advertiser_id,omitempty"`
	DisplayName          string               `json:"display_name"`
	EntityStatus         string               `json:"entity_status"`
	FlightIDs            *[]int64             `json:"flight_ids,omitempty"`
	PlatformSpecificInfo campaignPlatformInfo `json:"platform_specific_info"`
	SyncsWith            []string             `json:"syncs_with"`
}

type campaignPlatformInfo struct {
	DV360 *dv360CampaignSection `json:"DV360,omitempty"`
}

type dv360CampaignSection struct {
	Campaign dv360Campaign `json:"campaign"`
}

type dv360Campaign struct {
	Name           string              `json:"name"`
	EntityStatus   string              `json:"entityStatus"`
	CampaignGoal   dv360CampaignGoal   `json:"campaignGoal"`
	CampaignFlight dv360CampaignFlight `json:"campaignFlight"`
	FrequencyCap   dv360FrequencyCap   `json:"frequencyCap"`
}

type dv360CampaignGoal struct {
	PerformanceGoal  dv360PerformanceGoal `json:"performanceGoal"`
	CampaignGoalType string               `json:"campaignGoalType"`
}

type dv360PerformanceGoal struct {
	PerformanceGoalType             string `json:"performanceGoalType"`
	PerformanceGoalAmountMicros     string `json:"performanceGoalAmountMicros,omitempty"`
	PerformanceGoalPercentageMicros string `json:"performanceGoalPercentageMicros,omitempty"`
}

type dv360CampaignFlight struct {
	PlannedDates dateRange `json:"plannedDates"`
}

type dv360FrequencyCap struct {
	Unlimited bool `json:"unlimited"`
}

func (p *CampaignPublisher) mapCampaign(action Action, campaign *models.Campaign) campaignPayload {
	platforms := campaign.Platforms.Values()
	plan := gamePlanOf(campaign)
	flight := firstFlight(campaign)

	info := campaignPlatformInfo{}

	for _, platform := range platforms {
		if platform != PlatformDV360 {
			continue
		}
		goal := dv360PerformanceGoal{
			PerformanceGoalType: "PERFORMANCE_GOAL_TYPE_" + plan.Kpi1Name,
		}
		// CPC/CPA goals are absolute amounts, the rest are percentages.
		if plan.Kpi1Name == "CPC" || plan.Kpi1Name == "CPA" {
			goal.PerformanceGoalAmountMicros = micros(parseAmount(plan.Kpi1Value), 1000000)
		} else {
			goal.PerformanceGoalPercentageMicros = micros(parseAmount(plan.Kpi1Value), 10000)
		}
		info.DV360 = &dv360CampaignSection{
			Campaign: dv360Campaign{
				Name:         campaign.DisplayName,
				EntityStatus: "ENTITY_STATUS_ACTIVE",
				CampaignGoal: dv360CampaignGoal{
					PerformanceGoal:  goal,
					CampaignGoalType: campaign.Goal.Value,
				},
				CampaignFlight: dv360CampaignFlight{
					PlannedDates: newDateRange(flight.From, flight.To),
				},
				FrequencyCap: dv360FrequencyCap{Unlimited: true},
			},
		}
	}

	payload := campaignPayload{
		DisplayName:          campaign.DisplayName,
		EntityStatus:         "ACTIVE",
		PlatformSpecificInfo: info,
		SyncsWith:            platforms,
	}
	if action == ActionCreate {
		payload.AdvertiserID = campaign.Advertiser.QpID
		payload.FlightIDs = &[]int64{}
	}
	return payload
}

// Publish creates or updates the campaign remotely and leaves it in
// PUBLISH_REQUESTED state. The caller persists the mutated campaign.
func (p *CampaignPublisher) Publish(ctx context.Context, campaign *models.Campaign) error {
	platforms := campaign.Platforms.Values()

	advertiserIdentifiers, err := p.resolver.Resolve(ctx, EntityAdvertiser, platforms, campaign.Advertiser.QpID, false)
	if err != nil {
		return err
	}
	p.logger.Info("resolved advertiser platform identifiers",
		zap.String("campaignId", campaign.ID),
		zap.Any("identifiers", advertiserIdentifiers))

	if campaign.QpID != 0 {
		identifiers, err := p.resolver.Resolve(ctx, EntityCampaign, campaignPullPlatforms(platforms), campaign.QpID, true)
		if err != nil {
			return err
		}
		p.logger.Info("resolved campaign platform identifiers",
			zap.String("campaignId", campaign.ID),
			zap.Any("identifiers", identifiers))

		payload := p.mapCampaign(ActionUpdate, campaign)
		if _, err := p.client.Send(ctx, http.MethodPut, fmt.Sprintf("/campaigns/%d", campaign.QpID), payload); err != nil {
			return err
		}
	} else {
		payload := p.mapCampaign(ActionCreate, campaign)
		id, err := p.client.Send(ctx, http.MethodPost, "/campaigns", payload)
		if err != nil {
			return err
		}
		campaign.QpID = id
	}

	campaign.EntityStatus = models.StatusPublishRequested
	return nil
}
