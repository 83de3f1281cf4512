package qp

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// GamePlanPublisher pushes the campaign's game plan shell to the aggregation
// API.
type GamePlanPublisher struct {
	client *Client
	logger *zap.Logger
}

func NewGamePlanPublisher(client *Client, logger *zap.Logger) *GamePlanPublisher {
	return &GamePlanPublisher{client: client, logger: logger}
}

type gamePlanPayload struct {
	AdvertiserID int64  `json:"advertiser_id,omitempty"`
	CampaignID   int64  `json:"campaign_id,omitempty"`
	DisplayName  string `json:"display_name"`
	EntityStatus string `json:"entity_status"`
}

func (p *GamePlanPublisher) mapGamePlan(action Action, campaign *models.Campaign) gamePlanPayload {
	payload := gamePlanPayload{
		DisplayName:  campaign.Advertiser.DisplayName + campaign.DisplayName + " Game plan",
		EntityStatus: "ACTIVE",
	}
	if action == ActionCreate {
		payload.AdvertiserID = campaign.Advertiser.QpID
		payload.CampaignID = campaign.QpID
	}
	return payload
}

// Publish creates or updates the game plan remotely and records its id on the
// campaign. The caller persists the mutated campaign.
func (p *GamePlanPublisher) Publish(ctx context.Context, campaign *models.Campaign) error {
	if campaign.QpGamePlanID != 0 {
		payload := p.mapGamePlan(ActionUpdate, campaign)
		if _, err := p.client.Send(ctx, http.MethodPut, fmt.Sprintf("/game-plan/%d", campaign.QpGamePlanID), payload); err != nil {
			return err
		}
	} else {
		payload := p.mapGamePlan(ActionCreate, campaign)
		id, err := p.client.Send(ctx, http.MethodPost, "/game-plan", payload)
		if err != nil {
			return err
		}
		campaign.QpGamePlanID = id
	}

	campaign.EntityStatus = models.StatusPublishRequested
	return nil
}
