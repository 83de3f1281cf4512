package qp

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// assignedTargetingOption is one entry of a DV360 assigned-targeting request;
// exactly one detail member is set per entry.
type assignedTargetingOption struct {
	KeywordDetails       *keywordDetails       `json:"keywordDetails,omitempty"`
	CategoryDetails      *categoryDetails      `json:"categoryDetails,omitempty"`
	AudienceGroupDetails *audienceGroupDetails `json:"audienceGroupDetails,omitempty"`
	GeoRegionDetails     *geoRegionDetails     `json:"geoRegionDetails,omitempty"`
	AgeRangeDetails      *ageRangeDetails      `json:"ageRangeDetails,omitempty"`
	LanguageDetails      *languageDetails      `json:"languageDetails,omitempty"`
	ViewabilityDetails   *viewabilityDetails   `json:"viewabilityDetails,omitempty"`
}

type keywordDetails struct {
	Keyword string `json:"keyword"`
}

type categoryDetails struct {
	TargetingOptionID string `json:"targetingOptionId"`
	Negative          bool   `json:"negative,omitempty"`
}

type audienceGroupDetails struct {
	IncludedGoogleAudienceGroup googleAudienceGroup `json:"includedGoogleAudienceGroup"`
}

type googleAudienceGroup struct {
	Settings []googleAudienceSetting `json:"settings"`
}

type googleAudienceSetting struct {
	GoogleAudienceID string `json:"googleAudienceId"`
}

type geoRegionDetails struct {
	TargetingOptionID string `json:"targetingOptionId"`
	Negative          bool   `json:"negative"`
}

type ageRangeDetails struct {
	AgeRange string `json:"ageRange"`
}

type languageDetails struct {
	TargetingOptionID string `json:"targetingOptionId"`
	Negative          bool   `json:"negative"`
}

type viewabilityDetails struct {
	Viewability string `json:"viewability"`
}

type targetingRequest struct {
	TargetingType            string                    `json:"targetingType"`
	AssignedTargetingOptions []assignedTargetingOption `json:"assignedTargetingOptions"`
}

func dv360GeoTargeting(campaign *models.Campaign) targetingRequest {
	options := []assignedTargetingOption{}
	if campaign.LocationList != nil {
		geo := campaign.LocationList.Platforms[PlatformDV360]
		for _, id := range geo.Include {
			options = append(options, assignedTargetingOption{
				GeoRegionDetails: &geoRegionDetails{TargetingOptionID: id, Negative: false},
			})
		}
		for _, id := range geo.Exclude {
			options = append(options, assignedTargetingOption{
				GeoRegionDetails: &geoRegionDetails{TargetingOptionID: id, Negative: true},
			})
		}
	}
	return targetingRequest{
		TargetingType:            "TARGETING_TYPE_GEO_REGION",
		AssignedTargetingOptions: options,
	}
}

func dv360DemoTargeting(campaign *models.Campaign) targetingRequest {
	demographic := campaign.DemographicInformation.Demographic
	options := []assignedTargetingOption{}
	for _, r := range selectedAgeRanges(demographic.From, demographic.To) {
		upper := fmt.Sprintf("%d", r.to)
		if r.to >= 65 {
			upper = "PLUS"
		}
		options = append(options, assignedTargetingOption{
			AgeRangeDetails: &ageRangeDetails{
				AgeRange: fmt.Sprintf("AGE_RANGE_%d_%s", r.from, upper),
			},
		})
	}
	return targetingRequest{
		TargetingType:            "TARGETING_TYPE_AGE_RANGE",
		AssignedTargetingOptions: options,
	}
}

func dv360LanguageTargeting(campaign *models.Campaign) targetingRequest {
	return targetingRequest{
		TargetingType: "TARGETING_TYPE_LANGUAGE",
		AssignedTargetingOptions: []assignedTargetingOption{
			{
				LanguageDetails: &languageDetails{
					TargetingOptionID: dv360LanguageIDs[campaign.Language],
					Negative:          false,
				},
			},
		},
	}
}

func dv360CategoryExclusions(campaign *models.Campaign) targetingRequest {
	options := []assignedTargetingOption{}
	if campaign.IOTarget != nil {
		for _, category := range campaign.IOTarget.CategoryContentExclusion {
			options = append(options, assignedTargetingOption{
				CategoryDetails: &categoryDetails{
					TargetingOptionID: category.DV360Value,
					Negative:          true,
				},
			})
		}
	}
	return targetingRequest{
		TargetingType:            "TARGETING_TYPE_CATEGORY",
		AssignedTargetingOptions: options,
	}
}

func dv360ViewabilityTargeting(campaign *models.Campaign) targetingRequest {
	viewability := 0
	if campaign.IOTarget != nil {
		viewability = campaign.IOTarget.Viewability
	}
	return targetingRequest{
		TargetingType: "TARGETING_TYPE_VIEWABILITY",
		AssignedTargetingOptions: []assignedTargetingOption{
			{
				ViewabilityDetails: &viewabilityDetails{
					Viewability: viewabilityEnums[viewability],
				},
			},
		},
	}
}

// dv360CommonTargeting is the request set attached to every DV360 bulk edit:
// geo, age, language, content exclusions and viewability.
func dv360CommonTargeting(campaign *models.Campaign) []targetingRequest {
	return []targetingRequest{
		dv360GeoTargeting(campaign),
		dv360DemoTargeting(campaign),
		dv360LanguageTargeting(campaign),
		dv360CategoryExclusions(campaign),
		dv360ViewabilityTargeting(campaign),
	}
}

// TargetingPublisher attaches further assigned-targeting options to an
// already created DV360 line item through the script endpoint.
type TargetingPublisher struct {
	client *Client
	logger *zap.Logger
}

func NewTargetingPublisher(client *Client, logger *zap.Logger) *TargetingPublisher {
	return &TargetingPublisher{client: client, logger: logger}
}

type scriptPayload struct {
	Entity   string         `json:"entity"`
	Action   string         `json:"action"`
	DbObject scriptDbObject `json:"dbObject"`
}

type scriptDbObject struct {
	LineItems scriptLineItems `json:"line_items"`
}

type scriptLineItems struct {
	AdvertiserID         int64              `json:"advertiser_id,omitempty"`
	CampaignID           int64              `json:"campaign_id,omitempty"`
	GamePlanID           int64              `json:"game_plan_id,omitempty"`
	InsertionOrderID     int64              `json:"insertion_order_id,omitempty"`
	PlatformSpecificInfo scriptPlatformInfo `json:"platform_specific_info"`
}

type scriptPlatformInfo struct {
	DV360 *dv360ScriptSection `json:"DV360,omitempty"`
	XANDR *xandrScriptSection `json:"XANDR,omitempty"`
}

type dv360ScriptSection struct {
	BulkEditAssignedTargetingOptions *bulkEditTargeting `json:"bulkEditAssignedTargetingOptions,omitempty"`
}

type bulkEditTargeting struct {
	LineItemIDs    []string           `json:"lineItemIds,omitempty"`
	DeleteRequests []struct{}         `json:"deleteRequests,omitempty"`
	CreateRequests []targetingRequest `json:"createRequests"`
}

// TargetingRequest describes one attach call for a DV360 line item.
type TargetingRequest struct {
	Campaign           *models.Campaign
	Keywords           []string
	TargetingType      string
	QpLineItemID       int64
	QpInsertionOrderID int64
}

func (p *TargetingPublisher) mapTargeting(req TargetingRequest) scriptPayload {
	campaign := req.Campaign

	options := make([]assignedTargetingOption, 0, len(req.Keywords))
	for _, keyword := range req.Keywords {
		switch req.TargetingType {
		case TargetingTypeKeyword:
			options = append(options, assignedTargetingOption{
				KeywordDetails: &keywordDetails{Keyword: keyword},
			})
		case TargetingTypeAudienceGroup:
			options = append(options, assignedTargetingOption{
				AudienceGroupDetails: &audienceGroupDetails{
					IncludedGoogleAudienceGroup: googleAudienceGroup{
						Settings: []googleAudienceSetting{{GoogleAudienceID: keyword}},
					},
				},
			})
		default:
			options = append(options, assignedTargetingOption{
				CategoryDetails: &categoryDetails{TargetingOptionID: keyword},
			})
		}
	}

	createRequests := append([]targetingRequest{
		{
			TargetingType:            req.TargetingType,
			AssignedTargetingOptions: options,
		},
	}, dv360CommonTargeting(campaign)...)

	return scriptPayload{
		Entity: "line_items",
		Action: "line_items.bulkEditAssignedTargetingOptions",
		DbObject: scriptDbObject{
			LineItems: scriptLineItems{
				AdvertiserID:     campaign.Advertiser.QpID,
				CampaignID:       campaign.QpID,
				GamePlanID:       campaign.QpGamePlanID,
				InsertionOrderID: req.QpInsertionOrderID,
				PlatformSpecificInfo: scriptPlatformInfo{
					DV360: &dv360ScriptSection{
						BulkEditAssignedTargetingOptions: &bulkEditTargeting{
							CreateRequests: createRequests,
						},
					},
				},
			},
		},
	}
}

// Publish submits the attach script and leaves the campaign in
// PUBLISH_REQUESTED state.
func (p *TargetingPublisher) Publish(ctx context.Context, req TargetingRequest) error {
	payload := p.mapTargeting(req)
	if _, err := p.client.do(ctx, http.MethodPost, "/scripts/list", payload); err != nil {
		return err
	}
	req.Campaign.EntityStatus = models.StatusPublishRequested
	return nil
}
