package qp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// AdvertiserPublisher pushes the advertiser attached to a campaign to the
// aggregation API and records the returned id on the advertiser.
type AdvertiserPublisher struct {
	client   *Client
	resolver *Resolver
	logger   *zap.Logger
}

func NewAdvertiserPublisher(client *Client, resolver *Resolver, logger *zap.Logger) *AdvertiserPublisher {
	return &AdvertiserPublisher{client: client, resolver: resolver, logger: logger}
}

type advertiserPayload struct {
	PartnerGroupID       string                 `json:"partner_group_id"`
	DisplayName          string                 `json:"display_name"`
	EntityStatus         string                 `json:"entity_status"`
	CreatorID            int                    `json:"creator_id"`
	DomainURL            string                 `json:"domain_url"`
	TimeZone             string                 `json:"time_zone"`
	CurrencyCode         string                 `json:"currency_code"`
	Logo                 string                 `json:"logo"`
	Country              string                 `json:"country"`
	PlatformSpecificInfo advertiserPlatformInfo `json:"platform_specific_info"`
	SyncsWith            []string               `json:"syncs_with"`
}

type advertiserPlatformInfo struct {
	DV360 *dv360AdvertiserSection `json:"DV360,omitempty"`
	TTD   *ttdAdvertiserSection   `json:"TTD,omitempty"`
	XANDR *xandrAdvertiserSection `json:"XANDR,omitempty"`
}

type dv360AdvertiserSection struct {
	Advertiser dv360Advertiser `json:"advertiser"`
}

type dv360Advertiser struct {
	PartnerID      string                   `json:"partnerId"`
	Name           string                   `json:"name"`
	EntityStatus   string                   `json:"entityStatus"`
	GeneralConfig  dv360AdvertiserGeneral   `json:"generalConfig"`
	AdServerConfig dv360AdvertiserAdServer  `json:"adServerConfig"`
	CreativeConfig struct{}                 `json:"creativeConfig"`
	BillingConfig  dv360AdvertiserBilling   `json:"billingConfig"`
}

type dv360AdvertiserGeneral struct {
	CurrencyCode string `json:"currencyCode"`
	DomainURL    string `json:"domainUrl"`
}

type dv360AdvertiserAdServer struct {
	ThirdPartyOnlyConfig struct{} `json:"thirdPartyOnlyConfig"`
}

type dv360AdvertiserBilling struct {
	BillingProfileID string `json:"billingProfileId"`
}

type ttdAdvertiserSection struct {
	Advertiser ttdAdvertiser `json:"advertiser"`
}

type ttdAdvertiser struct {
	PartnerID                                    string         `json:"PartnerId"`
	AdvertiserName                               string         `json:"AdvertiserName"`
	AttributionClickLookbackWindowInSeconds      int            `json:"AttributionClickLookbackWindowInSeconds"`
	AttributionImpressionLookbackWindowInSeconds int            `json:"AttributionImpressionLookbackWindowInSeconds"`
	ClickDedupWindowInSeconds                    int            `json:"ClickDedupWindowInSeconds"`
	ConversionDedupWindowInSeconds               int            `json:"ConversionDedupWindowInSeconds"`
	DefaultRightMediaOfferTypeID                 string         `json:"DefaultRightMediaOfferTypeId"`
	DomainAddress                                string         `json:"DomainAddress"`
	CurrencyCode                                 string         `json:"CurrencyCode"`
	AdvertiserCategory                           ttdCategoryRef `json:"AdvertiserCategory"`
}

type ttdCategoryRef struct {
	CategoryID string `json:"CategoryId"`
}

type xandrAdvertiserSection struct {
	Advertiser xandrAdvertiser `json:"advertiser"`
}

type xandrAdvertiser struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	LegalEntityName string `json:"legal_entity_name"`
	Timezone        string `json:"timezone"`
	DefaultCurrency string `json:"default_currency"`
}

func (p *AdvertiserPublisher) mapAdvertiser(action Action, campaign *models.Campaign, identifiers IdentifierBag) advertiserPayload {
	platforms := campaign.Platforms.Values()
	advertiser := campaign.Advertiser

	info := advertiserPlatformInfo{}

	for _, platform := range platforms {
		switch platform {
		case PlatformDV360:
			info.DV360 = &dv360AdvertiserSection{
				Advertiser: dv360Advertiser{
					PartnerID:    "5693431",
					Name:         advertiser.DisplayName,
					EntityStatus: "ENTITY_STATUS_ACTIVE",
					GeneralConfig: dv360AdvertiserGeneral{
						CurrencyCode: advertiser.GeographicDetails.Currency.Value,
						DomainURL:    advertiser.AdvertiserURL,
					},
					BillingConfig: dv360AdvertiserBilling{
						BillingProfileID: "1098279",
					},
				},
			}
		case PlatformTTD:
			info.TTD = &ttdAdvertiserSection{
				Advertiser: ttdAdvertiser{
					PartnerID:      "aeeepmp",
					AdvertiserName: advertiser.DisplayName,
					AttributionClickLookbackWindowInSeconds:      7776000,
					AttributionImpressionLookbackWindowInSeconds: 7776000,
					ClickDedupWindowInSeconds:                    7,
					ConversionDedupWindowInSeconds:               60,
					DefaultRightMediaOfferTypeID:                 advertiser.DefaultRightMediaOfferTypeID.Value,
					DomainAddress:                                advertiser.AdvertiserURL,
					CurrencyCode:                                 advertiser.GeographicDetails.Currency.Value,
					AdvertiserCategory: ttdCategoryRef{
						CategoryID: campaign.DemographicInformation.Category.Value,
					},
				},
			}
		case PlatformXANDR:
			section := &xandrAdvertiserSection{
				Advertiser: xandrAdvertiser{
					Name:            advertiser.DisplayName,
					LegalEntityName: "Toyota UK",
					Timezone:        "EST5EDT",
					DefaultCurrency: advertiser.GeographicDetails.Currency.Value,
				},
			}
			if action == ActionUpdate {
				section.Advertiser.ID = identifiers[PlatformXANDR]
			}
			info.XANDR = section
		}
	}

	return advertiserPayload{
		PartnerGroupID:       "42",
		DisplayName:          advertiser.DisplayName,
		EntityStatus:         "ACTIVE",
		CreatorID:            42,
		DomainURL:            advertiser.AdvertiserURL,
		TimeZone:             "EST5EDT",
		CurrencyCode:         advertiser.GeographicDetails.Currency.Value,
		Logo:                 "logo",
		Country:              advertiser.GeographicDetails.Locations.Label,
		PlatformSpecificInfo: info,
		SyncsWith:            platforms,
	}
}

// Publish creates or updates the campaign's advertiser remotely and leaves it
// in PUBLISH_REQUESTED state. The caller persists the mutated advertiser.
func (p *AdvertiserPublisher) Publish(ctx context.Context, campaign *models.Campaign) error {
	advertiser := campaign.Advertiser
	if advertiser == nil {
		return errors.New("campaign has no advertiser loaded")
	}

	identifiers, err := p.resolver.Resolve(ctx, EntityAdvertiser, campaign.Platforms.Values(), advertiser.QpID, true)
	if err != nil {
		return err
	}
	p.logger.Info("resolved advertiser platform identifiers",
		zap.String("advertiserId", advertiser.ID),
		zap.Any("identifiers", identifiers))

	if advertiser.QpID != 0 {
		payload := p.mapAdvertiser(ActionUpdate, campaign, identifiers)
		if _, err := p.client.Send(ctx, http.MethodPut, fmt.Sprintf("/advertisers/%d", advertiser.QpID), payload); err != nil {
			return err
		}
	} else {
		payload := p.mapAdvertiser(ActionCreate, campaign, identifiers)
		id, err := p.client.Send(ctx, http.MethodPost, "/advertisers", payload)
		if err != nil {
			return err
		}
		advertiser.QpID = id
	}

	advertiser.EntityStatus = models.StatusPublishRequested
	return nil
}
