package qp

// Entity is a remote entity kind tracked by the pull service.
type Entity string

const (
	EntityAdvertiser     Entity = "Advertiser"
	EntityCampaign       Entity = "Campaign"
	EntityInsertionOrder Entity = "InsertionOrder"
	EntityLineItem       Entity = "LineItem"
)

// Demand-side platforms reachable through the aggregation API.
const (
	PlatformDV360 = "DV360"
	PlatformTTD   = "TTD"
	PlatformXANDR = "XANDR"
)

// pullRoute names the read endpoint of an entity kind and the JSON path
// where each platform reports its assigned identifier.
type pullRoute struct {
	path            string
	identifierPaths map[string]string
}

var pullRoutes = map[Entity]pullRoute{
	EntityAdvertiser: {
		path: "/advertisers/%d",
		identifierPaths: map[string]string{
			PlatformDV360: "platform_specific_info.DV360.advertiser.advertiserId",
			PlatformTTD:   "platform_specific_info.TTD.advertiser.AdvertiserId",
			PlatformXANDR: "platform_specific_info.XANDR.advertiser.id",
		},
	},
	EntityCampaign: {
		path: "/campaigns/%d",
		identifierPaths: map[string]string{
			PlatformDV360: "platform_specific_info.DV360.campaign.campaignId",
			PlatformTTD:   "platform_specific_info.TTD.campaign.CampaignId",
			PlatformXANDR: "platform_specific_info.XANDR.campaign.id",
		},
	},
	EntityInsertionOrder: {
		path: "/insertion-order/%d",
		identifierPaths: map[string]string{
			PlatformDV360: "platform_specific_info.DV360.insertionOrder.insertionOrderId",
			PlatformTTD:   "platform_specific_info.TTD.insertionOrder.CampaignId",
			PlatformXANDR: "platform_specific_info.XANDR.insertionOrder.id",
		},
	},
	EntityLineItem: {
		path: "/line-item/%d",
		identifierPaths: map[string]string{
			PlatformDV360: "platform_specific_info.DV360.lineItem.lineItemId",
			PlatformTTD:   "platform_specific_info.TTD.lineItem.AdGroupId",
			PlatformXANDR: "platform_specific_info.XANDR.lineItem.id",
		},
	},
}

// campaignPullPlatforms drops TTD and XANDR, which assign no campaign-level
// identifier of their own.
func campaignPullPlatforms(platforms []string) []string {
	var filtered []string
	for _, platform := range platforms {
		if platform == PlatformTTD || platform == PlatformXANDR {
			continue
		}
		filtered = append(filtered, platform)
	}
	return filtered
}
