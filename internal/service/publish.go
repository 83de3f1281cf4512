package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/deepak-sorigin/qn-backend-test/internal/config"
	"github.com/deepak-sorigin/qn-backend-test/internal/models"
	"github.com/deepak-sorigin/qn-backend-test/internal/service/qp"
)

// PublishService drives the full publish pipeline of one campaign:
// advertiser, campaign, game plan, then one insertion order per
// (platform, format) pair and one line item per device bucket and targeting
// category under it. Progress is written back to the database after every
// remote call so an interrupted run resumes where it stopped.
type PublishService struct {
	logger      *zap.Logger
	config      *config.Config
	campaigns   CampaignRepository
	advertisers AdvertiserRepository

	advertiserPublisher *qp.AdvertiserPublisher
	campaignPublisher   *qp.CampaignPublisher
	gamePlanPublisher   *qp.GamePlanPublisher
	orderPublisher      *qp.InsertionOrderPublisher
	lineItemPublisher   *qp.LineItemPublisher
	targetingPublisher  *qp.TargetingPublisher
	profilePublisher    *qp.ProfilePublisher

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewPublishService(
	cfg *config.Config,
	campaigns CampaignRepository,
	advertisers AdvertiserRepository,
	client *qp.Client,
	resolver *qp.Resolver,
	logger *zap.Logger,
) *PublishService {
	return &PublishService{
		logger:      logger,
		config:      cfg,
		campaigns:   campaigns,
		advertisers: advertisers,

		advertiserPublisher: qp.NewAdvertiserPublisher(client, resolver, logger),
		campaignPublisher:   qp.NewCampaignPublisher(client, resolver, logger),
		gamePlanPublisher:   qp.NewGamePlanPublisher(client, logger),
		orderPublisher:      qp.NewInsertionOrderPublisher(client, resolver, logger),
		lineItemPublisher:   qp.NewLineItemPublisher(client, resolver, logger),
		targetingPublisher:  qp.NewTargetingPublisher(client, logger),
		profilePublisher:    qp.NewProfilePublisher(client, resolver, logger),

		inFlight: make(map[string]bool),
	}
}

func (s *PublishService) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[id] {
		return false
	}
	s.inFlight[id] = true
	return true
}

func (s *PublishService) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

// Publish runs the pipeline for one campaign. At most one publish per
// campaign runs at a time; a second caller gets ErrPublishInProgress. Any
// failure past the initial fetch leaves the campaign in PUBLISH_FAILED with
// every remote id gathered so far retained for the next attempt.
func (s *PublishService) Publish(ctx context.Context, id string) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.acquire(campaign.ID) {
		return nil, ErrPublishInProgress
	}
	defer s.release(campaign.ID)

	published, err := s.run(ctx, campaign)
	if err != nil {
		s.logger.Error("Campaign publish failed",
			zap.String("campaign_id", campaign.ID),
			zap.Error(err))
		// Mark failure on the latest persisted state so the progress
		// written during the run is kept for the next attempt.
		latest, fetchErr := s.campaigns.GetByID(ctx, campaign.ID)
		if fetchErr != nil {
			latest = campaign
		}
		latest.EntityStatus = models.StatusPublishFailed
		if _, saveErr := s.campaigns.Update(ctx, latest); saveErr != nil {
			s.logger.Error("Failed to record publish failure",
				zap.String("campaign_id", campaign.ID),
				zap.Error(saveErr))
		}
		return nil, err
	}
	return published, nil
}

func (s *PublishService) run(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	// Advertiser
	if err := s.advertiserPublisher.Publish(ctx, campaign); err != nil {
		return nil, err
	}
	if err := s.advertisers.Update(ctx, campaign.Advertiser); err != nil {
		return nil, err
	}

	// Campaign
	if err := s.campaignPublisher.Publish(ctx, campaign); err != nil {
		return nil, err
	}
	campaign.Advertiser.EntityStatus = models.StatusPublished
	if err := s.advertisers.Update(ctx, campaign.Advertiser); err != nil {
		return nil, err
	}
	campaign, err := s.campaigns.Update(ctx, campaign)
	if err != nil {
		return nil, err
	}

	// Game plan
	if err := s.gamePlanPublisher.Publish(ctx, campaign); err != nil {
		return nil, err
	}
	campaign, err = s.campaigns.Update(ctx, campaign)
	if err != nil {
		return nil, err
	}

	var formats models.FilterItems
	if campaign.GamePlan != nil {
		formats = campaign.GamePlan.Format
	}
	var deviceTargeting models.FilterItems
	if campaign.IOTarget != nil {
		deviceTargeting = campaign.IOTarget.DeviceTargeting
	}

	for _, platform := range campaign.Platforms {
		for _, format := range formats {
			campaign, err = s.publishInsertionOrder(ctx, campaign, platform.Value, format.Value, deviceTargeting)
			if err != nil {
				return nil, err
			}
		}
	}
	return campaign, nil
}

// publishInsertionOrder creates or updates the insertion order of one
// (platform, format) pair and all line items under it.
func (s *PublishService) publishInsertionOrder(
	ctx context.Context,
	campaign *models.Campaign,
	platform, format string,
	deviceTargeting models.FilterItems,
) (*models.Campaign, error) {
	orderKey := models.InsertionOrderKey{Platform: platform, Format: format}
	existingOrderID := campaign.InsertionOrders.Index()[orderKey]

	orderID, err := s.orderPublisher.Publish(ctx, campaign, platform, format, existingOrderID)
	if err != nil {
		return nil, err
	}
	if existingOrderID == 0 {
		campaign.InsertionOrders = append(campaign.InsertionOrders, models.InsertionOrderRecord{
			Platform:           platform,
			Format:             format,
			QpInsertionOrderID: orderID,
		})
	}
	campaign, err = s.campaigns.Update(ctx, campaign)
	if err != nil {
		return nil, err
	}

	keywords := qp.MergedKeywords(campaign.ContentThemes)
	categories := qp.TargetingCategories(campaign, platform)

	for _, bucket := range qp.DeviceBuckets(deviceTargeting) {
		if platform == qp.PlatformDV360 {
			campaign, err = s.publishKeywordLineItem(ctx, campaign, platform, format, orderID, bucket, keywords)
			if err != nil {
				return nil, err
			}
		}

		if platform == qp.PlatformXANDR && s.config.Publish.CreateProfiles {
			if _, err := s.profilePublisher.Publish(ctx, campaign, orderID, bucket.Devices); err != nil {
				// Profiles refine delivery but are not required for it.
				s.logger.Error("Error while creating line item profile",
					zap.String("campaign_id", campaign.ID),
					zap.Error(err))
			}
		}

		for _, category := range categories {
			campaign, err = s.publishCategoryLineItem(ctx, campaign, platform, format, orderID, bucket, category)
			if err != nil {
				return nil, err
			}
		}

		campaign.EntityStatus = models.StatusPublished
		campaign, err = s.campaigns.Update(ctx, campaign)
		if err != nil {
			return nil, err
		}
	}
	return campaign, nil
}

// publishKeywordLineItem creates the single merged-keyword line item of a
// DV360 device bucket. Failures are logged and swallowed: the campaign keeps
// publishing without the keyword line.
func (s *PublishService) publishKeywordLineItem(
	ctx context.Context,
	campaign *models.Campaign,
	platform, format string,
	orderID int64,
	bucket qp.DeviceBucket,
	keywords []string,
) (*models.Campaign, error) {
	key := models.LineItemKey{
		Platform: platform,
		Keyword:  qp.ContentThemeKeyword,
		Format:   format,
		Device:   bucket.Name,
	}
	existingID := campaign.LineItems.Index()[key]

	lineItemID, err := s.lineItemPublisher.Publish(ctx, qp.LineItemRequest{
		Campaign:           campaign,
		Platform:           platform,
		LineItemName:       "CNT",
		QpInsertionOrderID: orderID,
		Format:             format,
		DeviceName:         bucket.Name,
		DeviceTargeting:    bucket.Devices,
		Keywords:           keywords,
		TargetingType:      qp.TargetingTypeKeyword,
		QpLineItemID:       existingID,
	})
	if err != nil {
		s.logger.Error("Error while creating line item for keywords",
			zap.String("campaign_id", campaign.ID),
			zap.Error(err))
		return campaign, nil
	}

	if existingID == 0 {
		campaign.LineItems = append(campaign.LineItems, models.LineItemRecord{
			Platform:     platform,
			Keyword:      qp.ContentThemeKeyword,
			Format:       format,
			Device:       bucket.Name,
			QpLineItemID: lineItemID,
		})
	}
	campaign, err = s.campaigns.Update(ctx, campaign)
	if err != nil {
		return nil, err
	}

	if s.config.Publish.AttachTargeting {
		err := s.targetingPublisher.Publish(ctx, qp.TargetingRequest{
			Campaign:           campaign,
			Keywords:           keywords,
			TargetingType:      qp.TargetingTypeKeyword,
			QpLineItemID:       lineItemID,
			QpInsertionOrderID: orderID,
		})
		if err != nil {
			s.logger.Error("Error while attaching keyword targeting",
				zap.String("campaign_id", campaign.ID),
				zap.Error(err))
		}
	}
	return campaign, nil
}

// publishCategoryLineItem creates one targeting-category line item. Failures
// are logged and swallowed so one bad category never blocks the rest.
func (s *PublishService) publishCategoryLineItem(
	ctx context.Context,
	campaign *models.Campaign,
	platform, format string,
	orderID int64,
	bucket qp.DeviceBucket,
	category models.RetoolTarget,
) (*models.Campaign, error) {
	key := models.LineItemKey{
		Platform: platform,
		Keyword:  category.FullName,
		Format:   format,
		Device:   bucket.Name,
	}
	existingID := campaign.LineItems.Index()[key]

	lineItemID, err := s.lineItemPublisher.Publish(ctx, qp.LineItemRequest{
		Campaign:           campaign,
		Platform:           platform,
		LineItemName:       category.LineItemNameVariable,
		QpInsertionOrderID: orderID,
		Format:             format,
		Category:           &category,
		DeviceName:         bucket.Name,
		DeviceTargeting:    bucket.Devices,
		TargetingType:      qp.TargetingTypeFor(category.Type),
		QpLineItemID:       existingID,
	})
	if err != nil {
		s.logger.Error("Error while creating line item for category",
			zap.String("campaign_id", campaign.ID),
			zap.String("platform", platform),
			zap.String("category", category.FullName),
			zap.Error(err))
		return campaign, nil
	}

	if existingID == 0 {
		campaign.LineItems = append(campaign.LineItems, models.LineItemRecord{
			Platform:     platform,
			Keyword:      category.FullName,
			Format:       format,
			Device:       bucket.Name,
			QpLineItemID: lineItemID,
		})
	}
	return s.campaigns.Update(ctx, campaign)
}
