package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// CampaignService manages campaign drafts
type CampaignService struct {
	logger      *zap.Logger
	repo        CampaignRepository
	advertisers AdvertiserRepository
}

func NewCampaignService(db *gorm.DB, logger *zap.Logger) *CampaignService {
	return &CampaignService{
		logger:      logger,
		repo:        NewCampaignRepository(db),
		advertisers: NewAdvertiserRepository(db),
	}
}

// Create stores a new campaign in DRAFT state. The referenced advertiser
// must already exist.
func (s *CampaignService) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if _, err := s.advertisers.GetByID(ctx, campaign.AdvertiserID); err != nil {
		return nil, err
	}

	campaign.ID = ""
	campaign.QpID = 0
	campaign.QpGamePlanID = 0
	campaign.EntityStatus = models.StatusDraft
	campaign.InsertionOrders = nil
	campaign.LineItems = nil

	created, err := s.repo.Create(ctx, campaign)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Campaign created",
		zap.String("campaign_id", created.ID),
		zap.String("display_name", created.DisplayName))
	return created, nil
}

func (s *CampaignService) List(ctx context.Context) ([]models.Campaign, error) {
	return s.repo.List(ctx)
}

func (s *CampaignService) Get(ctx context.Context, id string) (*models.Campaign, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the editable fields of a campaign draft. Remote ids and
// the records of already-published insertion orders and line items are kept,
// so a later publish updates rather than duplicates.
func (s *CampaignService) Update(ctx context.Context, id string, update *models.Campaign) (*models.Campaign, error) {
	campaign, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.AdvertiserID != "" && update.AdvertiserID != campaign.AdvertiserID {
		if _, err := s.advertisers.GetByID(ctx, update.AdvertiserID); err != nil {
			return nil, err
		}
		campaign.AdvertiserID = update.AdvertiserID
	}

	campaign.DisplayName = update.DisplayName
	campaign.BillingCode = update.BillingCode
	campaign.Language = update.Language
	campaign.Scale = update.Scale
	campaign.LocationListID = update.LocationListID
	campaign.LocationListName = update.LocationListName
	campaign.Goal = update.Goal
	campaign.GamePlan = update.GamePlan
	campaign.Flights = update.Flights
	campaign.Channel = update.Channel
	campaign.Platforms = update.Platforms
	campaign.ContentThemes = update.ContentThemes
	campaign.IOTarget = update.IOTarget
	campaign.DemographicInformation = update.DemographicInformation
	campaign.Targets = update.Targets

	updated, err := s.repo.Update(ctx, campaign)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Campaign updated", zap.String("campaign_id", updated.ID))
	return updated, nil
}
