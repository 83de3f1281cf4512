package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// AdvertiserService manages the advertiser catalogue
type AdvertiserService struct {
	logger *zap.Logger
	repo   AdvertiserRepository
}

func NewAdvertiserService(db *gorm.DB, logger *zap.Logger) *AdvertiserService {
	return &AdvertiserService{
		logger: logger,
		repo:   NewAdvertiserRepository(db),
	}
}

// Create stores a new advertiser in DRAFT state. Remote ids are only
// assigned later, when a campaign referencing it is published.
func (s *AdvertiserService) Create(ctx context.Context, advertiser *models.Advertiser) (*models.Advertiser, error) {
	advertiser.ID = ""
	advertiser.QpID = 0
	advertiser.EntityStatus = models.StatusDraft

	if err := s.repo.Create(ctx, advertiser); err != nil {
		return nil, err
	}

	s.logger.Info("Advertiser created",
		zap.String("advertiser_id", advertiser.ID),
		zap.String("display_name", advertiser.DisplayName))
	return advertiser, nil
}

func (s *AdvertiserService) List(ctx context.Context) ([]models.Advertiser, error) {
	return s.repo.List(ctx)
}

func (s *AdvertiserService) Get(ctx context.Context, id string) (*models.Advertiser, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the mutable fields of an advertiser. The remote id and
// publish status survive the update so republishing stays an update, not a
// duplicate create.
func (s *AdvertiserService) Update(ctx context.Context, id string, update *models.Advertiser) (*models.Advertiser, error) {
	advertiser, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	advertiser.DisplayName = update.DisplayName
	advertiser.BrandName = update.BrandName
	advertiser.AdvertiserURL = update.AdvertiserURL
	advertiser.CompetitorURL = update.CompetitorURL
	advertiser.DefaultRightMediaOfferTypeID = update.DefaultRightMediaOfferTypeID
	advertiser.GeographicDetails = update.GeographicDetails

	if err := s.repo.Update(ctx, advertiser); err != nil {
		return nil, err
	}

	s.logger.Info("Advertiser updated", zap.String("advertiser_id", advertiser.ID))
	return advertiser, nil
}
