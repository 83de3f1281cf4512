package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
)

// AdvertiserRepository persists advertisers.
type AdvertiserRepository interface {
	Create(ctx context.Context, advertiser *models.Advertiser) error
	List(ctx context.Context) ([]models.Advertiser, error)
	GetByID(ctx context.Context, id string) (*models.Advertiser, error)
	Update(ctx context.Context, advertiser *models.Advertiser) error
}

// CampaignRepository persists campaigns; reads always carry the advertiser
// and location list relations, writes never touch them.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	List(ctx context.Context) ([]models.Campaign, error)
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
}

type gormAdvertiserRepository struct {
	db *gorm.DB
}

func NewAdvertiserRepository(db *gorm.DB) AdvertiserRepository {
	return &gormAdvertiserRepository{db: db}
}

func (r *gormAdvertiserRepository) Create(ctx context.Context, advertiser *models.Advertiser) error {
	if err := r.db.WithContext(ctx).Create(advertiser).Error; err != nil {
		return fmt.Errorf("failed to create advertiser: %w", err)
	}
	return nil
}

func (r *gormAdvertiserRepository) List(ctx context.Context) ([]models.Advertiser, error) {
	var advertisers []models.Advertiser
	if err := r.db.WithContext(ctx).Find(&advertisers).Error; err != nil {
		return nil, fmt.Errorf("failed to list advertisers: %w", err)
	}
	return advertisers, nil
}

func (r *gormAdvertiserRepository) GetByID(ctx context.Context, id string) (*models.Advertiser, error) {
	var advertiser models.Advertiser
	if err := r.db.WithContext(ctx).First(&advertiser, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch advertiser: %w", err)
	}
	return &advertiser, nil
}

func (r *gormAdvertiserRepository) Update(ctx context.Context, advertiser *models.Advertiser) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(advertiser).Error; err != nil {
		return fmt.Errorf("failed to update advertiser: %w", err)
	}
	return nil
}

type gormCampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &gormCampaignRepository{db: db}
}

func (r *gormCampaignRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Advertiser").Preload("LocationList")
}

func (r *gormCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}
	return r.GetByID(ctx, campaign.ID)
}

func (r *gormCampaignRepository) List(ctx context.Context) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	if err := r.withRelations(ctx).Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return campaigns, nil
}

func (r *gormCampaignRepository) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign
	if err := r.withRelations(ctx).First(&campaign, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch campaign: %w", err)
	}
	return &campaign, nil
}

func (r *gormCampaignRepository) Update(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(campaign).Error; err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}
	return r.GetByID(ctx, campaign.ID)
}
