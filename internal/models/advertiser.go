package models

import (
	"time"

	"gorm.io/gorm"
)

// Entity status lifecycle shared by advertisers and campaigns.
const (
	StatusDraft            = "DRAFT"
	StatusPublishRequested = "PUBLISH_REQUESTED"
	StatusPublished        = "PUBLISHED"
	StatusPublishFailed    = "PUBLISH_FAILED"
)

type Advertiser struct {
	ID                           string            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	QpID                         int64             `gorm:"column:qp_id" json:"qpId,omitempty"`
	DisplayName                  string            `gorm:"not null;size:500" json:"displayName"`
	BrandName                    string            `gorm:"size:500" json:"brandName"`
	AdvertiserURL                string            `gorm:"size:1000" json:"advertiserUrl"`
	CompetitorURL                StringArray       `gorm:"type:text[]" json:"competitorUrl"`
	DefaultRightMediaOfferTypeID FilterItem        `gorm:"type:jsonb;serializer:json" json:"defaultRightMediaOfferTypeId"`
	GeographicDetails            GeographicDetails `gorm:"type:jsonb" json:"geographicDetails"`
	EntityStatus                 string            `gorm:"size:50;default:'DRAFT'" json:"entityStatus"`
	CreatedAt                    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt                    gorm.DeletedAt    `gorm:"index" json:"deleted_at"`
}
