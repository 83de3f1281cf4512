package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// InsertionOrderRecord tracks the remote insertion order created for one
// (platform, format) pair. Append-only during a publish run.
type InsertionOrderRecord struct {
	Platform           string `json:"platform"`
	Format             string `json:"format"`
	QpInsertionOrderID int64  `json:"qpInsertionOrderId"`
}

// InsertionOrderKey is the natural key of an InsertionOrderRecord.
type InsertionOrderKey struct {
	Platform string
	Format   string
}

type InsertionOrderRecords []InsertionOrderRecord

func (r *InsertionOrderRecords) Scan(value interface{}) error { return jsonScan(r, value) }
func (r InsertionOrderRecords) Value() (driver.Value, error)  { return json.Marshal(r) }

// Index builds a natural-key lookup over the records. Insertion order of the
// slice is preserved for display; the index is what idempotency checks use.
func (r InsertionOrderRecords) Index() map[InsertionOrderKey]int64 {
	index := make(map[InsertionOrderKey]int64, len(r))
	for _, record := range r {
		index[InsertionOrderKey{Platform: record.Platform, Format: record.Format}] = record.QpInsertionOrderID
	}
	return index
}

// LineItemRecord tracks the remote line item created for one
// (platform, targeting key, format, device bucket) tuple.
type LineItemRecord struct {
	Platform     string `json:"platform"`
	Keyword      string `json:"keyword"`
	Format       string `json:"format"`
	Device       string `json:"device"`
	QpLineItemID int64  `json:"qpLineItemId"`
}

// LineItemKey is the natural key of a LineItemRecord.
type LineItemKey struct {
	Platform string
	Keyword  string
	Format   string
	Device   string
}

type LineItemRecords []LineItemRecord

func (r *LineItemRecords) Scan(value interface{}) error { return jsonScan(r, value) }
func (r LineItemRecords) Value() (driver.Value, error)  { return json.Marshal(r) }

func (r LineItemRecords) Index() map[LineItemKey]int64 {
	index := make(map[LineItemKey]int64, len(r))
	for _, record := range r {
		index[LineItemKey{
			Platform: record.Platform,
			Keyword:  record.Keyword,
			Format:   record.Format,
			Device:   record.Device,
		}] = record.QpLineItemID
	}
	return index
}

type Campaign struct {
	ID             string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	AdvertiserID   string `gorm:"type:uuid;not null;index" json:"advertiserId"`
	QpID           int64  `gorm:"column:qp_id" json:"qpId,omitempty"`
	QpGamePlanID   int64  `gorm:"column:qp_game_plan_id" json:"qpGamePlanId,omitempty"`
	DisplayName    string `gorm:"not null;size:500" json:"displayName"`
	BillingCode    string `gorm:"size:100" json:"billingCode"`
	EntityStatus   string `gorm:"size:50;default:'DRAFT'" json:"entityStatus"`
	Language       string `gorm:"size:50" json:"language,omitempty"`
	Scale          float64 `json:"scale,omitempty"`
	LocationListID *string `gorm:"type:uuid" json:"locationListId,omitempty"`
	// LocationListName is denormalized from the list for name composition.
	LocationListName string `gorm:"size:500" json:"locationListName,omitempty"`

	Goal                   FilterItem             `gorm:"type:jsonb;serializer:json" json:"goal"`
	GamePlan               *GamePlanDetails       `gorm:"type:jsonb" json:"gamePlan,omitempty"`
	Flights                Flights                `gorm:"type:jsonb" json:"flights"`
	Channel                FilterItems            `gorm:"type:jsonb" json:"channel"`
	Platforms              FilterItems            `gorm:"type:jsonb" json:"platforms"`
	ContentThemes          *ContentThemes         `gorm:"type:jsonb" json:"contentThemes,omitempty"`
	IOTarget               *IOTarget              `gorm:"type:jsonb" json:"ioTarget,omitempty"`
	DemographicInformation DemographicInformation `gorm:"type:jsonb" json:"demographicInformation"`
	Targets                *TargetGroups          `gorm:"type:jsonb" json:"targets,omitempty"`
	InsertionOrders        InsertionOrderRecords  `gorm:"type:jsonb" json:"insertionOrders"`
	LineItems              LineItemRecords        `gorm:"type:jsonb" json:"lineItems"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	Advertiser   *Advertiser      `gorm:"foreignKey:AdvertiserID" json:"advertiser,omitempty"`
	LocationList *GeoLocationList `gorm:"foreignKey:LocationListID" json:"locationList,omitempty"`
}
