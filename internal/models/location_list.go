package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Geo target granularity levels for a location list.
const (
	GeoTargetLevelCountry = "1. Country"
	GeoTargetLevelRegion  = "2. Region (Province/State)"
	GeoTargetLevelCity    = "3. Domain (City)"
)

// GeoList is the include/exclude id pair for one platform.
type GeoList struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

type PlatformGeoLists map[string]GeoList

func (p *PlatformGeoLists) Scan(value interface{}) error { return jsonScan(p, value) }
func (p PlatformGeoLists) Value() (driver.Value, error)  { return json.Marshal(p) }

// GeoLocationList is a named set of per-platform geo target ids referenced by
// campaigns; its rows are seeded out of band.
type GeoLocationList struct {
	ID        string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string           `gorm:"not null;size:500" json:"name"`
	Level     string           `gorm:"size:100" json:"level"`
	Platforms PlatformGeoLists `gorm:"type:jsonb" json:"platforms"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"deleted_at"`
}
