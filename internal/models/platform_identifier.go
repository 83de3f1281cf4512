package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

type IdentifierMap map[string]string

func (m *IdentifierMap) Scan(value interface{}) error { return jsonScan(m, value) }
func (m IdentifierMap) Value() (driver.Value, error)  { return json.Marshal(m) }

// PlatformIdentifier caches the per-platform ids assigned to one remote
// entity. Rows are append-only: once the full bag is resolved it never
// changes.
type PlatformIdentifier struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	QpID        int64         `gorm:"column:qp_id;not null;uniqueIndex:idx_platform_identifier_key" json:"qpId"`
	Entity      string        `gorm:"size:50;not null;uniqueIndex:idx_platform_identifier_key" json:"entity"`
	Identifiers IdentifierMap `gorm:"type:jsonb" json:"identifiers"`
	CreatedAt   time.Time     `gorm:"autoCreateTime" json:"created_at"`
}
