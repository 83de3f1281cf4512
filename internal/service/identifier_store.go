package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/deepak-sorigin/qn-backend-test/internal/models"
	"github.com/deepak-sorigin/qn-backend-test/internal/service/qp"
)

type gormIdentifierStore struct {
	db *gorm.DB
}

// NewIdentifierStore returns a database-backed cache of resolved platform
// identifier bags, keyed by (entity, remote id).
func NewIdentifierStore(db *gorm.DB) qp.IdentifierStore {
	return &gormIdentifierStore{db: db}
}

func (s *gormIdentifierStore) Get(ctx context.Context, entity qp.Entity, qpID int64) (qp.IdentifierBag, bool, error) {
	var row models.PlatformIdentifier
	err := s.db.WithContext(ctx).
		Where("entity = ? AND qp_id = ?", string(entity), qpID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to fetch platform identifiers: %w", err)
	}
	bag := make(qp.IdentifierBag, len(row.Identifiers))
	for platform, id := range row.Identifiers {
		bag[platform] = id
	}
	return bag, true, nil
}

func (s *gormIdentifierStore) Put(ctx context.Context, entity qp.Entity, qpID int64, bag qp.IdentifierBag) error {
	row := models.PlatformIdentifier{
		QpID:        qpID,
		Entity:      string(entity),
		Identifiers: models.IdentifierMap(bag),
	}
	// Concurrent publishes of distinct campaigns may resolve the same
	// advertiser; the first writer wins and the bags are identical anyway.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store platform identifiers: %w", err)
	}
	return nil
}
