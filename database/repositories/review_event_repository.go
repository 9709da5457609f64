package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/utils"
)

type reviewEventRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.ReviewEvent, *gorm.DB]
}

func NewReviewEventRepository(db *gorm.DB) *reviewEventRepository {
	return &reviewEventRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.ReviewEvent](db),
	}
}

func (r *reviewEventRepository) ListByDecisionID(decisionID uuid.UUID) ([]models.ReviewEvent, error) {
	var events []models.ReviewEvent
	err := r.db.Where("decision_id = ?", decisionID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
