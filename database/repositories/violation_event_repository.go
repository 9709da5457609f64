package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/utils"
)

type violationEventRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.ViolationEvent, *gorm.DB]
}

func NewViolationEventRepository(db *gorm.DB) *violationEventRepository {
	return &violationEventRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.ViolationEvent](db),
	}
}

func (r *violationEventRepository) ListByAttemptID(attemptID uuid.UUID) ([]models.ViolationEvent, error) {
	var events []models.ViolationEvent
	err := r.db.Where("attempt_id = ?", attemptID).
		Order("client_timestamp ASC, created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *violationEventRepository) ExistsByFingerprint(fingerprint string) (bool, error) {
	var count int64
	err := r.db.Model(&models.ViolationEvent{}).
		Where("fingerprint = ?", fingerprint).
		Count(&count).Error
	return count > 0, err
}
