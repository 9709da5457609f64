package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/utils"
)

type decisionRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.DisqualificationDecision, *gorm.DB]
}

func NewDecisionRepository(db *gorm.DB) *decisionRepository {
	return &decisionRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.DisqualificationDecision](db),
	}
}

// CreatePendingIfAbsent is the idempotent conditional insert behind the
// "exactly one decision per (attempt, rule)" guarantee. The partial unique
// index on pending decisions absorbs concurrent threshold crossings; the
// second writer observes created == false.
func (r *decisionRepository) CreatePendingIfAbsent(tx *gorm.DB, decision *models.DisqualificationDecision) (bool, error) {
	result := r.GetDB(tx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(decision)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *decisionRepository) ListByAttemptID(attemptID uuid.UUID) ([]models.DisqualificationDecision, error) {
	var decisions []models.DisqualificationDecision
	err := r.db.Where("attempt_id = ?", attemptID).
		Order("created_at ASC").
		Find(&decisions).Error
	return decisions, err
}

func (r *decisionRepository) ListPending() ([]models.DisqualificationDecision, error) {
	var decisions []models.DisqualificationDecision
	err := r.db.Where("status = ?", dtos.ReviewStatusPending).
		Order("created_at ASC").
		Find(&decisions).Error
	return decisions, err
}

// UpdateGuarded persists the decision only if its status in the database
// still equals expected. It returns false when a concurrent resolution won
// the race, the caller translates that into a review conflict.
func (r *decisionRepository) UpdateGuarded(tx *gorm.DB, decision *models.DisqualificationDecision, expected dtos.ReviewStatus) (bool, error) {
	result := r.GetDB(tx).
		Model(&models.DisqualificationDecision{}).
		Where("id = ? AND status = ?", decision.ID, expected).
		Updates(map[string]any{
			"status":       decision.Status,
			"reviewed_by":  decision.ReviewedBy,
			"notes":        decision.Notes,
			"appeal_count": decision.AppealCount,
			"resolved_at":  decision.ResolvedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
