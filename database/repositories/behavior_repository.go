package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/utils"
)

type behaviorSampleRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.BehavioralMetricsSample, *gorm.DB]
}

func NewBehaviorSampleRepository(db *gorm.DB) *behaviorSampleRepository {
	return &behaviorSampleRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.BehavioralMetricsSample](db),
	}
}

func (r *behaviorSampleRepository) ListByAttemptID(attemptID uuid.UUID) ([]models.BehavioralMetricsSample, error) {
	var samples []models.BehavioralMetricsSample
	err := r.db.Where("attempt_id = ?", attemptID).
		Order("captured_at ASC").
		Find(&samples).Error
	return samples, err
}

// ListAttemptsWithFreshSamples returns attempts whose newest sample is more
// recent than their anomaly result (or that have no result yet). These are
// the attempts the anomaly daemon needs to recompute.
func (r *behaviorSampleRepository) ListAttemptsWithFreshSamples() ([]uuid.UUID, error) {
	var attemptIDs []uuid.UUID
	err := r.db.Raw(`
		SELECT s.attempt_id
		FROM behavioral_metrics_samples s
		LEFT JOIN behavioral_anomaly_results r ON r.attempt_id = s.attempt_id
		GROUP BY s.attempt_id, r.computed_at
		HAVING r.computed_at IS NULL OR MAX(s.created_at) > r.computed_at`).
		Scan(&attemptIDs).Error
	return attemptIDs, err
}

type anomalyResultRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.BehavioralAnomalyResult, *gorm.DB]
}

func NewAnomalyResultRepository(db *gorm.DB) *anomalyResultRepository {
	return &anomalyResultRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.BehavioralAnomalyResult](db),
	}
}

func (r *anomalyResultRepository) ReadByAttemptID(attemptID uuid.UUID) (models.BehavioralAnomalyResult, error) {
	var result models.BehavioralAnomalyResult
	err := r.db.Where("attempt_id = ?", attemptID).First(&result).Error
	return result, err
}

// UpsertByAttemptID keeps a single result row per attempt while the detector
// recomputes.
func (r *anomalyResultRepository) UpsertByAttemptID(result *models.BehavioralAnomalyResult) error {
	return r.db.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"anomaly_score", "confidence", "conclusive", "contributing",
				"sample_count", "computed_at", "updated_at",
			}),
		}).
		Create(result).Error
}
