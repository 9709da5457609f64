package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/utils"
)

type violationScoreRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.ViolationScore, *gorm.DB]
}

func NewViolationScoreRepository(db *gorm.DB) *violationScoreRepository {
	return &violationScoreRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.ViolationScore](db),
	}
}

func (r *violationScoreRepository) ReadByAttemptID(attemptID uuid.UUID) (models.ViolationScore, error) {
	var score models.ViolationScore
	err := r.db.Where("attempt_id = ?", attemptID).First(&score).Error
	return score, err
}

// LockByAttemptID reads the score row with a row lock, so concurrent events
// for the same attempt serialize on the database while other attempts stay
// untouched.
func (r *violationScoreRepository) LockByAttemptID(tx *gorm.DB, attemptID uuid.UUID) (models.ViolationScore, error) {
	var score models.ViolationScore
	err := r.GetDB(tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("attempt_id = ?", attemptID).
		First(&score).Error
	return score, err
}

// CreateIfAbsent inserts a fresh score record unless one already exists for
// the attempt. It returns the current row either way.
func (r *violationScoreRepository) CreateIfAbsent(tx *gorm.DB, score *models.ViolationScore) error {
	err := r.GetDB(tx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "attempt_id"}},
			DoNothing: true,
		}).
		Create(score).Error
	if err != nil {
		return err
	}
	// on conflict the insert is a no-op and leaves the struct zero-valued
	return r.GetDB(tx).Where("attempt_id = ?", score.AttemptID).First(score).Error
}
