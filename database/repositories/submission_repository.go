package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/utils"
)

type submissionRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.Submission, *gorm.DB]
}

func NewSubmissionRepository(db *gorm.DB) *submissionRepository {
	return &submissionRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.Submission](db),
	}
}

// CreateIfAbsent registers a submission mirror idempotently; re-registering
// the same submission id is a no-op.
func (r *submissionRepository) CreateIfAbsent(tx *gorm.DB, submission *models.Submission) (bool, error) {
	result := r.GetDB(tx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(submission)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Corpus returns all prior submissions for the same problem, the comparison
// base for plagiarism detection.
func (r *submissionRepository) Corpus(problemID uuid.UUID) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.db.Where("problem_id = ?", problemID).
		Order("submitted_at ASC").
		Find(&submissions).Error
	return submissions, err
}
