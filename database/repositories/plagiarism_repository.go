package repositories

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/utils"
)

type plagiarismRepository struct {
	db *gorm.DB
	utils.Repository[uuid.UUID, models.PlagiarismAnalysis, *gorm.DB]
}

func NewPlagiarismRepository(db *gorm.DB) *plagiarismRepository {
	return &plagiarismRepository{
		db:         db,
		Repository: newGormRepository[uuid.UUID, models.PlagiarismAnalysis](db),
	}
}

// CreateQueuedIfAbsent enqueues an analysis for a submission exactly once.
func (r *plagiarismRepository) CreateQueuedIfAbsent(tx *gorm.DB, analysis *models.PlagiarismAnalysis) (bool, error) {
	result := r.GetDB(tx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(analysis)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *plagiarismRepository) ReadBySubmissionID(submissionID uuid.UUID) (models.PlagiarismAnalysis, error) {
	var analysis models.PlagiarismAnalysis
	err := r.db.Where("submission_id = ?", submissionID).First(&analysis).Error
	return analysis, err
}

func (r *plagiarismRepository) ListQueued(limit int) ([]models.PlagiarismAnalysis, error) {
	var analyses []models.PlagiarismAnalysis
	err := r.db.Where("state = ?", dtos.AnalysisStateQueued).
		Order("created_at ASC").
		Limit(limit).
		Find(&analyses).Error
	return analyses, err
}

// ClaimQueued flips a queued analysis to running, recording the claim time.
// Returns false when another worker already claimed it.
func (r *plagiarismRepository) ClaimQueued(analysis *models.PlagiarismAnalysis) (bool, error) {
	now := time.Now()
	result := r.db.
		Model(&models.PlagiarismAnalysis{}).
		Where("id = ? AND state = ?", analysis.ID, dtos.AnalysisStateQueued).
		Updates(map[string]any{
			"state":      dtos.AnalysisStateRunning,
			"started_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	analysis.State = dtos.AnalysisStateRunning
	analysis.StartedAt = &now
	return true, nil
}

// UpdateReviewGuarded persists the review verdict only if the review status
// in the database still equals expected. Same CAS shape as the decision
// repository; false means a concurrent reviewer won.
func (r *plagiarismRepository) UpdateReviewGuarded(tx *gorm.DB, analysis *models.PlagiarismAnalysis, expected dtos.ReviewStatus) (bool, error) {
	result := r.GetDB(tx).
		Model(&models.PlagiarismAnalysis{}).
		Where("id = ? AND review_status = ?", analysis.ID, expected).
		Updates(map[string]any{
			"review_status": analysis.ReviewStatus,
			"reviewed_by":   analysis.ReviewedBy,
			"notes":         analysis.Notes,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *plagiarismRepository) ListFlaggedPendingReview() ([]models.PlagiarismAnalysis, error) {
	var analyses []models.PlagiarismAnalysis
	err := r.db.Where("flagged = ? AND review_status = ?", true, dtos.ReviewStatusPending).
		Order("overall_score DESC").
		Find(&analyses).Error
	return analyses, err
}

// RequeueStale returns running analyses that were claimed before the cutoff
// back to the queue. Covers workers that died mid-analysis.
func (r *plagiarismRepository) RequeueStale(cutoff time.Time) (int64, error) {
	result := r.db.
		Model(&models.PlagiarismAnalysis{}).
		Where("state = ? AND started_at < ?", dtos.AnalysisStateRunning, cutoff).
		Updates(map[string]any{
			"state":      dtos.AnalysisStateQueued,
			"started_at": nil,
		})
	return result.RowsAffected, result.Error
}
