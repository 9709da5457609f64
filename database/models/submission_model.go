package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
)

// Submission is the engine's mirror of a finalized submission, the minimum
// needed to build the plagiarism corpus. The authoritative record lives with
// the grading collaborator; the id is theirs.
type Submission struct {
	ID                   uuid.UUID `json:"id" gorm:"primarykey;type:uuid"`
	ProblemID            uuid.UUID `json:"problemId" gorm:"type:uuid;index;not null"`
	StudentID            uuid.UUID `json:"studentId" gorm:"type:uuid;not null"`
	AttemptID            uuid.UUID `json:"attemptId" gorm:"type:uuid;not null"`
	SourceText           string    `json:"-" gorm:"type:text;not null"`
	Language             string    `json:"language" gorm:"type:text"`
	SubmittedAt          time.Time `json:"submittedAt" gorm:"not null"`
	SolveDurationSeconds int64     `json:"solveDurationSeconds" gorm:"not null;default:0"`
	CreatedAt            time.Time `json:"createdAt"`
}

func (submission Submission) TableName() string {
	return "submissions"
}

func SubmissionFromDTO(dto dtos.RegisterSubmissionDTO) Submission {
	return Submission{
		ID:                   dto.SubmissionID,
		ProblemID:            dto.ProblemID,
		StudentID:            dto.StudentID,
		AttemptID:            dto.AttemptID,
		SourceText:           dto.SourceText,
		Language:             dto.Language,
		SubmittedAt:          dto.SubmittedAt.UTC(),
		SolveDurationSeconds: dto.SolveDuration,
	}
}
