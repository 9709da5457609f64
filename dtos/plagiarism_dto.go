package dtos

import (
	"time"

	"github.com/google/uuid"
)

type PlagiarismSeverity string

const (
	PlagiarismSeverityLow    PlagiarismSeverity = "low"
	PlagiarismSeverityMedium PlagiarismSeverity = "medium"
	PlagiarismSeverityHigh   PlagiarismSeverity = "high"
)

// AnalysisState tracks the lifecycle of a queued plagiarism analysis.
// Inconclusive analyses are recorded, never treated as clean, and may be
// re-queued by the retry policy.
type AnalysisState string

const (
	AnalysisStateQueued       AnalysisState = "queued"
	AnalysisStateRunning      AnalysisState = "running"
	AnalysisStateDone         AnalysisState = "done"
	AnalysisStateInconclusive AnalysisState = "inconclusive"
)

type RegisterSubmissionDTO struct {
	SubmissionID  uuid.UUID `json:"submissionId" validate:"required"`
	ProblemID     uuid.UUID `json:"problemId" validate:"required"`
	StudentID     uuid.UUID `json:"studentId" validate:"required"`
	AttemptID     uuid.UUID `json:"attemptId" validate:"required"`
	SourceText    string    `json:"sourceText" validate:"required"`
	Language      string    `json:"language"`
	SubmittedAt   time.Time `json:"submittedAt" validate:"required"`
	SolveDuration int64     `json:"solveDurationSeconds" validate:"gte=0"`
}

type MatchedSubmissionDTO struct {
	SubmissionID uuid.UUID `json:"submissionId"`
	Score        float64   `json:"score"`
}

type PlagiarismAnalysisDTO struct {
	ID                   uuid.UUID              `json:"id"`
	SubmissionID         uuid.UUID              `json:"submissionId"`
	ProblemID            uuid.UUID              `json:"problemId"`
	StudentID            uuid.UUID              `json:"studentId"`
	LexicalSimilarity    float64                `json:"lexicalSimilarity"`
	StructuralSimilarity float64                `json:"structuralSimilarity"`
	TemporalSuspicion    float64                `json:"temporalSuspicion"`
	OverallScore         float64                `json:"overallScore"`
	Flagged              bool                   `json:"flagged"`
	Severity             *PlagiarismSeverity    `json:"severity,omitempty"`
	MatchedSubmissions   []MatchedSubmissionDTO `json:"matchedSubmissions"`
	State                AnalysisState          `json:"state"`
	ReviewStatus         ReviewStatus           `json:"reviewStatus"`
	ReviewedBy           *string                `json:"reviewedBy"`
	Notes                *string                `json:"notes"`
	ComputedAt           *time.Time             `json:"computedAt"`
}
