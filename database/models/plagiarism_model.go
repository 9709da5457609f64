package models

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
)

// PlagiarismAnalysis is the per-submission similarity verdict. Apart from the
// review status and notes it is immutable once computed; re-running the
// analyzer against an unchanged corpus reproduces the identical result.
type PlagiarismAnalysis struct {
	Model
	SubmissionID uuid.UUID `json:"submissionId" gorm:"type:uuid;uniqueIndex;not null"`
	ProblemID    uuid.UUID `json:"problemId" gorm:"type:uuid;index;not null"`
	StudentID    uuid.UUID `json:"studentId" gorm:"type:uuid;not null"`

	LexicalSimilarity    float64 `json:"lexicalSimilarity" gorm:"not null;default:0"`
	StructuralSimilarity float64 `json:"structuralSimilarity" gorm:"not null;default:0"`
	TemporalSuspicion    float64 `json:"temporalSuspicion" gorm:"not null;default:0"`
	OverallScore         float64 `json:"overallScore" gorm:"not null;default:0"`

	Flagged  bool    `json:"flagged" gorm:"not null;default:false"`
	Severity *string `json:"severity" gorm:"type:text"`

	MatchedSubmissions string `json:"matchedSubmissions" gorm:"type:text"`
	matchedSubmissions []dtos.MatchedSubmissionDTO

	State           dtos.AnalysisState `json:"state" gorm:"type:text;not null;default:'queued'"`
	ReviewStatus    dtos.ReviewStatus  `json:"reviewStatus" gorm:"type:text;not null;default:'pending'"`
	ReviewedBy      *string            `json:"reviewedBy" gorm:"type:text"`
	Notes           *string            `json:"notes" gorm:"type:text"`
	AnalyzerVersion string             `json:"analyzerVersion" gorm:"type:text"`
	StartedAt       *time.Time         `json:"startedAt"`
	ComputedAt      *time.Time         `json:"computedAt"`
}

func (analysis PlagiarismAnalysis) TableName() string {
	return "plagiarism_analyses"
}

func NewQueuedAnalysis(submission Submission) PlagiarismAnalysis {
	return PlagiarismAnalysis{
		SubmissionID: submission.ID,
		ProblemID:    submission.ProblemID,
		StudentID:    submission.StudentID,
		State:        dtos.AnalysisStateQueued,
		ReviewStatus: dtos.ReviewStatusPending,
	}
}

func (analysis *PlagiarismAnalysis) GetMatchedSubmissions() []dtos.MatchedSubmissionDTO {
	if analysis.matchedSubmissions == nil {
		analysis.matchedSubmissions = []dtos.MatchedSubmissionDTO{}
		if analysis.MatchedSubmissions != "" {
			if err := json.Unmarshal([]byte(analysis.MatchedSubmissions), &analysis.matchedSubmissions); err != nil {
				slog.Error("could not parse matched submissions", "err", err, "submissionID", analysis.SubmissionID)
			}
		}
	}
	return analysis.matchedSubmissions
}

func (analysis *PlagiarismAnalysis) SetMatchedSubmissions(matches []dtos.MatchedSubmissionDTO) {
	if matches == nil {
		matches = []dtos.MatchedSubmissionDTO{}
	}
	analysis.matchedSubmissions = matches
	data, err := json.Marshal(matches)
	if err != nil {
		slog.Error("could not marshal matched submissions", "err", err, "submissionID", analysis.SubmissionID)
		return
	}
	analysis.MatchedSubmissions = string(data)
}
