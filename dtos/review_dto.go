package dtos

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus is the shared review vocabulary for disqualification decisions
// and flagged plagiarism analyses.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
	ReviewStatusAppealed ReviewStatus = "appealed"
)

func (s ReviewStatus) Terminal() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

type ReviewEventType string

const (
	// manual events, require a reviewer identity
	ReviewEventApproved ReviewEventType = "approved"
	ReviewEventRejected ReviewEventType = "rejected"
	ReviewEventAppealed ReviewEventType = "appealed"
	ReviewEventComment  ReviewEventType = "comment"

	// automated events, triggered by the scoring engine
	ReviewEventCreated  ReviewEventType = "created"
	ReviewEventReopened ReviewEventType = "reopened"
)

type DecisionDTO struct {
	ID               uuid.UUID        `json:"id"`
	AttemptID        uuid.UUID        `json:"attemptId"`
	TriggeringRuleID string           `json:"triggeringRuleId"`
	Automatic        bool             `json:"automatic"`
	Status           ReviewStatus     `json:"status"`
	ReviewedBy       *string          `json:"reviewedBy"`
	Notes            *string          `json:"notes"`
	AppealCount      int              `json:"appealCount"`
	CreatedAt        time.Time        `json:"createdAt"`
	ResolvedAt       *time.Time       `json:"resolvedAt"`
	History          []ReviewEventDTO `json:"history,omitempty"`
}

type ReviewEventDTO struct {
	ID            uuid.UUID       `json:"id"`
	DecisionID    uuid.UUID       `json:"decisionId"`
	Type          ReviewEventType `json:"type"`
	ReviewerID    string          `json:"reviewerId"`
	Justification *string         `json:"justification"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type ResolveReviewDTO struct {
	ReviewerID string       `json:"reviewerId" validate:"required"`
	Status     ReviewStatus `json:"status" validate:"required,oneof=approved rejected appealed"`
	Notes      string       `json:"notes"`
}

// PendingReviewsDTO is the reviewer work queue: pending disqualification
// decisions plus flagged plagiarism analyses awaiting a verdict.
type PendingReviewsDTO struct {
	Decisions []DecisionDTO           `json:"decisions"`
	Analyses  []PlagiarismAnalysisDTO `json:"analyses"`
}
