package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/utils"
)

// ReviewEvent is the append-only audit record of the review workflow. Every
// transition on a DisqualificationDecision is recorded as one event; events
// are never updated or deleted.
type ReviewEvent struct {
	Model
	DecisionID    uuid.UUID            `json:"decisionId" gorm:"type:uuid;index;not null"`
	Type          dtos.ReviewEventType `json:"type" gorm:"type:text;not null"`
	ReviewerID    string               `json:"reviewerId" gorm:"type:text;not null"`
	Justification *string              `json:"justification" gorm:"type:text"`
}

func (event ReviewEvent) TableName() string {
	return "review_events"
}

// Apply mutates the decision according to the event. Replaying the full event
// history of a decision in creation order reconstructs its current state.
func (event ReviewEvent) Apply(decision *DisqualificationDecision) {
	now := event.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}

	switch event.Type {
	case dtos.ReviewEventCreated:
		decision.Status = dtos.ReviewStatusPending
	case dtos.ReviewEventApproved:
		decision.Status = dtos.ReviewStatusApproved
		decision.ReviewedBy = utils.Ptr(event.ReviewerID)
		decision.Notes = event.Justification
		decision.ResolvedAt = &now
	case dtos.ReviewEventRejected:
		decision.Status = dtos.ReviewStatusRejected
		decision.ReviewedBy = utils.Ptr(event.ReviewerID)
		decision.Notes = event.Justification
		decision.ResolvedAt = &now
	case dtos.ReviewEventAppealed:
		decision.Status = dtos.ReviewStatusAppealed
		decision.AppealCount++
	case dtos.ReviewEventReopened:
		decision.Status = dtos.ReviewStatusPending
		decision.ReviewedBy = nil
		decision.ResolvedAt = nil
	case dtos.ReviewEventComment:
		// comments never change state
	}
}

func NewCreatedReviewEvent(decisionID uuid.UUID, actorID string) ReviewEvent {
	return ReviewEvent{
		DecisionID: decisionID,
		Type:       dtos.ReviewEventCreated,
		ReviewerID: actorID,
	}
}

func NewApprovedReviewEvent(decisionID uuid.UUID, reviewerID, justification string) ReviewEvent {
	return ReviewEvent{
		DecisionID:    decisionID,
		Type:          dtos.ReviewEventApproved,
		ReviewerID:    reviewerID,
		Justification: utils.EmptyThenNil(justification),
	}
}

func NewRejectedReviewEvent(decisionID uuid.UUID, reviewerID, justification string) ReviewEvent {
	return ReviewEvent{
		DecisionID:    decisionID,
		Type:          dtos.ReviewEventRejected,
		ReviewerID:    reviewerID,
		Justification: utils.EmptyThenNil(justification),
	}
}

func NewAppealedReviewEvent(decisionID uuid.UUID, reviewerID, justification string) ReviewEvent {
	return ReviewEvent{
		DecisionID:    decisionID,
		Type:          dtos.ReviewEventAppealed,
		ReviewerID:    reviewerID,
		Justification: utils.EmptyThenNil(justification),
	}
}

func NewReopenedReviewEvent(decisionID uuid.UUID, actorID string) ReviewEvent {
	return ReviewEvent{
		DecisionID: decisionID,
		Type:       dtos.ReviewEventReopened,
		ReviewerID: actorID,
	}
}

func NewCommentReviewEvent(decisionID uuid.UUID, reviewerID, comment string) ReviewEvent {
	return ReviewEvent{
		DecisionID:    decisionID,
		Type:          dtos.ReviewEventComment,
		ReviewerID:    reviewerID,
		Justification: utils.EmptyThenNil(comment),
	}
}
