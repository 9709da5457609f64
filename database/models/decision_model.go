package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
)

// TriggerBehavioral is the triggering rule id used when the behavioral
// anomaly detector, rather than a discrete violation rule, raised the
// disqualification candidate.
const TriggerBehavioral = "behavioral"

// DisqualificationDecision tracks a disqualification candidate from creation
// through human review to a final outcome. Creation is an idempotent
// conditional insert keyed on (attemptID, triggeringRuleID), so concurrent
// threshold crossings produce exactly one decision.
type DisqualificationDecision struct {
	Model
	AttemptID        uuid.UUID         `json:"attemptId" gorm:"type:uuid;index;not null"`
	TriggeringRuleID string            `json:"triggeringRuleId" gorm:"type:text;not null"`
	Automatic        bool              `json:"automatic" gorm:"not null;default:false"`
	Status           dtos.ReviewStatus `json:"status" gorm:"type:text;not null;default:'pending'"`
	ReviewedBy       *string           `json:"reviewedBy" gorm:"type:text"`
	Notes            *string           `json:"notes" gorm:"type:text"`
	AppealCount      int               `json:"appealCount" gorm:"not null;default:0"`
	ResolvedAt       *time.Time        `json:"resolvedAt"`
}

func (decision DisqualificationDecision) TableName() string {
	return "disqualification_decisions"
}

func NewDisqualificationDecision(attemptID uuid.UUID, triggeringRuleID string, automatic bool) DisqualificationDecision {
	return DisqualificationDecision{
		AttemptID:        attemptID,
		TriggeringRuleID: triggeringRuleID,
		Automatic:        automatic,
		Status:           dtos.ReviewStatusPending,
	}
}
