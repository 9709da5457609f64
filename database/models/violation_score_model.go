package models

import (
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
)

// ViolationScore is the single mutable scoring record per attempt. It is
// owned exclusively by the scoring engine; every update happens inside one
// row-locked transaction so concurrent events for the same attempt serialize
// while different attempts stay fully independent.
type ViolationScore struct {
	Model
	AttemptID uuid.UUID `json:"attemptId" gorm:"type:uuid;uniqueIndex;not null"`
	TestID    uuid.UUID `json:"testId" gorm:"type:uuid;not null"`
	StudentID uuid.UUID `json:"studentId" gorm:"type:uuid;not null"`

	CumulativeScore float64           `json:"cumulativeScore" gorm:"not null;default:0"`
	Tier            dtos.SeverityTier `json:"tier" gorm:"type:text;not null;default:'none'"`
	State           dtos.AttemptState `json:"state" gorm:"type:text;not null;default:'active'"`
	Flagged         bool              `json:"flagged" gorm:"not null;default:false"`

	CategoryScores   string `json:"categoryScores" gorm:"type:text"`
	categoryScores   map[dtos.ViolationType]float64
	OccurrenceCounts string `json:"occurrenceCounts" gorm:"type:text"`
	occurrenceCounts map[dtos.ViolationType]int

	// FiredRules records threshold crossings already acted upon, so the same
	// rule never triggers a second decision for this attempt.
	FiredRules string `json:"firedRules" gorm:"type:text"`
	firedRules []string
}

func (score ViolationScore) TableName() string {
	return "violation_scores"
}

func NewViolationScore(attemptID, testID, studentID uuid.UUID) ViolationScore {
	return ViolationScore{
		AttemptID: attemptID,
		TestID:    testID,
		StudentID: studentID,
		Tier:      dtos.TierNone,
		State:     dtos.AttemptStateActive,
	}
}

func (score *ViolationScore) GetCategoryScores() map[dtos.ViolationType]float64 {
	if score.categoryScores == nil {
		score.categoryScores = make(map[dtos.ViolationType]float64)
		if score.CategoryScores != "" {
			if err := json.Unmarshal([]byte(score.CategoryScores), &score.categoryScores); err != nil {
				slog.Error("could not parse category scores", "err", err, "attemptID", score.AttemptID)
			}
		}
	}
	return score.categoryScores
}

func (score *ViolationScore) GetOccurrenceCounts() map[dtos.ViolationType]int {
	if score.occurrenceCounts == nil {
		score.occurrenceCounts = make(map[dtos.ViolationType]int)
		if score.OccurrenceCounts != "" {
			if err := json.Unmarshal([]byte(score.OccurrenceCounts), &score.occurrenceCounts); err != nil {
				slog.Error("could not parse occurrence counts", "err", err, "attemptID", score.AttemptID)
			}
		}
	}
	return score.occurrenceCounts
}

func (score *ViolationScore) GetFiredRules() []string {
	if score.firedRules == nil {
		score.firedRules = []string{}
		if score.FiredRules != "" {
			if err := json.Unmarshal([]byte(score.FiredRules), &score.firedRules); err != nil {
				slog.Error("could not parse fired rules", "err", err, "attemptID", score.AttemptID)
			}
		}
	}
	return score.firedRules
}

func (score *ViolationScore) HasFired(ruleID string) bool {
	for _, fired := range score.GetFiredRules() {
		if fired == ruleID {
			return true
		}
	}
	return false
}

func (score *ViolationScore) MarkFired(ruleID string) {
	if score.HasFired(ruleID) {
		return
	}
	score.firedRules = append(score.GetFiredRules(), ruleID)
	score.flushFiredRules()
}

// RecordOccurrence counts one occurrence of a violation type and returns the
// occurrence number (1-based), so the caller can apply the grace count.
func (score *ViolationScore) RecordOccurrence(violationType dtos.ViolationType) int {
	counts := score.GetOccurrenceCounts()
	counts[violationType]++
	score.flushOccurrenceCounts()
	return counts[violationType]
}

// AddWeight adds a weighted contribution to the cumulative score and the
// per-category subtotal. The cumulative score is a commutative sum, so the
// final value does not depend on event arrival order.
func (score *ViolationScore) AddWeight(category dtos.ViolationType, weight float64) {
	if weight == 0 {
		return
	}
	score.CumulativeScore += weight
	categories := score.GetCategoryScores()
	categories[category] += weight
	score.flushCategoryScores()
}

func (score *ViolationScore) flushCategoryScores() {
	data, err := json.Marshal(score.categoryScores)
	if err != nil {
		slog.Error("could not marshal category scores", "err", err, "attemptID", score.AttemptID)
		return
	}
	score.CategoryScores = string(data)
}

func (score *ViolationScore) flushOccurrenceCounts() {
	data, err := json.Marshal(score.occurrenceCounts)
	if err != nil {
		slog.Error("could not marshal occurrence counts", "err", err, "attemptID", score.AttemptID)
		return
	}
	score.OccurrenceCounts = string(data)
}

func (score *ViolationScore) flushFiredRules() {
	data, err := json.Marshal(score.firedRules)
	if err != nil {
		slog.Error("could not marshal fired rules", "err", err, "attemptID", score.AttemptID)
		return
	}
	score.FiredRules = string(data)
}
