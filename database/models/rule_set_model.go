package models

import (
	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
)

// TestViolationRuleSet is the per-test integrity configuration. It is written
// only through the rule configuration service, which validates every write;
// the engine itself treats it as read-only.
type TestViolationRuleSet struct {
	Model
	TestID                  uuid.UUID       `json:"testId" gorm:"type:uuid;uniqueIndex;not null"`
	Rules                   []ViolationRule `json:"rules" gorm:"foreignKey:RuleSetID;constraint:OnDelete:CASCADE"`
	FlagThreshold           float64         `json:"flagThreshold" gorm:"not null"`
	AutoDisqualifyThreshold float64         `json:"autoDisqualifyThreshold" gorm:"not null"`
	ReviewMandatory         bool            `json:"reviewMandatory" gorm:"not null;default:true"`
	MaxAppeals              int             `json:"maxAppeals" gorm:"not null;default:1"`
}

func (ruleSet TestViolationRuleSet) TableName() string {
	return "test_violation_rule_sets"
}

type ViolationRule struct {
	Model
	RuleSetID  uuid.UUID          `json:"ruleSetId" gorm:"type:uuid;index;not null"`
	Type       dtos.ViolationType `json:"type" gorm:"type:text;not null"`
	Weight     float64            `json:"weight" gorm:"not null"`
	GraceCount int                `json:"graceCount" gorm:"not null;default:0"`
}

func (rule ViolationRule) TableName() string {
	return "violation_rules"
}

// RuleFor returns the rule for a violation type, or false when the type is
// not monitored for this test.
func (ruleSet TestViolationRuleSet) RuleFor(violationType dtos.ViolationType) (ViolationRule, bool) {
	for _, rule := range ruleSet.Rules {
		if rule.Type == violationType {
			return rule, true
		}
	}
	return ViolationRule{}, false
}

func RuleSetFromDTO(dto dtos.RuleSetDTO) TestViolationRuleSet {
	rules := make([]ViolationRule, len(dto.Rules))
	for i, r := range dto.Rules {
		rules[i] = ViolationRule{Type: r.Type, Weight: r.Weight, GraceCount: r.GraceCount}
	}
	return TestViolationRuleSet{
		TestID:                  dto.TestID,
		Rules:                   rules,
		FlagThreshold:           dto.FlagThreshold,
		AutoDisqualifyThreshold: dto.AutoDisqualifyThreshold,
		ReviewMandatory:         dto.ReviewMandatory,
		MaxAppeals:              dto.MaxAppeals,
	}
}

// DefaultRuleSet materializes the documented default configuration for tests
// without explicit rules.
func DefaultRuleSet(testID uuid.UUID) TestViolationRuleSet {
	dto := dtos.DefaultRuleSet()
	dto.TestID = testID
	return RuleSetFromDTO(dto)
}
