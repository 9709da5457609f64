package dtos

import (
	"github.com/google/uuid"
)

type ViolationRuleDTO struct {
	Type       ViolationType `json:"type" validate:"required"`
	Weight     float64       `json:"weight" validate:"gte=0"`
	GraceCount int           `json:"graceCount" validate:"gte=0"`
}

type RuleSetDTO struct {
	TestID                  uuid.UUID          `json:"testId"`
	Rules                   []ViolationRuleDTO `json:"rules" validate:"required,dive"`
	FlagThreshold           float64            `json:"flagThreshold" validate:"gt=0"`
	AutoDisqualifyThreshold float64            `json:"autoDisqualifyThreshold" validate:"gt=0"`
	ReviewMandatory         bool               `json:"reviewMandatory"`
	MaxAppeals              int                `json:"maxAppeals" validate:"gte=0"`
}

// DefaultRuleSet is the explicit rule set applied to tests without their own
// configuration. An explicit instance, not a runtime-merged map, so there is
// no ambiguity about which fields are set.
func DefaultRuleSet() RuleSetDTO {
	return RuleSetDTO{
		Rules: []ViolationRuleDTO{
			{Type: ViolationTabSwitch, Weight: 10, GraceCount: 1},
			{Type: ViolationCopyPaste, Weight: 15, GraceCount: 0},
			{Type: ViolationCameraBlocked, Weight: 20, GraceCount: 0},
			{Type: ViolationPhoneDetected, Weight: 30, GraceCount: 0},
			{Type: ViolationFaceAway, Weight: 5, GraceCount: 2},
			{Type: ViolationMultipleFaces, Weight: 25, GraceCount: 0},
			{Type: ViolationFullscreenExit, Weight: 10, GraceCount: 1},
			{Type: ViolationMicrophoneMuted, Weight: 5, GraceCount: 1},
			{Type: ViolationWindowBlur, Weight: 5, GraceCount: 2},
			{Type: ViolationDevtoolsOpen, Weight: 25, GraceCount: 0},
			{Type: ViolationScreenShareStopped, Weight: 20, GraceCount: 0},
		},
		FlagThreshold:           40,
		AutoDisqualifyThreshold: 80,
		ReviewMandatory:         true,
		MaxAppeals:              1,
	}
}
