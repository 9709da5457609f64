// Copyright (C) 2025 VeriSkill GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package scoring contains the pure decision functions of the threshold
// engine. Everything here is a function of (score, rule set, anomaly signal)
// with no side effects, so recomputing from the same inputs always yields the
// same tier and outcomes.
package scoring

import (
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
)

// Rule ids for cumulative-threshold crossings. The flag rule never creates a
// decision, it only makes the attempt visible to reviewers.
const (
	RuleFlag           = "flag"
	RuleAutoDisqualify = "auto_disqualify"
)

type OutcomeType string

const (
	OutcomeFlag                OutcomeType = "flag"
	OutcomeDisqualifyCandidate OutcomeType = "disqualify_candidate"
)

type Outcome struct {
	Type   OutcomeType
	RuleID string
}

// TierFor bands a cumulative weighted score into a severity tier using
// thresholds derived from the rule set. Ties resolve to the higher tier.
func TierFor(score float64, ruleSet models.TestViolationRuleSet) dtos.SeverityTier {
	low := ruleSet.FlagThreshold / 2
	medium := ruleSet.FlagThreshold
	high := ruleSet.AutoDisqualifyThreshold
	critical := ruleSet.AutoDisqualifyThreshold * 1.5

	switch {
	case score >= critical:
		return dtos.TierCritical
	case score >= high:
		return dtos.TierHigh
	case score >= medium:
		return dtos.TierMedium
	case score >= low:
		return dtos.TierLow
	default:
		return dtos.TierNone
	}
}

// EffectiveScore joins the behavioral anomaly signal with the cumulative
// event score. Inconclusive results contribute nothing; a conclusive result
// contributes its confidence-weighted score as the behavioral category.
func EffectiveScore(score models.ViolationScore, anomaly *models.BehavioralAnomalyResult) float64 {
	effective := score.CumulativeScore
	if anomaly != nil && anomaly.Conclusive {
		effective += anomaly.AnomalyScore * anomaly.Confidence
	}
	return effective
}

// Evaluate returns the not-yet-fired outcomes for the current state. The
// caller marks returned rule ids as fired, so each rule fires at most once
// per attempt.
func Evaluate(score models.ViolationScore, ruleSet models.TestViolationRuleSet, anomaly *models.BehavioralAnomalyResult) []Outcome {
	effective := EffectiveScore(score, anomaly)

	var outcomes []Outcome
	if effective >= ruleSet.FlagThreshold && !score.HasFired(RuleFlag) {
		outcomes = append(outcomes, Outcome{Type: OutcomeFlag, RuleID: RuleFlag})
	}
	if effective >= ruleSet.AutoDisqualifyThreshold {
		ruleID := RuleAutoDisqualify
		if score.CumulativeScore < ruleSet.AutoDisqualifyThreshold {
			// only the behavioral category pushed the attempt over the line
			ruleID = models.TriggerBehavioral
		}
		if !score.HasFired(ruleID) {
			outcomes = append(outcomes, Outcome{Type: OutcomeDisqualifyCandidate, RuleID: ruleID})
		}
	}
	return outcomes
}

// Tier computes the severity tier for the joined score, never lower than the
// tier of the discrete-event score alone.
func Tier(score models.ViolationScore, ruleSet models.TestViolationRuleSet, anomaly *models.BehavioralAnomalyResult) dtos.SeverityTier {
	base := TierFor(score.CumulativeScore, ruleSet)
	joined := TierFor(EffectiveScore(score, anomaly), ruleSet)
	return dtos.MaxTier(base, joined)
}
