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

package services

import (
	"log/slog"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/monitoring"
	"github.com/veriskill/integrity-engine/scoring"
	"github.com/veriskill/integrity-engine/shared"
	"github.com/veriskill/integrity-engine/utils"
)

// systemActor is the reviewer identity recorded on automated transitions.
const systemActor = "system"

// ScoringService turns threshold crossings into decisions. It always runs
// inside the caller's transaction, against a row-locked score, so a crossing
// is acted upon exactly once even under concurrent ingestion.
type ScoringService struct {
	decisionRepository    shared.DecisionRepository
	reviewEventRepository shared.ReviewEventRepository
}

func NewScoringService(decisionRepository shared.DecisionRepository, reviewEventRepository shared.ReviewEventRepository) *ScoringService {
	return &ScoringService{
		decisionRepository:    decisionRepository,
		reviewEventRepository: reviewEventRepository,
	}
}

func (s *ScoringService) ApplyThresholds(tx shared.DB, ruleSet models.TestViolationRuleSet, score *models.ViolationScore, anomaly *models.BehavioralAnomalyResult) error {
	score.Tier = scoring.Tier(*score, ruleSet, anomaly)

	for _, outcome := range scoring.Evaluate(*score, ruleSet, anomaly) {
		switch outcome.Type {
		case scoring.OutcomeFlag:
			score.Flagged = true
			slog.Info("attempt flagged for review", "attemptID", score.AttemptID, "score", score.CumulativeScore, "tier", score.Tier)
		case scoring.OutcomeDisqualifyCandidate:
			if err := s.raiseCandidate(tx, ruleSet, score, outcome.RuleID); err != nil {
				return err
			}
		}
		score.MarkFired(outcome.RuleID)
	}
	return nil
}

// raiseCandidate creates the disqualification candidate for a crossed
// auto-disqualify threshold. With mandatory review the decision stays
// pending; without it the decision is auto-approved and the attempt
// terminates immediately.
func (s *ScoringService) raiseCandidate(tx shared.DB, ruleSet models.TestViolationRuleSet, score *models.ViolationScore, ruleID string) error {
	decision := models.NewDisqualificationDecision(score.AttemptID, ruleID, true)
	created, err := s.decisionRepository.CreatePendingIfAbsent(tx, &decision)
	if err != nil {
		return err
	}
	if !created {
		// a concurrent crossing already raised this candidate
		return nil
	}

	if err := s.reviewEventRepository.Create(tx, utils.Ptr(models.NewCreatedReviewEvent(decision.ID, systemActor))); err != nil {
		return err
	}
	monitoring.DisqualificationDecisionsCreated.WithLabelValues(ruleID).Inc()
	slog.Info("disqualification candidate raised", "attemptID", score.AttemptID, "rule", ruleID, "score", score.CumulativeScore)

	if ruleSet.ReviewMandatory {
		return nil
	}

	// no human in the loop configured for this test
	approval := models.NewApprovedReviewEvent(decision.ID, systemActor, "auto-disqualify threshold crossed with review disabled")
	if err := s.reviewEventRepository.Create(tx, &approval); err != nil {
		return err
	}
	approval.Apply(&decision)
	if _, err := s.decisionRepository.UpdateGuarded(tx, &decision, dtos.ReviewStatusPending); err != nil {
		return err
	}
	score.State = dtos.AttemptStateDisqualified
	return nil
}
