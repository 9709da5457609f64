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
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/monitoring"
	"github.com/veriskill/integrity-engine/shared"
	"github.com/veriskill/integrity-engine/transformer"
	"github.com/veriskill/integrity-engine/utils"
)

// ReviewService drives the human review workflow. Every transition is a
// compare-and-swap on the decision status plus an append-only audit event;
// of two concurrent reviewers exactly one wins, the loser must re-fetch.
type ReviewService struct {
	decisionRepository       shared.DecisionRepository
	reviewEventRepository    shared.ReviewEventRepository
	violationScoreRepository shared.ViolationScoreRepository
	plagiarismRepository     shared.PlagiarismAnalysisRepository
	ruleSetService           shared.RuleSetService
}

func NewReviewService(
	decisionRepository shared.DecisionRepository,
	reviewEventRepository shared.ReviewEventRepository,
	violationScoreRepository shared.ViolationScoreRepository,
	plagiarismRepository shared.PlagiarismAnalysisRepository,
	ruleSetService shared.RuleSetService,
) *ReviewService {
	return &ReviewService{
		decisionRepository:       decisionRepository,
		reviewEventRepository:    reviewEventRepository,
		violationScoreRepository: violationScoreRepository,
		plagiarismRepository:     plagiarismRepository,
		ruleSetService:           ruleSetService,
	}
}

func (s *ReviewService) Resolve(ctx context.Context, decisionID uuid.UUID, resolution dtos.ResolveReviewDTO) (dtos.DecisionDTO, error) {
	if err := shared.V.Struct(resolution); err != nil {
		return dtos.DecisionDTO{}, shared.NewValidationError("invalid resolution: %s", err)
	}

	decision, err := s.decisionRepository.Read(decisionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dtos.DecisionDTO{}, shared.ErrRecordNotFound
		}
		return dtos.DecisionDTO{}, err
	}

	expected := decision.Status
	events, err := s.planTransition(&decision, resolution)
	if err != nil {
		return dtos.DecisionDTO{}, err
	}

	err = s.decisionRepository.Transaction(func(tx shared.DB) error {
		won, err := s.decisionRepository.UpdateGuarded(tx, &decision, expected)
		if err != nil {
			return err
		}
		if !won {
			return shared.ErrReviewConflict
		}
		for i := range events {
			if err := s.reviewEventRepository.Create(tx, &events[i]); err != nil {
				return err
			}
		}
		return s.applyAttemptEffect(tx, decision, expected, resolution.Status)
	})
	if err != nil {
		if errors.Is(err, shared.ErrReviewConflict) {
			monitoring.ReviewConflicts.Inc()
		}
		return dtos.DecisionDTO{}, err
	}

	monitoring.ReviewResolutions.WithLabelValues(string(resolution.Status)).Inc()
	slog.Info("review resolved", "decisionID", decisionID, "attemptID", decision.AttemptID, "outcome", resolution.Status, "reviewer", resolution.ReviewerID)

	history, err := s.reviewEventRepository.ListByDecisionID(decisionID)
	if err != nil {
		return dtos.DecisionDTO{}, err
	}
	return transformer.DecisionModelToDetailsDTO(decision, history), nil
}

// ResolveAnalysis settles a flagged plagiarism analysis. Same CAS semantics
// as decision resolution: of two concurrent reviewers exactly one wins.
// Analyses have no appeal path, the submission can simply be re-analyzed.
func (s *ReviewService) ResolveAnalysis(ctx context.Context, submissionID uuid.UUID, resolution dtos.ResolveReviewDTO) (dtos.PlagiarismAnalysisDTO, error) {
	if err := shared.V.Struct(resolution); err != nil {
		return dtos.PlagiarismAnalysisDTO{}, shared.NewValidationError("invalid resolution: %s", err)
	}

	analysis, err := s.plagiarismRepository.ReadBySubmissionID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dtos.PlagiarismAnalysisDTO{}, shared.ErrRecordNotFound
		}
		return dtos.PlagiarismAnalysisDTO{}, err
	}

	if resolution.Status != dtos.ReviewStatusApproved && resolution.Status != dtos.ReviewStatusRejected {
		return dtos.PlagiarismAnalysisDTO{}, shared.ErrInvalidTransition
	}
	if !analysis.Flagged || analysis.ReviewStatus != dtos.ReviewStatusPending {
		return dtos.PlagiarismAnalysisDTO{}, shared.ErrInvalidTransition
	}

	expected := analysis.ReviewStatus
	analysis.ReviewStatus = resolution.Status
	analysis.ReviewedBy = utils.Ptr(resolution.ReviewerID)
	analysis.Notes = utils.EmptyThenNil(resolution.Notes)

	won, err := s.plagiarismRepository.UpdateReviewGuarded(nil, &analysis, expected)
	if err != nil {
		return dtos.PlagiarismAnalysisDTO{}, err
	}
	if !won {
		monitoring.ReviewConflicts.Inc()
		return dtos.PlagiarismAnalysisDTO{}, shared.ErrReviewConflict
	}

	monitoring.ReviewResolutions.WithLabelValues(string(resolution.Status)).Inc()
	slog.Info("plagiarism review resolved", "submissionID", submissionID, "outcome", resolution.Status, "reviewer", resolution.ReviewerID)
	return transformer.PlagiarismAnalysisModelToDTO(analysis), nil
}

// planTransition validates the requested move against the state machine and
// mutates the in-memory decision by applying the resulting audit events.
func (s *ReviewService) planTransition(decision *models.DisqualificationDecision, resolution dtos.ResolveReviewDTO) ([]models.ReviewEvent, error) {
	switch resolution.Status {
	case dtos.ReviewStatusApproved, dtos.ReviewStatusRejected:
		if decision.Status != dtos.ReviewStatusPending {
			return nil, shared.ErrInvalidTransition
		}
		var event models.ReviewEvent
		if resolution.Status == dtos.ReviewStatusApproved {
			event = models.NewApprovedReviewEvent(decision.ID, resolution.ReviewerID, resolution.Notes)
		} else {
			event = models.NewRejectedReviewEvent(decision.ID, resolution.ReviewerID, resolution.Notes)
		}
		event.Apply(decision)
		return []models.ReviewEvent{event}, nil

	case dtos.ReviewStatusAppealed:
		if !decision.Status.Terminal() {
			return nil, shared.ErrInvalidTransition
		}
		maxAppeals, err := s.maxAppealsFor(decision.AttemptID)
		if err != nil {
			return nil, err
		}
		if decision.AppealCount >= maxAppeals {
			return nil, shared.ErrInvalidTransition
		}
		appeal := models.NewAppealedReviewEvent(decision.ID, resolution.ReviewerID, resolution.Notes)
		appeal.Apply(decision)
		// an accepted appeal immediately reopens the decision for review
		reopen := models.NewReopenedReviewEvent(decision.ID, systemActor)
		reopen.Apply(decision)
		return []models.ReviewEvent{appeal, reopen}, nil

	default:
		return nil, shared.ErrInvalidTransition
	}
}

func (s *ReviewService) maxAppealsFor(attemptID uuid.UUID) (int, error) {
	score, err := s.violationScoreRepository.ReadByAttemptID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DefaultRuleSet(uuid.Nil).MaxAppeals, nil
		}
		return 0, err
	}
	ruleSet, err := s.ruleSetService.GetEffective(score.TestID)
	if err != nil {
		return 0, err
	}
	return ruleSet.MaxAppeals, nil
}

// applyAttemptEffect propagates a resolution onto the attempt: approval
// finalizes it as disqualified, rejection clears the candidate flag, and an
// appeal of an approved decision restores the attempt until re-review.
func (s *ReviewService) applyAttemptEffect(tx shared.DB, decision models.DisqualificationDecision, previous, requested dtos.ReviewStatus) error {
	score, err := s.violationScoreRepository.LockByAttemptID(tx, decision.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	switch requested {
	case dtos.ReviewStatusApproved:
		score.State = dtos.AttemptStateDisqualified
	case dtos.ReviewStatusRejected:
		score.Flagged = false
	case dtos.ReviewStatusAppealed:
		if previous == dtos.ReviewStatusApproved && score.State == dtos.AttemptStateDisqualified {
			score.State = dtos.AttemptStateActive
		}
	}
	return s.violationScoreRepository.Save(tx, &score)
}

func (s *ReviewService) History(decisionID uuid.UUID) ([]dtos.ReviewEventDTO, error) {
	if _, err := s.decisionRepository.Read(decisionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrRecordNotFound
		}
		return nil, err
	}
	events, err := s.reviewEventRepository.ListByDecisionID(decisionID)
	if err != nil {
		return nil, err
	}
	return transformer.ReviewEventModelsToDTOs(events), nil
}

// PendingReviews is the reviewer work queue: pending disqualification
// decisions plus flagged plagiarism analyses awaiting a verdict.
func (s *ReviewService) PendingReviews() (dtos.PendingReviewsDTO, error) {
	decisions, err := s.decisionRepository.ListPending()
	if err != nil {
		return dtos.PendingReviewsDTO{}, err
	}
	analyses, err := s.plagiarismRepository.ListFlaggedPendingReview()
	if err != nil {
		return dtos.PendingReviewsDTO{}, err
	}
	return dtos.PendingReviewsDTO{
		Decisions: transformer.DecisionModelsToDTOs(decisions),
		Analyses:  transformer.PlagiarismAnalysisModelsToDTOs(analyses),
	}, nil
}
