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
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/database"
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/monitoring"
	"github.com/veriskill/integrity-engine/shared"
	"github.com/veriskill/integrity-engine/transformer"
	"github.com/veriskill/integrity-engine/utils"
)

const (
	// dedupCacheSize bounds the fingerprint hot cache. The database unique
	// index stays authoritative, the cache only short-circuits hot retries.
	dedupCacheSize = 65536

	// per-attempt ingest budget; a proctoring client reporting faster than
	// this is misbehaving and gets shed before any state change
	ingestEventsPerSecond = 25
	ingestBurst           = 50
)

// ViolationService owns the ingest path: validation, dedup, the row-locked
// read-modify-write of the attempt score and the handoff to the threshold
// engine, all inside one transaction per event.
type ViolationService struct {
	violationEventRepository shared.ViolationEventRepository
	violationScoreRepository shared.ViolationScoreRepository
	decisionRepository       shared.DecisionRepository
	anomalyResultRepository  shared.AnomalyResultRepository
	ruleSetService           shared.RuleSetService
	scoringService           shared.ScoringService

	seenFingerprints *lru.Cache[string, struct{}]

	limiterMut sync.Mutex
	limiters   map[uuid.UUID]*rate.Limiter
}

func NewViolationService(
	violationEventRepository shared.ViolationEventRepository,
	violationScoreRepository shared.ViolationScoreRepository,
	decisionRepository shared.DecisionRepository,
	anomalyResultRepository shared.AnomalyResultRepository,
	ruleSetService shared.RuleSetService,
	scoringService shared.ScoringService,
) *ViolationService {
	cache, err := lru.New[string, struct{}](dedupCacheSize)
	if err != nil {
		panic(err)
	}
	return &ViolationService{
		violationEventRepository: violationEventRepository,
		violationScoreRepository: violationScoreRepository,
		decisionRepository:       decisionRepository,
		anomalyResultRepository:  anomalyResultRepository,
		ruleSetService:           ruleSetService,
		scoringService:           scoringService,
		seenFingerprints:         cache,
		limiters:                 make(map[uuid.UUID]*rate.Limiter),
	}
}

func (s *ViolationService) limiterFor(attemptID uuid.UUID) *rate.Limiter {
	s.limiterMut.Lock()
	defer s.limiterMut.Unlock()
	limiter, ok := s.limiters[attemptID]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(ingestEventsPerSecond), ingestBurst)
		s.limiters[attemptID] = limiter
	}
	return limiter
}

func (s *ViolationService) IngestEvent(ctx context.Context, attemptID uuid.UUID, dto dtos.IngestViolationEventDTO) (dtos.IngestAckDTO, error) {
	if err := shared.V.Struct(dto); err != nil {
		return dtos.IngestAckDTO{}, shared.NewValidationError("invalid violation event: %s", err)
	}
	if attemptID == uuid.Nil {
		return dtos.IngestAckDTO{}, shared.NewValidationError("attemptId is required")
	}

	if !s.limiterFor(attemptID).Allow() {
		monitoring.ViolationEventsRejected.WithLabelValues("rate_limited").Inc()
		return dtos.IngestAckDTO{}, shared.ErrRateLimited
	}

	if !dto.Type.Valid() {
		// retained for audit, never scored
		if err := s.persistUnscored(attemptID, dto, models.UnscoredReasonUnknownType); err != nil {
			return dtos.IngestAckDTO{}, err
		}
		monitoring.ViolationEventsRejected.WithLabelValues(models.UnscoredReasonUnknownType).Inc()
		return dtos.IngestAckDTO{}, shared.NewValidationError("unknown violation type %q", dto.Type)
	}

	fingerprint := models.EventFingerprint(attemptID, dto.Type, dto.ClientTimestamp)
	if _, seen := s.seenFingerprints.Get(fingerprint); seen {
		return s.duplicateAck(attemptID)
	}

	ruleSet, err := s.ruleSetService.GetEffective(dto.TestID)
	if err != nil {
		return dtos.IngestAckDTO{}, err
	}

	var ack dtos.IngestAckDTO
	var ingestErr error
	err = s.violationScoreRepository.Transaction(func(tx shared.DB) error {
		freshScore := models.NewViolationScore(attemptID, dto.TestID, dto.StudentID)
		if err := s.violationScoreRepository.CreateIfAbsent(tx, &freshScore); err != nil {
			return err
		}
		// all writers for this attempt serialize here
		score, err := s.violationScoreRepository.LockByAttemptID(tx, attemptID)
		if err != nil {
			return err
		}

		if score.State.Terminal() {
			event := models.NewViolationEvent(attemptID, dto)
			event.Scored = false
			event.UnscoredReason = utils.Ptr(models.UnscoredReasonAttemptClosed)
			// a redelivery after close hits the fingerprint index; the event is
			// already retained, the caller still gets the closed-attempt answer
			if err := s.violationEventRepository.Create(tx, &event); err != nil && !database.IsDuplicateKeyError(err) {
				return err
			}
			ingestErr = shared.ErrAttemptClosed
			ack = s.ackFor(score)
			return nil
		}

		// the lock serializes same-attempt writers, so check-then-insert on
		// the fingerprint is race free here
		exists, err := s.violationEventRepository.ExistsByFingerprint(fingerprint)
		if err != nil {
			return err
		}
		if exists {
			s.seenFingerprints.Add(fingerprint, struct{}{})
			ack = s.ackFor(score)
			ack.Duplicate = true
			return nil
		}

		event := models.NewViolationEvent(attemptID, dto)
		if err := s.violationEventRepository.Create(tx, &event); err != nil {
			if database.IsDuplicateKeyError(err) {
				ack = s.ackFor(score)
				ack.Duplicate = true
				return nil
			}
			return err
		}

		occurrence := score.RecordOccurrence(dto.Type)
		if rule, ok := ruleSet.RuleFor(dto.Type); ok && occurrence > rule.GraceCount {
			score.AddWeight(dto.Type, rule.Weight)
		}

		anomaly, err := s.anomalyResult(attemptID)
		if err != nil {
			return err
		}
		if err := s.scoringService.ApplyThresholds(tx, ruleSet, &score, anomaly); err != nil {
			return err
		}
		if err := s.violationScoreRepository.Save(tx, &score); err != nil {
			return err
		}

		ack = s.ackFor(score)
		ack.EventID = event.ID
		return nil
	})
	if err != nil {
		return dtos.IngestAckDTO{}, err
	}
	if ingestErr != nil {
		monitoring.ViolationEventsRejected.WithLabelValues(models.UnscoredReasonAttemptClosed).Inc()
		return ack, ingestErr
	}
	if ack.Duplicate {
		monitoring.ViolationEventsDeduplicated.Inc()
		return ack, nil
	}

	s.seenFingerprints.Add(fingerprint, struct{}{})
	monitoring.ViolationEventsIngested.WithLabelValues(string(dto.Type)).Inc()
	return ack, nil
}

func (s *ViolationService) Summary(attemptID uuid.UUID) (dtos.ViolationSummaryDTO, error) {
	score, err := s.violationScoreRepository.ReadByAttemptID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dtos.ViolationSummaryDTO{}, shared.ErrRecordNotFound
		}
		return dtos.ViolationSummaryDTO{}, err
	}
	events, err := s.violationEventRepository.ListByAttemptID(attemptID)
	if err != nil {
		return dtos.ViolationSummaryDTO{}, err
	}
	decisions, err := s.decisionRepository.ListByAttemptID(attemptID)
	if err != nil {
		return dtos.ViolationSummaryDTO{}, err
	}
	return transformer.ViolationSummaryToDTO(score, events, decisions), nil
}

func (s *ViolationService) dropLimiter(attemptID uuid.UUID) {
	s.limiterMut.Lock()
	defer s.limiterMut.Unlock()
	delete(s.limiters, attemptID)
}

// CompleteAttempt closes ingestion for an attempt. Disqualified attempts stay
// disqualified; completing twice is a no-op.
func (s *ViolationService) CompleteAttempt(attemptID uuid.UUID) error {
	defer s.dropLimiter(attemptID)
	return s.violationScoreRepository.Transaction(func(tx shared.DB) error {
		score, err := s.violationScoreRepository.LockByAttemptID(tx, attemptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// no events ever arrived; nothing to close
				return nil
			}
			return err
		}
		if score.State.Terminal() {
			return nil
		}
		score.State = dtos.AttemptStateCompleted
		slog.Info("attempt completed", "attemptID", attemptID, "score", score.CumulativeScore, "tier", score.Tier)
		return s.violationScoreRepository.Save(tx, &score)
	})
}

func (s *ViolationService) persistUnscored(attemptID uuid.UUID, dto dtos.IngestViolationEventDTO, reason string) error {
	event := models.NewViolationEvent(attemptID, dto)
	event.Scored = false
	event.UnscoredReason = utils.Ptr(reason)
	err := s.violationEventRepository.Create(nil, &event)
	if err != nil && database.IsDuplicateKeyError(err) {
		// retry of an already retained event
		return nil
	}
	return err
}

func (s *ViolationService) duplicateAck(attemptID uuid.UUID) (dtos.IngestAckDTO, error) {
	score, err := s.violationScoreRepository.ReadByAttemptID(attemptID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dtos.IngestAckDTO{}, err
	}
	ack := s.ackFor(score)
	ack.Duplicate = true
	monitoring.ViolationEventsDeduplicated.Inc()
	return ack, nil
}

func (s *ViolationService) ackFor(score models.ViolationScore) dtos.IngestAckDTO {
	tier := score.Tier
	if tier == "" {
		tier = dtos.TierNone
	}
	return dtos.IngestAckDTO{
		CumulativeRisk: score.CumulativeScore,
		Tier:           tier,
	}
}

func (s *ViolationService) anomalyResult(attemptID uuid.UUID) (*models.BehavioralAnomalyResult, error) {
	anomaly, err := s.anomalyResultRepository.ReadByAttemptID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &anomaly, nil
}
