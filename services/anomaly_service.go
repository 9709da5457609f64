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
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/anomaly"
	"github.com/veriskill/integrity-engine/database"
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/monitoring"
	"github.com/veriskill/integrity-engine/shared"
	"github.com/veriskill/integrity-engine/transformer"
)

// AnomalyService accepts behavioral telemetry on the hot path but only
// persists it; detection runs asynchronously and feeds the scoring engine as
// the behavioral category.
type AnomalyService struct {
	behaviorSampleRepository shared.BehaviorSampleRepository
	anomalyResultRepository  shared.AnomalyResultRepository
	violationScoreRepository shared.ViolationScoreRepository
	ruleSetService           shared.RuleSetService
	scoringService           shared.ScoringService
	broker                   database.Broker
	baseline                 anomaly.Baseline
}

func NewAnomalyService(
	behaviorSampleRepository shared.BehaviorSampleRepository,
	anomalyResultRepository shared.AnomalyResultRepository,
	violationScoreRepository shared.ViolationScoreRepository,
	ruleSetService shared.RuleSetService,
	scoringService shared.ScoringService,
	broker database.Broker,
) *AnomalyService {
	return &AnomalyService{
		behaviorSampleRepository: behaviorSampleRepository,
		anomalyResultRepository:  anomalyResultRepository,
		violationScoreRepository: violationScoreRepository,
		ruleSetService:           ruleSetService,
		scoringService:           scoringService,
		broker:                   broker,
		baseline:                 anomaly.DefaultBaseline(),
	}
}

func (s *AnomalyService) ReportMetrics(ctx context.Context, attemptID uuid.UUID, metrics dtos.BehavioralMetricsDTO) error {
	if err := shared.V.Struct(metrics); err != nil {
		return shared.NewValidationError("invalid behavioral metrics: %s", err)
	}
	if attemptID == uuid.Nil {
		return shared.NewValidationError("attemptId is required")
	}

	sample := models.NewBehavioralMetricsSample(attemptID, metrics)
	if err := s.behaviorSampleRepository.Create(nil, &sample); err != nil {
		return err
	}

	// wake the detector; losing the notification only delays the next tick
	if err := s.broker.Publish(ctx, database.NewSimpleMessage(database.MetricsReported, map[string]any{
		"attemptID": attemptID.String(),
	})); err != nil {
		slog.Warn("could not publish metrics notification", "err", err, "attemptID", attemptID)
	}
	return nil
}

func (s *AnomalyService) Result(attemptID uuid.UUID) (dtos.AnomalyResultDTO, error) {
	result, err := s.anomalyResultRepository.ReadByAttemptID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dtos.AnomalyResultDTO{}, shared.ErrRecordNotFound
		}
		return dtos.AnomalyResultDTO{}, err
	}
	return transformer.AnomalyResultModelToDTO(result), nil
}

// RecomputeDueAttempts recomputes the anomaly result for every attempt whose
// sample history changed since the last pass. Per-attempt failures are
// isolated; one broken attempt never stalls the rest.
func (s *AnomalyService) RecomputeDueAttempts(ctx context.Context) error {
	start := time.Now()
	defer func() {
		monitoring.AnomalyRecomputeDuration.Observe(time.Since(start).Seconds())
	}()

	attemptIDs, err := s.behaviorSampleRepository.ListAttemptsWithFreshSamples()
	if err != nil {
		return err
	}

	var errs []error
	for _, attemptID := range attemptIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.recomputeAttempt(attemptID); err != nil {
			slog.Error("could not recompute anomaly result", "err", err, "attemptID", attemptID)
			errs = append(errs, fmt.Errorf("attempt %s: %w", attemptID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *AnomalyService) recomputeAttempt(attemptID uuid.UUID) error {
	samples, err := s.behaviorSampleRepository.ListByAttemptID(attemptID)
	if err != nil {
		return err
	}

	detected := anomaly.Detect(samplesToDetectorInput(samples), s.baseline)
	result := models.BehavioralAnomalyResult{
		AttemptID:    attemptID,
		AnomalyScore: detected.Score,
		Confidence:   detected.Confidence,
		Conclusive:   detected.Conclusive,
		SampleCount:  detected.SampleCount,
		ComputedAt:   time.Now().UTC(),
	}
	result.SetContributing(detected.Contributing)
	if err := s.anomalyResultRepository.UpsertByAttemptID(&result); err != nil {
		return err
	}
	monitoring.AnomalyResultsComputed.WithLabelValues(fmt.Sprintf("%t", detected.Conclusive)).Inc()

	if !detected.Conclusive {
		return nil
	}
	// feed the scoring engine; the joined score can only raise the tier
	return s.violationScoreRepository.Transaction(func(tx shared.DB) error {
		score, err := s.violationScoreRepository.LockByAttemptID(tx, attemptID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// telemetry without any violation events; nothing to score yet
				return nil
			}
			return err
		}
		if score.State.Terminal() {
			return nil
		}
		ruleSet, err := s.ruleSetService.GetEffective(score.TestID)
		if err != nil {
			return err
		}
		if err := s.scoringService.ApplyThresholds(tx, ruleSet, &score, &result); err != nil {
			return err
		}
		return s.violationScoreRepository.Save(tx, &score)
	})
}

func samplesToDetectorInput(samples []models.BehavioralMetricsSample) []anomaly.Sample {
	input := make([]anomaly.Sample, len(samples))
	for i := range samples {
		input[i] = anomaly.Sample{
			KeystrokeDeltasMs: samples[i].GetKeystrokeDeltas(),
			InactivityGapsSec: samples[i].GetInactivityGaps(),
			PasteEvents:       samples[i].PasteEvents,
			AnswersSubmitted:  samples[i].AnswersSubmitted,
			WindowSeconds:     samples[i].WindowSeconds,
		}
	}
	return input
}
