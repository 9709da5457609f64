package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriskill/integrity-engine/database"
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/services"
	"github.com/veriskill/integrity-engine/shared"
)

type anomalyFixture struct {
	service   *services.AnomalyService
	samples   *behaviorSampleRepositoryStub
	results   *anomalyResultRepositoryStub
	scores    *violationScoreRepositoryStub
	decisions *decisionRepositoryStub
	broker    *brokerStub
	testID    uuid.UUID
}

func newAnomalyFixture(t *testing.T) *anomalyFixture {
	t.Helper()

	fixture := &anomalyFixture{
		samples:   &behaviorSampleRepositoryStub{},
		results:   newAnomalyResultRepositoryStub(),
		scores:    newViolationScoreRepositoryStub(),
		decisions: newDecisionRepositoryStub(),
		broker:    &brokerStub{},
		testID:    uuid.New(),
	}

	ruleSets := newRuleSetRepositoryStub()
	ruleSets.ruleSets[fixture.testID] = models.TestViolationRuleSet{
		TestID:                  fixture.testID,
		FlagThreshold:           15,
		AutoDisqualifyThreshold: 30,
		ReviewMandatory:         true,
		MaxAppeals:              1,
	}

	scoringService := services.NewScoringService(fixture.decisions, &reviewEventRepositoryStub{})
	fixture.service = services.NewAnomalyService(
		fixture.samples, fixture.results, fixture.scores,
		services.NewRuleSetService(ruleSets), scoringService, fixture.broker)
	return fixture
}

// uniformMetrics is a telemetry window with perfectly even keystroke timing,
// the strongest single detector signal.
func uniformMetrics() dtos.BehavioralMetricsDTO {
	deltas := make([]float64, 15)
	for i := range deltas {
		deltas[i] = 220
	}
	return dtos.BehavioralMetricsDTO{
		KeystrokeDeltasMs: deltas,
		WindowSeconds:     60,
		CapturedAt:        time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC),
	}
}

func TestReportMetrics(t *testing.T) {
	ctx := context.Background()

	t.Run("should persist the sample and wake the detector", func(t *testing.T) {
		fixture := newAnomalyFixture(t)
		attemptID := uuid.New()

		require.NoError(t, fixture.service.ReportMetrics(ctx, attemptID, uniformMetrics()))

		samples, err := fixture.samples.ListByAttemptID(attemptID)
		require.NoError(t, err)
		assert.Len(t, samples, 1)

		require.Len(t, fixture.broker.published, 1)
		assert.Equal(t, database.MetricsReported, fixture.broker.published[0].GetChannel())
	})

	t.Run("should reject a window without a duration", func(t *testing.T) {
		fixture := newAnomalyFixture(t)
		metrics := uniformMetrics()
		metrics.WindowSeconds = 0

		err := fixture.service.ReportMetrics(ctx, uuid.New(), metrics)

		assert.True(t, shared.IsValidationError(err))
		assert.Empty(t, fixture.samples.samples)
	})
}

func TestRecomputeDueAttempts(t *testing.T) {
	ctx := context.Background()

	t.Run("should store an inconclusive result below the sample minimum", func(t *testing.T) {
		fixture := newAnomalyFixture(t)
		attemptID := uuid.New()
		for i := 0; i < 2; i++ {
			require.NoError(t, fixture.service.ReportMetrics(ctx, attemptID, uniformMetrics()))
		}

		require.NoError(t, fixture.service.RecomputeDueAttempts(ctx))

		result, err := fixture.results.ReadByAttemptID(attemptID)
		require.NoError(t, err)
		assert.False(t, result.Conclusive)
		assert.Equal(t, 2, result.SampleCount)
	})

	t.Run("should raise a behavioral disqualification candidate when the joined score crosses the threshold", func(t *testing.T) {
		fixture := newAnomalyFixture(t)
		attemptID := uuid.New()

		// discrete events sit just below the auto-disqualify threshold
		score := models.NewViolationScore(attemptID, fixture.testID, uuid.New())
		score.CumulativeScore = 25
		require.NoError(t, fixture.scores.Save(nil, &score))

		for i := 0; i < 3; i++ {
			require.NoError(t, fixture.service.ReportMetrics(ctx, attemptID, uniformMetrics()))
		}
		require.NoError(t, fixture.service.RecomputeDueAttempts(ctx))

		result, err := fixture.results.ReadByAttemptID(attemptID)
		require.NoError(t, err)
		assert.True(t, result.Conclusive)
		assert.Positive(t, result.AnomalyScore)

		require.Len(t, fixture.decisions.decisions, 1)
		for _, decision := range fixture.decisions.decisions {
			assert.Equal(t, models.TriggerBehavioral, decision.TriggeringRuleID)
			assert.Equal(t, dtos.ReviewStatusPending, decision.Status)
		}

		updated, err := fixture.scores.ReadByAttemptID(attemptID)
		require.NoError(t, err)
		assert.True(t, updated.Flagged)
		// the anomaly signal never mutates the discrete-event score
		assert.Equal(t, 25.0, updated.CumulativeScore)
	})

	t.Run("should leave attempts without violation events unscored", func(t *testing.T) {
		fixture := newAnomalyFixture(t)
		attemptID := uuid.New()
		for i := 0; i < 3; i++ {
			require.NoError(t, fixture.service.ReportMetrics(ctx, attemptID, uniformMetrics()))
		}

		require.NoError(t, fixture.service.RecomputeDueAttempts(ctx))

		_, err := fixture.results.ReadByAttemptID(attemptID)
		assert.NoError(t, err)
		assert.Empty(t, fixture.decisions.decisions)
	})

	t.Run("should be idempotent for an unchanged sample history", func(t *testing.T) {
		fixture := newAnomalyFixture(t)
		attemptID := uuid.New()
		for i := 0; i < 3; i++ {
			require.NoError(t, fixture.service.ReportMetrics(ctx, attemptID, uniformMetrics()))
		}

		require.NoError(t, fixture.service.RecomputeDueAttempts(ctx))
		first, err := fixture.results.ReadByAttemptID(attemptID)
		require.NoError(t, err)

		require.NoError(t, fixture.service.RecomputeDueAttempts(ctx))
		second, err := fixture.results.ReadByAttemptID(attemptID)
		require.NoError(t, err)

		assert.Equal(t, first.AnomalyScore, second.AnomalyScore)
		assert.Equal(t, first.Confidence, second.Confidence)
	})
}

func TestAnomalyResult(t *testing.T) {
	t.Run("should return not found before the first computation", func(t *testing.T) {
		fixture := newAnomalyFixture(t)

		_, err := fixture.service.Result(uuid.New())

		assert.ErrorIs(t, err, shared.ErrRecordNotFound)
	})
}
