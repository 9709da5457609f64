package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/services"
	"github.com/veriskill/integrity-engine/shared"
)

type violationFixture struct {
	service   *services.ViolationService
	events    *violationEventRepositoryStub
	scores    *violationScoreRepositoryStub
	decisions *decisionRepositoryStub
	reviews   *reviewEventRepositoryStub
	testID    uuid.UUID
	studentID uuid.UUID
}

// newViolationFixture wires a violation service against in-memory stubs with
// a single monitored rule: tab_switch, weight 10, one free occurrence,
// flag at 15, auto-disqualify at 30.
func newViolationFixture(t *testing.T, reviewMandatory bool) *violationFixture {
	t.Helper()

	fixture := &violationFixture{
		events:    &violationEventRepositoryStub{},
		scores:    newViolationScoreRepositoryStub(),
		decisions: newDecisionRepositoryStub(),
		reviews:   &reviewEventRepositoryStub{},
		testID:    uuid.New(),
		studentID: uuid.New(),
	}

	ruleSets := newRuleSetRepositoryStub()
	ruleSets.ruleSets[fixture.testID] = models.TestViolationRuleSet{
		TestID: fixture.testID,
		Rules: []models.ViolationRule{
			{Type: dtos.ViolationTabSwitch, Weight: 10, GraceCount: 1},
		},
		FlagThreshold:           15,
		AutoDisqualifyThreshold: 30,
		ReviewMandatory:         reviewMandatory,
		MaxAppeals:              1,
	}

	anomalies := newAnomalyResultRepositoryStub()
	ruleSetService := services.NewRuleSetService(ruleSets)
	scoringService := services.NewScoringService(fixture.decisions, fixture.reviews)
	fixture.service = services.NewViolationService(
		fixture.events, fixture.scores, fixture.decisions, anomalies, ruleSetService, scoringService)
	return fixture
}

func (f *violationFixture) tabSwitchAt(offset time.Duration) dtos.IngestViolationEventDTO {
	return dtos.IngestViolationEventDTO{
		TestID:          f.testID,
		StudentID:       f.studentID,
		Type:            dtos.ViolationTabSwitch,
		ClientTimestamp: time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC).Add(offset),
	}
}

func TestIngestEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("should not score an occurrence inside the grace count", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()

		ack, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(0))

		require.NoError(t, err)
		assert.Zero(t, ack.CumulativeRisk)
		assert.Equal(t, dtos.TierNone, ack.Tier)
		assert.False(t, ack.Duplicate)
	})

	t.Run("should flag after three tab switches without disqualifying", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()

		var ack dtos.IngestAckDTO
		var err error
		for i := 0; i < 3; i++ {
			ack, err = fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}

		// first occurrence is free, the next two score 10 each
		assert.Equal(t, 20.0, ack.CumulativeRisk)
		assert.Equal(t, dtos.TierMedium, ack.Tier)

		score, err := fixture.scores.ReadByAttemptID(attemptID)
		require.NoError(t, err)
		assert.True(t, score.Flagged)
		assert.Equal(t, dtos.AttemptStateActive, score.State)
		assert.Empty(t, fixture.decisions.decisions)
	})

	t.Run("should raise exactly one pending decision after five tab switches", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()

		for i := 0; i < 5; i++ {
			_, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}

		require.Len(t, fixture.decisions.decisions, 1)
		for _, decision := range fixture.decisions.decisions {
			assert.Equal(t, attemptID, decision.AttemptID)
			assert.Equal(t, "auto_disqualify", decision.TriggeringRuleID)
			assert.True(t, decision.Automatic)
			assert.Equal(t, dtos.ReviewStatusPending, decision.Status)
		}

		// mandatory review: the attempt stays active until a human approves
		score, err := fixture.scores.ReadByAttemptID(attemptID)
		require.NoError(t, err)
		assert.Equal(t, dtos.AttemptStateActive, score.State)

		// further events must not raise a second candidate
		_, err = fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(10*time.Minute))
		require.NoError(t, err)
		assert.Len(t, fixture.decisions.decisions, 1)
	})

	t.Run("should disqualify immediately when review is not mandatory", func(t *testing.T) {
		fixture := newViolationFixture(t, false)
		attemptID := uuid.New()

		for i := 0; i < 5; i++ {
			_, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}

		score, err := fixture.scores.ReadByAttemptID(attemptID)
		require.NoError(t, err)
		assert.Equal(t, dtos.AttemptStateDisqualified, score.State)

		for _, decision := range fixture.decisions.decisions {
			assert.Equal(t, dtos.ReviewStatusApproved, decision.Status)
		}
	})

	t.Run("should acknowledge a retried event as duplicate without rescoring", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()
		event := fixture.tabSwitchAt(time.Minute)

		first, err := fixture.service.IngestEvent(ctx, attemptID, event)
		require.NoError(t, err)
		second, err := fixture.service.IngestEvent(ctx, attemptID, event)
		require.NoError(t, err)

		assert.False(t, first.Duplicate)
		assert.True(t, second.Duplicate)
		assert.Equal(t, first.CumulativeRisk, second.CumulativeRisk)

		events, err := fixture.events.ListByAttemptID(attemptID)
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("should treat retries within the same fingerprint bucket as one signal", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()

		_, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(0))
		require.NoError(t, err)
		ack, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(2*time.Second))
		require.NoError(t, err)

		assert.True(t, ack.Duplicate)
	})

	t.Run("should reject an unknown type but retain the event for audit", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()
		event := fixture.tabSwitchAt(0)
		event.Type = "telepathy"

		_, err := fixture.service.IngestEvent(ctx, attemptID, event)

		assert.True(t, shared.IsValidationError(err))

		events, listErr := fixture.events.ListByAttemptID(attemptID)
		require.NoError(t, listErr)
		require.Len(t, events, 1)
		assert.False(t, events[0].Scored)
		assert.Equal(t, models.UnscoredReasonUnknownType, *events[0].UnscoredReason)
	})

	t.Run("should tolerate a redelivered unknown type without a second audit row", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()
		event := fixture.tabSwitchAt(0)
		event.Type = "telepathy"

		_, err := fixture.service.IngestEvent(ctx, attemptID, event)
		assert.True(t, shared.IsValidationError(err))

		// the unique fingerprint index raises on the second insert; the caller
		// must still see the validation answer, not a database error
		_, err = fixture.service.IngestEvent(ctx, attemptID, event)
		assert.True(t, shared.IsValidationError(err))

		events, listErr := fixture.events.ListByAttemptID(attemptID)
		require.NoError(t, listErr)
		assert.Len(t, events, 1)
	})

	t.Run("should refuse events for a completed attempt but retain them", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()

		_, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(0))
		require.NoError(t, err)
		require.NoError(t, fixture.service.CompleteAttempt(attemptID))

		ack, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(time.Minute))

		assert.ErrorIs(t, err, shared.ErrAttemptClosed)
		assert.Equal(t, dtos.TierNone, ack.Tier)

		events, listErr := fixture.events.ListByAttemptID(attemptID)
		require.NoError(t, listErr)
		require.Len(t, events, 2)
		assert.False(t, events[1].Scored)
		assert.Equal(t, models.UnscoredReasonAttemptClosed, *events[1].UnscoredReason)
	})

	t.Run("should answer a redelivery after close with the closed attempt error", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()

		_, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(0))
		require.NoError(t, err)
		require.NoError(t, fixture.service.CompleteAttempt(attemptID))

		late := fixture.tabSwitchAt(time.Minute)
		_, err = fixture.service.IngestEvent(ctx, attemptID, late)
		require.ErrorIs(t, err, shared.ErrAttemptClosed)

		// the retained event's fingerprint collides on redelivery; the raw
		// unique violation must not leak past the closed-attempt answer
		_, err = fixture.service.IngestEvent(ctx, attemptID, late)
		assert.ErrorIs(t, err, shared.ErrAttemptClosed)

		events, listErr := fixture.events.ListByAttemptID(attemptID)
		require.NoError(t, listErr)
		assert.Len(t, events, 2)
	})

	t.Run("should validate the payload before any state change", func(t *testing.T) {
		fixture := newViolationFixture(t, true)

		_, err := fixture.service.IngestEvent(ctx, uuid.New(), dtos.IngestViolationEventDTO{})

		assert.True(t, shared.IsValidationError(err))
		assert.Empty(t, fixture.events.events)
	})
}

func TestCompleteAttempt(t *testing.T) {
	ctx := context.Background()

	t.Run("should be a no-op for an attempt without events", func(t *testing.T) {
		fixture := newViolationFixture(t, true)

		assert.NoError(t, fixture.service.CompleteAttempt(uuid.New()))
	})

	t.Run("should evict the attempt's rate limiter", func(t *testing.T) {
		fixture := newViolationFixture(t, true)
		attemptID := uuid.New()

		// drain the per-attempt budget; distinct minutes keep every event out
		// of the dedup fingerprint bucket
		var err error
		for i := 0; i < 100; i++ {
			_, err = fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(time.Duration(i)*time.Minute))
			if errors.Is(err, shared.ErrRateLimited) {
				break
			}
		}
		require.ErrorIs(t, err, shared.ErrRateLimited)

		require.NoError(t, fixture.service.CompleteAttempt(attemptID))

		// a fresh limiter serves the attempt again, so the caller gets the
		// closed-attempt answer instead of being shed
		_, err = fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(200*time.Minute))
		assert.ErrorIs(t, err, shared.ErrAttemptClosed)
	})

	t.Run("should be idempotent and never un-disqualify", func(t *testing.T) {
		fixture := newViolationFixture(t, false)
		attemptID := uuid.New()

		for i := 0; i < 5; i++ {
			_, err := fixture.service.IngestEvent(ctx, attemptID, fixture.tabSwitchAt(time.Duration(i)*time.Minute))
			require.NoError(t, err)
		}
		require.NoError(t, fixture.service.CompleteAttempt(attemptID))

		score, err := fixture.scores.ReadByAttemptID(attemptID)
		require.NoError(t, err)
		assert.Equal(t, dtos.AttemptStateDisqualified, score.State)
	})
}
