package models_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
)

func TestViolationScore_AddWeight(t *testing.T) {
	t.Run("should accumulate the cumulative score and the category subtotal", func(t *testing.T) {
		score := models.NewViolationScore(uuid.New(), uuid.New(), uuid.New())

		score.AddWeight(dtos.ViolationTabSwitch, 10)
		score.AddWeight(dtos.ViolationCopyPaste, 15)
		score.AddWeight(dtos.ViolationTabSwitch, 10)

		assert.Equal(t, 35.0, score.CumulativeScore)
		assert.Equal(t, 20.0, score.GetCategoryScores()[dtos.ViolationTabSwitch])
		assert.Equal(t, 15.0, score.GetCategoryScores()[dtos.ViolationCopyPaste])
	})

	t.Run("should produce the same total regardless of order", func(t *testing.T) {
		forward := models.NewViolationScore(uuid.New(), uuid.New(), uuid.New())
		forward.AddWeight(dtos.ViolationTabSwitch, 10)
		forward.AddWeight(dtos.ViolationCopyPaste, 15)

		backward := models.NewViolationScore(uuid.New(), uuid.New(), uuid.New())
		backward.AddWeight(dtos.ViolationCopyPaste, 15)
		backward.AddWeight(dtos.ViolationTabSwitch, 10)

		assert.Equal(t, forward.CumulativeScore, backward.CumulativeScore)
	})

	t.Run("should survive a persistence round trip", func(t *testing.T) {
		score := models.NewViolationScore(uuid.New(), uuid.New(), uuid.New())
		score.AddWeight(dtos.ViolationTabSwitch, 10)
		score.RecordOccurrence(dtos.ViolationTabSwitch)
		score.MarkFired("flag")

		// only the serialized columns survive a save/load cycle
		reloaded := models.ViolationScore{
			CategoryScores:   score.CategoryScores,
			OccurrenceCounts: score.OccurrenceCounts,
			FiredRules:       score.FiredRules,
		}

		assert.Equal(t, 10.0, reloaded.GetCategoryScores()[dtos.ViolationTabSwitch])
		assert.Equal(t, 1, reloaded.GetOccurrenceCounts()[dtos.ViolationTabSwitch])
		assert.True(t, reloaded.HasFired("flag"))
	})
}

func TestViolationScore_RecordOccurrence(t *testing.T) {
	t.Run("should return the 1-based occurrence number per type", func(t *testing.T) {
		score := models.NewViolationScore(uuid.New(), uuid.New(), uuid.New())

		assert.Equal(t, 1, score.RecordOccurrence(dtos.ViolationTabSwitch))
		assert.Equal(t, 2, score.RecordOccurrence(dtos.ViolationTabSwitch))
		assert.Equal(t, 1, score.RecordOccurrence(dtos.ViolationWindowBlur))
	})
}

func TestViolationScore_MarkFired(t *testing.T) {
	t.Run("should record a rule only once", func(t *testing.T) {
		score := models.NewViolationScore(uuid.New(), uuid.New(), uuid.New())

		score.MarkFired("flag")
		score.MarkFired("flag")

		assert.True(t, score.HasFired("flag"))
		assert.Len(t, score.GetFiredRules(), 1)
	})
}

func TestDefaultRuleSet(t *testing.T) {
	t.Run("should cover every known violation type", func(t *testing.T) {
		ruleSet := models.DefaultRuleSet(uuid.New())

		for _, violationType := range []dtos.ViolationType{
			dtos.ViolationTabSwitch, dtos.ViolationCopyPaste, dtos.ViolationCameraBlocked,
			dtos.ViolationPhoneDetected, dtos.ViolationFaceAway, dtos.ViolationMultipleFaces,
			dtos.ViolationFullscreenExit, dtos.ViolationMicrophoneMuted, dtos.ViolationWindowBlur,
			dtos.ViolationDevtoolsOpen, dtos.ViolationScreenShareStopped,
		} {
			_, ok := ruleSet.RuleFor(violationType)
			assert.True(t, ok, "missing rule for %s", violationType)
		}
	})

	t.Run("should not monitor the behavioral category as a discrete rule", func(t *testing.T) {
		ruleSet := models.DefaultRuleSet(uuid.New())

		_, ok := ruleSet.RuleFor(dtos.CategoryBehavioral)
		assert.False(t, ok)
	})
}
