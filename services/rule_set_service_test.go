package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/services"
	"github.com/veriskill/integrity-engine/shared"
)

func validRuleSet(testID uuid.UUID) dtos.RuleSetDTO {
	return dtos.RuleSetDTO{
		TestID: testID,
		Rules: []dtos.ViolationRuleDTO{
			{Type: dtos.ViolationTabSwitch, Weight: 10, GraceCount: 1},
			{Type: dtos.ViolationCopyPaste, Weight: 15},
		},
		FlagThreshold:           15,
		AutoDisqualifyThreshold: 30,
		ReviewMandatory:         true,
		MaxAppeals:              1,
	}
}

func TestRuleSetUpsert(t *testing.T) {
	t.Run("should store a valid rule set and serve it back", func(t *testing.T) {
		repository := newRuleSetRepositoryStub()
		service := services.NewRuleSetService(repository)
		testID := uuid.New()

		require.NoError(t, service.Upsert(validRuleSet(testID)))

		stored, err := service.Get(testID)
		require.NoError(t, err)
		assert.Equal(t, testID, stored.TestID)
		assert.Len(t, stored.Rules, 2)
		assert.Equal(t, 15.0, stored.FlagThreshold)
	})

	t.Run("should reject a disqualify threshold below the flag threshold", func(t *testing.T) {
		service := services.NewRuleSetService(newRuleSetRepositoryStub())
		ruleSet := validRuleSet(uuid.New())
		ruleSet.AutoDisqualifyThreshold = 10

		assert.True(t, shared.IsValidationError(service.Upsert(ruleSet)))
	})

	t.Run("should reject unknown violation types", func(t *testing.T) {
		service := services.NewRuleSetService(newRuleSetRepositoryStub())
		ruleSet := validRuleSet(uuid.New())
		ruleSet.Rules[0].Type = "mind_reading"

		assert.True(t, shared.IsValidationError(service.Upsert(ruleSet)))
	})

	t.Run("should reject duplicate rules for the same type", func(t *testing.T) {
		service := services.NewRuleSetService(newRuleSetRepositoryStub())
		ruleSet := validRuleSet(uuid.New())
		ruleSet.Rules[1].Type = ruleSet.Rules[0].Type

		assert.True(t, shared.IsValidationError(service.Upsert(ruleSet)))
	})

	t.Run("should reject a missing test id", func(t *testing.T) {
		service := services.NewRuleSetService(newRuleSetRepositoryStub())

		assert.True(t, shared.IsValidationError(service.Upsert(validRuleSet(uuid.Nil))))
	})

	t.Run("should reject negative weights", func(t *testing.T) {
		service := services.NewRuleSetService(newRuleSetRepositoryStub())
		ruleSet := validRuleSet(uuid.New())
		ruleSet.Rules[0].Weight = -1

		assert.True(t, shared.IsValidationError(service.Upsert(ruleSet)))
	})
}

func TestGetEffective(t *testing.T) {
	t.Run("should fall back to the documented defaults for an unconfigured test", func(t *testing.T) {
		service := services.NewRuleSetService(newRuleSetRepositoryStub())
		testID := uuid.New()

		ruleSet, err := service.GetEffective(testID)

		require.NoError(t, err)
		assert.Equal(t, testID, ruleSet.TestID)
		assert.Equal(t, 40.0, ruleSet.FlagThreshold)
		assert.Equal(t, 80.0, ruleSet.AutoDisqualifyThreshold)
		assert.True(t, ruleSet.ReviewMandatory)
	})

	t.Run("should prefer the configured rule set", func(t *testing.T) {
		repository := newRuleSetRepositoryStub()
		service := services.NewRuleSetService(repository)
		testID := uuid.New()
		require.NoError(t, service.Upsert(validRuleSet(testID)))

		ruleSet, err := service.GetEffective(testID)

		require.NoError(t, err)
		assert.Equal(t, 15.0, ruleSet.FlagThreshold)
	})
}
