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
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
	"github.com/veriskill/integrity-engine/transformer"
)

// RuleSetService is the only writer of per-test rule configuration. Every
// write is validated here; the scoring engine treats rule sets as read-only.
type RuleSetService struct {
	ruleSetRepository shared.RuleSetRepository
}

func NewRuleSetService(ruleSetRepository shared.RuleSetRepository) *RuleSetService {
	return &RuleSetService{
		ruleSetRepository: ruleSetRepository,
	}
}

func (s *RuleSetService) Upsert(ruleSet dtos.RuleSetDTO) error {
	if err := shared.V.Struct(ruleSet); err != nil {
		return shared.NewValidationError("invalid rule set: %s", err)
	}
	if ruleSet.TestID == uuid.Nil {
		return shared.NewValidationError("testId is required")
	}
	if ruleSet.AutoDisqualifyThreshold < ruleSet.FlagThreshold {
		return shared.NewValidationError("autoDisqualifyThreshold (%.1f) must not be below flagThreshold (%.1f)", ruleSet.AutoDisqualifyThreshold, ruleSet.FlagThreshold)
	}
	seen := make(map[dtos.ViolationType]bool, len(ruleSet.Rules))
	for _, rule := range ruleSet.Rules {
		if !rule.Type.Valid() {
			return shared.NewValidationError("unknown violation type %q", rule.Type)
		}
		if seen[rule.Type] {
			return shared.NewValidationError("duplicate rule for violation type %q", rule.Type)
		}
		seen[rule.Type] = true
	}

	model := models.RuleSetFromDTO(ruleSet)
	return s.ruleSetRepository.UpsertForTest(&model)
}

func (s *RuleSetService) Get(testID uuid.UUID) (dtos.RuleSetDTO, error) {
	ruleSet, err := s.GetEffective(testID)
	if err != nil {
		return dtos.RuleSetDTO{}, err
	}
	return transformer.RuleSetModelToDTO(ruleSet), nil
}

// GetEffective returns the configured rule set for a test, falling back to
// the documented default when none was configured.
func (s *RuleSetService) GetEffective(testID uuid.UUID) (models.TestViolationRuleSet, error) {
	ruleSet, err := s.ruleSetRepository.ReadByTestID(testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DefaultRuleSet(testID), nil
		}
		return models.TestViolationRuleSet{}, err
	}
	return ruleSet, nil
}
