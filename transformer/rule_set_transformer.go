package transformer

import (
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
)

func RuleSetModelToDTO(ruleSet models.TestViolationRuleSet) dtos.RuleSetDTO {
	rules := make([]dtos.ViolationRuleDTO, len(ruleSet.Rules))
	for i, rule := range ruleSet.Rules {
		rules[i] = dtos.ViolationRuleDTO{
			Type:       rule.Type,
			Weight:     rule.Weight,
			GraceCount: rule.GraceCount,
		}
	}
	return dtos.RuleSetDTO{
		TestID:                  ruleSet.TestID,
		Rules:                   rules,
		FlagThreshold:           ruleSet.FlagThreshold,
		AutoDisqualifyThreshold: ruleSet.AutoDisqualifyThreshold,
		ReviewMandatory:         ruleSet.ReviewMandatory,
		MaxAppeals:              ruleSet.MaxAppeals,
	}
}
