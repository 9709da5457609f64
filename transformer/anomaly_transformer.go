package transformer

import (
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
)

func AnomalyResultModelToDTO(result models.BehavioralAnomalyResult) dtos.AnomalyResultDTO {
	return dtos.AnomalyResultDTO{
		AttemptID:    result.AttemptID,
		AnomalyScore: result.AnomalyScore,
		Confidence:   result.Confidence,
		Conclusive:   result.Conclusive,
		Contributing: result.GetContributing(),
		SampleCount:  result.SampleCount,
		ComputedAt:   result.ComputedAt,
	}
}
