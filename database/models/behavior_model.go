package models

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
)

// BehavioralMetricsSample is one aggregated telemetry snapshot reported for
// an attempt. Samples are consumed asynchronously by the anomaly detector.
type BehavioralMetricsSample struct {
	Model
	AttemptID         uuid.UUID `json:"attemptId" gorm:"type:uuid;index;not null"`
	KeystrokeDeltasMs string    `json:"keystrokeDeltasMs" gorm:"type:text"`
	InactivityGapsSec string    `json:"inactivityGapsSec" gorm:"type:text"`
	PasteEvents       int       `json:"pasteEvents" gorm:"not null;default:0"`
	AnswersSubmitted  int       `json:"answersSubmitted" gorm:"not null;default:0"`
	WindowSeconds     int       `json:"windowSeconds" gorm:"not null"`
	CapturedAt        time.Time `json:"capturedAt" gorm:"not null"`
}

func (sample BehavioralMetricsSample) TableName() string {
	return "behavioral_metrics_samples"
}

func NewBehavioralMetricsSample(attemptID uuid.UUID, dto dtos.BehavioralMetricsDTO) BehavioralMetricsSample {
	sample := BehavioralMetricsSample{
		AttemptID:        attemptID,
		PasteEvents:      dto.PasteEvents,
		AnswersSubmitted: dto.AnswersSubmitted,
		WindowSeconds:    dto.WindowSeconds,
		CapturedAt:       dto.CapturedAt.UTC(),
	}
	sample.SetKeystrokeDeltas(dto.KeystrokeDeltasMs)
	sample.SetInactivityGaps(dto.InactivityGapsSec)
	return sample
}

func (sample *BehavioralMetricsSample) GetKeystrokeDeltas() []float64 {
	return unmarshalFloats(sample.KeystrokeDeltasMs, sample.AttemptID, "keystroke deltas")
}

func (sample *BehavioralMetricsSample) SetKeystrokeDeltas(deltas []float64) {
	sample.KeystrokeDeltasMs = marshalFloats(deltas, sample.AttemptID, "keystroke deltas")
}

func (sample *BehavioralMetricsSample) GetInactivityGaps() []float64 {
	return unmarshalFloats(sample.InactivityGapsSec, sample.AttemptID, "inactivity gaps")
}

func (sample *BehavioralMetricsSample) SetInactivityGaps(gaps []float64) {
	sample.InactivityGapsSec = marshalFloats(gaps, sample.AttemptID, "inactivity gaps")
}

func marshalFloats(values []float64, attemptID uuid.UUID, what string) string {
	if values == nil {
		values = []float64{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		slog.Error("could not marshal "+what, "err", err, "attemptID", attemptID)
		return "[]"
	}
	return string(data)
}

func unmarshalFloats(raw string, attemptID uuid.UUID, what string) []float64 {
	if raw == "" {
		return []float64{}
	}
	var values []float64
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		slog.Error("could not parse "+what, "err", err, "attemptID", attemptID)
		return []float64{}
	}
	return values
}

// BehavioralAnomalyResult is the derived anomaly signal for an attempt. It is
// recomputed from the full sample history; it never mutates the event log,
// only feeds the scoring engine as the behavioral category.
type BehavioralAnomalyResult struct {
	Model
	AttemptID    uuid.UUID `json:"attemptId" gorm:"type:uuid;uniqueIndex;not null"`
	AnomalyScore float64   `json:"anomalyScore" gorm:"not null;default:0"`
	Confidence   float64   `json:"confidence" gorm:"not null;default:0"`
	Conclusive   bool      `json:"conclusive" gorm:"not null;default:false"`
	Contributing string    `json:"contributingMetrics" gorm:"type:text"`
	contributing map[string]float64
	SampleCount  int       `json:"sampleCount" gorm:"not null;default:0"`
	ComputedAt   time.Time `json:"computedAt" gorm:"not null"`
}

func (result BehavioralAnomalyResult) TableName() string {
	return "behavioral_anomaly_results"
}

func (result *BehavioralAnomalyResult) GetContributing() map[string]float64 {
	if result.contributing == nil {
		result.contributing = make(map[string]float64)
		if result.Contributing != "" {
			if err := json.Unmarshal([]byte(result.Contributing), &result.contributing); err != nil {
				slog.Error("could not parse contributing metrics", "err", err, "attemptID", result.AttemptID)
			}
		}
	}
	return result.contributing
}

func (result *BehavioralAnomalyResult) SetContributing(metrics map[string]float64) {
	result.contributing = metrics
	data, err := json.Marshal(metrics)
	if err != nil {
		slog.Error("could not marshal contributing metrics", "err", err, "attemptID", result.AttemptID)
		return
	}
	result.Contributing = string(data)
}
