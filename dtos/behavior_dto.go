package dtos

import (
	"time"

	"github.com/google/uuid"
)

// BehavioralMetricsDTO is one aggregated telemetry snapshot reported by the
// assessment client. The engine consumes these asynchronously, it never
// scores individual keystrokes.
type BehavioralMetricsDTO struct {
	KeystrokeDeltasMs []float64 `json:"keystrokeDeltasMs"`
	PasteEvents       int       `json:"pasteEvents" validate:"gte=0"`
	InactivityGapsSec []float64 `json:"inactivityGapsSec"`
	AnswersSubmitted  int       `json:"answersSubmitted" validate:"gte=0"`
	WindowSeconds     int       `json:"windowSeconds" validate:"gt=0"`
	CapturedAt        time.Time `json:"capturedAt" validate:"required"`
}

type AnomalyResultDTO struct {
	AttemptID    uuid.UUID          `json:"attemptId"`
	AnomalyScore float64            `json:"anomalyScore"`
	Confidence   float64            `json:"confidence"`
	Conclusive   bool               `json:"conclusive"`
	Contributing map[string]float64 `json:"contributingMetrics"`
	SampleCount  int                `json:"sampleCount"`
	ComputedAt   time.Time          `json:"computedAt"`
}
