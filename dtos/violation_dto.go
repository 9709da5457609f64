package dtos

import (
	"time"

	"github.com/google/uuid"
)

type ViolationType string

const (
	ViolationTabSwitch          ViolationType = "tab_switch"
	ViolationCopyPaste          ViolationType = "copy_paste"
	ViolationCameraBlocked      ViolationType = "camera_blocked"
	ViolationPhoneDetected      ViolationType = "phone_detected"
	ViolationFaceAway           ViolationType = "face_away"
	ViolationMultipleFaces      ViolationType = "multiple_faces"
	ViolationFullscreenExit     ViolationType = "fullscreen_exit"
	ViolationMicrophoneMuted    ViolationType = "microphone_muted"
	ViolationWindowBlur         ViolationType = "window_blur"
	ViolationDevtoolsOpen       ViolationType = "devtools_open"
	ViolationScreenShareStopped ViolationType = "screen_share_stopped"

	// CategoryBehavioral is not reported by the proctoring client. It is the
	// category under which the anomaly detector feeds into the scoring engine.
	CategoryBehavioral ViolationType = "behavioral"
)

func (t ViolationType) Valid() bool {
	switch t {
	case ViolationTabSwitch, ViolationCopyPaste, ViolationCameraBlocked,
		ViolationPhoneDetected, ViolationFaceAway, ViolationMultipleFaces,
		ViolationFullscreenExit, ViolationMicrophoneMuted, ViolationWindowBlur,
		ViolationDevtoolsOpen, ViolationScreenShareStopped:
		return true
	}
	return false
}

type AttemptState string

const (
	AttemptStateActive       AttemptState = "active"
	AttemptStateCompleted    AttemptState = "completed"
	AttemptStateDisqualified AttemptState = "disqualified"
)

func (s AttemptState) Terminal() bool {
	return s == AttemptStateCompleted || s == AttemptStateDisqualified
}

type IngestViolationEventDTO struct {
	TestID          uuid.UUID      `json:"testId" validate:"required"`
	StudentID       uuid.UUID      `json:"studentId" validate:"required"`
	Type            ViolationType  `json:"type" validate:"required"`
	EventData       map[string]any `json:"eventData"`
	ClientTimestamp time.Time      `json:"clientTimestamp" validate:"required"`
}

type ViolationEventDTO struct {
	ID              uuid.UUID      `json:"id"`
	AttemptID       uuid.UUID      `json:"attemptId"`
	TestID          uuid.UUID      `json:"testId"`
	StudentID       uuid.UUID      `json:"studentId"`
	Type            ViolationType  `json:"type"`
	EventData       map[string]any `json:"eventData"`
	ClientTimestamp time.Time      `json:"clientTimestamp"`
	ServerTimestamp time.Time      `json:"serverTimestamp"`
	Scored          bool           `json:"scored"`
	UnscoredReason  *string        `json:"unscoredReason,omitempty"`
}

// IngestAckDTO acknowledges an accepted or deduplicated event. Duplicates are
// acknowledged as already applied, they are not an error to the caller.
type IngestAckDTO struct {
	EventID        uuid.UUID    `json:"eventId"`
	Duplicate      bool         `json:"duplicate"`
	CumulativeRisk float64      `json:"cumulativeRisk"`
	Tier           SeverityTier `json:"tier"`
}

type ViolationSummaryDTO struct {
	AttemptID       uuid.UUID                 `json:"attemptId"`
	State           AttemptState              `json:"state"`
	CumulativeScore float64                   `json:"cumulativeScore"`
	Tier            SeverityTier              `json:"tier"`
	CategoryScores  map[ViolationType]float64 `json:"categoryScores"`
	Events          []ViolationEventDTO       `json:"events"`
	Decisions       []DecisionDTO             `json:"decisions"`
}
