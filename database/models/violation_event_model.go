package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/dtos"
)

// FingerprintBucket is the coarse rounding applied to the client timestamp
// before fingerprinting, so that client retries of the same signal collapse
// onto one fingerprint.
const FingerprintBucket = 5 * time.Second

const (
	UnscoredReasonAttemptClosed = "attempt_closed"
	UnscoredReasonUnknownType   = "unknown_type"
)

// ViolationEvent is an immutable, append-only record of a single integrity
// signal reported during an attempt. It is never mutated and never purged by
// normal engine operation.
type ViolationEvent struct {
	Model
	AttemptID       uuid.UUID          `json:"attemptId" gorm:"type:uuid;index;not null"`
	TestID          uuid.UUID          `json:"testId" gorm:"type:uuid;not null"`
	StudentID       uuid.UUID          `json:"studentId" gorm:"type:uuid;not null"`
	Type            dtos.ViolationType `json:"type" gorm:"type:text;not null"`
	EventData       string             `json:"eventData" gorm:"type:text"`
	eventData       map[string]any
	ClientTimestamp time.Time `json:"clientTimestamp" gorm:"not null"`
	ServerTimestamp time.Time `json:"serverTimestamp" gorm:"not null"`
	Fingerprint     string    `json:"fingerprint" gorm:"type:text;uniqueIndex;not null"`

	// Scored is false for events retained only for audit, with UnscoredReason
	// recording why they did not contribute to the score.
	Scored         bool    `json:"scored" gorm:"not null;default:true"`
	UnscoredReason *string `json:"unscoredReason" gorm:"type:text"`
}

func (event ViolationEvent) TableName() string {
	return "violation_events"
}

func (event *ViolationEvent) GetEventData() map[string]any {
	if event.EventData == "" {
		return make(map[string]any)
	}
	if event.eventData == nil {
		event.eventData = make(map[string]any)
		if err := json.Unmarshal([]byte(event.EventData), &event.eventData); err != nil {
			slog.Error("could not parse event data", "err", err, "eventID", event.ID)
		}
	}
	return event.eventData
}

func (event *ViolationEvent) SetEventData(data map[string]any) {
	event.eventData = data
	dataBytes, err := json.Marshal(data)
	if err != nil {
		slog.Error("could not marshal event data", "err", err, "eventID", event.ID)
	}
	event.EventData = string(dataBytes)
}

// EventFingerprint collapses client retries: the same attempt, type and
// coarse timestamp bucket always produce the same fingerprint.
func EventFingerprint(attemptID uuid.UUID, violationType dtos.ViolationType, clientTimestamp time.Time) string {
	bucket := clientTimestamp.UTC().Truncate(FingerprintBucket)
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", attemptID, violationType, bucket.Unix())))
	return hex.EncodeToString(h[:])
}

func NewViolationEvent(attemptID uuid.UUID, dto dtos.IngestViolationEventDTO) ViolationEvent {
	ev := ViolationEvent{
		AttemptID:       attemptID,
		TestID:          dto.TestID,
		StudentID:       dto.StudentID,
		Type:            dto.Type,
		ClientTimestamp: dto.ClientTimestamp.UTC(),
		ServerTimestamp: time.Now().UTC(),
		Fingerprint:     EventFingerprint(attemptID, dto.Type, dto.ClientTimestamp),
		Scored:          true,
	}
	if dto.EventData != nil {
		ev.SetEventData(dto.EventData)
	}
	return ev
}
