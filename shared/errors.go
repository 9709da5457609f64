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

package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrAttemptClosed is returned when an event arrives for an attempt that is
	// already in a terminal state. The event is still retained for audit, it is
	// just never scored.
	ErrAttemptClosed = errors.New("attempt already finalized")

	// ErrInvalidTransition is returned for review-workflow moves outside
	// pending -> approved|rejected and approved|rejected -> appealed -> pending.
	ErrInvalidTransition = errors.New("invalid review transition")

	// ErrReviewConflict is returned to the loser of a race on a pending
	// decision. The first accepted transition wins, the caller must re-fetch.
	ErrReviewConflict = errors.New("decision was resolved concurrently")

	// ErrDuplicateEvent marks an event whose fingerprint was already applied.
	// The ingest boundary acknowledges duplicates, it never fails them.
	ErrDuplicateEvent = errors.New("event already applied")

	// ErrAnalysisInconclusive marks analyzer runs without enough data for a
	// verdict. Inconclusive is recorded, it is never treated as clean.
	ErrAnalysisInconclusive = errors.New("not enough data for a conclusive verdict")

	// ErrNotAnalyzed is returned when a plagiarism analysis is requested before
	// the background analyzer has produced a result.
	ErrNotAnalyzed = errors.New("submission not yet analyzed")

	// ErrRateLimited sheds pathological client floods before any state change.
	ErrRateLimited = errors.New("event rate limit exceeded for attempt")

	ErrRecordNotFound = errors.New("record not found")
)

// ValidationError rejects malformed input before any state change.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
