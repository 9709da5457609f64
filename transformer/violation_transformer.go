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

package transformer

import (
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
)

func ViolationEventModelToDTO(event models.ViolationEvent) dtos.ViolationEventDTO {
	return dtos.ViolationEventDTO{
		ID:              event.ID,
		AttemptID:       event.AttemptID,
		TestID:          event.TestID,
		StudentID:       event.StudentID,
		Type:            event.Type,
		EventData:       event.GetEventData(),
		ClientTimestamp: event.ClientTimestamp,
		ServerTimestamp: event.ServerTimestamp,
		Scored:          event.Scored,
		UnscoredReason:  event.UnscoredReason,
	}
}

func ViolationEventModelsToDTOs(events []models.ViolationEvent) []dtos.ViolationEventDTO {
	eventDTOs := make([]dtos.ViolationEventDTO, len(events))
	for i, event := range events {
		eventDTOs[i] = ViolationEventModelToDTO(event)
	}
	return eventDTOs
}

func ViolationSummaryToDTO(score models.ViolationScore, events []models.ViolationEvent, decisions []models.DisqualificationDecision) dtos.ViolationSummaryDTO {
	return dtos.ViolationSummaryDTO{
		AttemptID:       score.AttemptID,
		State:           score.State,
		CumulativeScore: score.CumulativeScore,
		Tier:            score.Tier,
		CategoryScores:  score.GetCategoryScores(),
		Events:          ViolationEventModelsToDTOs(events),
		Decisions:       DecisionModelsToDTOs(decisions),
	}
}
