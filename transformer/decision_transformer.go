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

func DecisionModelToDTO(decision models.DisqualificationDecision) dtos.DecisionDTO {
	return dtos.DecisionDTO{
		ID:               decision.ID,
		AttemptID:        decision.AttemptID,
		TriggeringRuleID: decision.TriggeringRuleID,
		Automatic:        decision.Automatic,
		Status:           decision.Status,
		ReviewedBy:       decision.ReviewedBy,
		Notes:            decision.Notes,
		AppealCount:      decision.AppealCount,
		CreatedAt:        decision.CreatedAt,
		ResolvedAt:       decision.ResolvedAt,
	}
}

func DecisionModelsToDTOs(decisions []models.DisqualificationDecision) []dtos.DecisionDTO {
	decisionDTOs := make([]dtos.DecisionDTO, len(decisions))
	for i, decision := range decisions {
		decisionDTOs[i] = DecisionModelToDTO(decision)
	}
	return decisionDTOs
}

func DecisionModelToDetailsDTO(decision models.DisqualificationDecision, history []models.ReviewEvent) dtos.DecisionDTO {
	dto := DecisionModelToDTO(decision)
	dto.History = ReviewEventModelsToDTOs(history)
	return dto
}

func ReviewEventModelToDTO(event models.ReviewEvent) dtos.ReviewEventDTO {
	return dtos.ReviewEventDTO{
		ID:            event.ID,
		DecisionID:    event.DecisionID,
		Type:          event.Type,
		ReviewerID:    event.ReviewerID,
		Justification: event.Justification,
		CreatedAt:     event.CreatedAt,
	}
}

func ReviewEventModelsToDTOs(events []models.ReviewEvent) []dtos.ReviewEventDTO {
	eventDTOs := make([]dtos.ReviewEventDTO, len(events))
	for i, event := range events {
		eventDTOs[i] = ReviewEventModelToDTO(event)
	}
	return eventDTOs
}
