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

package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
)

type ViolationController struct {
	violationService shared.ViolationService
}

func NewViolationController(violationService shared.ViolationService) *ViolationController {
	return &ViolationController{violationService: violationService}
}

// Ingest accepts one proctoring event. Duplicates are acknowledged with
// duplicate=true, they are never an error for the reporting client.
func (h *ViolationController) Ingest(c shared.Context) error {
	attemptID, err := parseUUIDParam(c, "attemptID")
	if err != nil {
		return err
	}

	var dto dtos.IngestViolationEventDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").WithInternal(err)
	}

	ack, err := h.violationService.IngestEvent(c.Request().Context(), attemptID, dto)
	if err != nil {
		return translateError(err, "could not ingest violation event")
	}
	return c.JSON(http.StatusAccepted, ack)
}

func (h *ViolationController) Summary(c shared.Context) error {
	attemptID, err := parseUUIDParam(c, "attemptID")
	if err != nil {
		return err
	}

	summary, err := h.violationService.Summary(attemptID)
	if err != nil {
		return translateError(err, "could not read violation summary")
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *ViolationController) Complete(c shared.Context) error {
	attemptID, err := parseUUIDParam(c, "attemptID")
	if err != nil {
		return err
	}

	if err := h.violationService.CompleteAttempt(attemptID); err != nil {
		return translateError(err, "could not complete attempt")
	}
	return c.NoContent(http.StatusNoContent)
}
