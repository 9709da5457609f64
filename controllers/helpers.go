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
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/shared"
)

func parseUUIDParam(c shared.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name).WithInternal(err)
	}
	return id, nil
}

// translateError maps domain errors onto the HTTP boundary. Anything not in
// the taxonomy is a 500 with the internal cause attached.
func translateError(err error, fallback string) error {
	switch {
	case shared.IsValidationError(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, shared.ErrRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case errors.Is(err, shared.ErrAttemptClosed):
		return echo.NewHTTPError(http.StatusConflict, "attempt already finalized").WithInternal(err)
	case errors.Is(err, shared.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, "invalid review transition").WithInternal(err)
	case errors.Is(err, shared.ErrReviewConflict):
		return echo.NewHTTPError(http.StatusConflict, "decision was resolved concurrently, re-fetch and retry").WithInternal(err)
	case errors.Is(err, shared.ErrNotAnalyzed):
		return echo.NewHTTPError(http.StatusNotFound, "submission not yet analyzed").WithInternal(err)
	case errors.Is(err, shared.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found").WithInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback).WithInternal(err)
	}
}
