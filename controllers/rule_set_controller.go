package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
)

type RuleSetController struct {
	ruleSetService shared.RuleSetService
}

func NewRuleSetController(ruleSetService shared.RuleSetService) *RuleSetController {
	return &RuleSetController{ruleSetService: ruleSetService}
}

func (h *RuleSetController) Put(c shared.Context) error {
	testID, err := parseUUIDParam(c, "testID")
	if err != nil {
		return err
	}

	var dto dtos.RuleSetDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").WithInternal(err)
	}
	dto.TestID = testID

	if err := h.ruleSetService.Upsert(dto); err != nil {
		return translateError(err, "could not store rule set")
	}
	stored, err := h.ruleSetService.Get(testID)
	if err != nil {
		return translateError(err, "could not read rule set")
	}
	return c.JSON(http.StatusOK, stored)
}

func (h *RuleSetController) Get(c shared.Context) error {
	testID, err := parseUUIDParam(c, "testID")
	if err != nil {
		return err
	}

	ruleSet, err := h.ruleSetService.Get(testID)
	if err != nil {
		return translateError(err, "could not read rule set")
	}
	return c.JSON(http.StatusOK, ruleSet)
}
