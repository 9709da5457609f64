package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
)

type ReviewController struct {
	reviewService shared.ReviewService
}

func NewReviewController(reviewService shared.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

func (h *ReviewController) Pending(c shared.Context) error {
	pending, err := h.reviewService.PendingReviews()
	if err != nil {
		return translateError(err, "could not list pending reviews")
	}

	switch c.QueryParam("scope") {
	case "":
	case "decisions":
		pending.Analyses = nil
	case "plagiarism":
		pending.Decisions = nil
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "scope must be decisions or plagiarism")
	}
	return c.JSON(http.StatusOK, pending)
}

func (h *ReviewController) Resolve(c shared.Context) error {
	decisionID, err := parseUUIDParam(c, "decisionID")
	if err != nil {
		return err
	}

	var dto dtos.ResolveReviewDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").WithInternal(err)
	}

	decision, err := h.reviewService.Resolve(c.Request().Context(), decisionID, dto)
	if err != nil {
		return translateError(err, "could not resolve review")
	}
	return c.JSON(http.StatusOK, decision)
}

// ResolveAnalysis settles the review of a flagged plagiarism analysis.
func (h *ReviewController) ResolveAnalysis(c shared.Context) error {
	submissionID, err := parseUUIDParam(c, "submissionID")
	if err != nil {
		return err
	}

	var dto dtos.ResolveReviewDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").WithInternal(err)
	}

	analysis, err := h.reviewService.ResolveAnalysis(c.Request().Context(), submissionID, dto)
	if err != nil {
		return translateError(err, "could not resolve plagiarism review")
	}
	return c.JSON(http.StatusOK, analysis)
}

func (h *ReviewController) History(c shared.Context) error {
	decisionID, err := parseUUIDParam(c, "decisionID")
	if err != nil {
		return err
	}

	history, err := h.reviewService.History(decisionID)
	if err != nil {
		return translateError(err, "could not read review history")
	}
	return c.JSON(http.StatusOK, history)
}
