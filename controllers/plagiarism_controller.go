package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
)

type PlagiarismController struct {
	plagiarismService shared.PlagiarismService
}

func NewPlagiarismController(plagiarismService shared.PlagiarismService) *PlagiarismController {
	return &PlagiarismController{plagiarismService: plagiarismService}
}

// Register mirrors a finalized submission and queues its analysis. The
// analysis itself runs in the background; 202 means "queued", not "clean".
func (h *PlagiarismController) Register(c shared.Context) error {
	var dto dtos.RegisterSubmissionDTO
	if err := c.Bind(&dto); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").WithInternal(err)
	}

	if err := h.plagiarismService.RegisterSubmission(c.Request().Context(), dto); err != nil {
		return translateError(err, "could not register submission")
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *PlagiarismController) Get(c shared.Context) error {
	submissionID, err := parseUUIDParam(c, "submissionID")
	if err != nil {
		return err
	}

	analysis, err := h.plagiarismService.Analysis(submissionID)
	if err != nil {
		return translateError(err, "could not read analysis")
	}
	return c.JSON(http.StatusOK, analysis)
}

func (h *PlagiarismController) Requeue(c shared.Context) error {
	submissionID, err := parseUUIDParam(c, "submissionID")
	if err != nil {
		return err
	}

	if err := h.plagiarismService.Requeue(c.Request().Context(), submissionID); err != nil {
		return translateError(err, "could not requeue analysis")
	}
	return c.NoContent(http.StatusAccepted)
}
