package router

import (
	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/controllers"
)

type SubmissionRouter struct {
	*echo.Group
}

func NewSubmissionRouter(
	apiV1Router APIV1Router,
	plagiarismController *controllers.PlagiarismController,
	reviewController *controllers.ReviewController,
) SubmissionRouter {
	submissionRouter := apiV1Router.Group.Group("/submissions")

	submissionRouter.POST("", plagiarismController.Register)
	submissionRouter.GET("/:submissionID/plagiarism", plagiarismController.Get)
	submissionRouter.POST("/:submissionID/plagiarism", plagiarismController.Requeue)
	submissionRouter.POST("/:submissionID/plagiarism/review", reviewController.ResolveAnalysis)

	return SubmissionRouter{Group: submissionRouter}
}
