package router

import (
	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/controllers"
)

type ReviewRouter struct {
	*echo.Group
}

func NewReviewRouter(
	apiV1Router APIV1Router,
	reviewController *controllers.ReviewController,
) ReviewRouter {
	reviewRouter := apiV1Router.Group.Group("/reviews")

	reviewRouter.GET("/pending", reviewController.Pending)
	reviewRouter.POST("/:decisionID", reviewController.Resolve)
	reviewRouter.GET("/:decisionID/history", reviewController.History)

	return ReviewRouter{Group: reviewRouter}
}
