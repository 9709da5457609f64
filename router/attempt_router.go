package router

import (
	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/controllers"
)

type AttemptRouter struct {
	*echo.Group
}

func NewAttemptRouter(
	apiV1Router APIV1Router,
	violationController *controllers.ViolationController,
	behaviorController *controllers.BehaviorController,
) AttemptRouter {
	attemptRouter := apiV1Router.Group.Group("/attempts/:attemptID")

	attemptRouter.POST("/violations", violationController.Ingest)
	attemptRouter.GET("/violations", violationController.Summary)
	attemptRouter.POST("/complete", violationController.Complete)
	attemptRouter.POST("/metrics", behaviorController.ReportMetrics)
	attemptRouter.GET("/anomaly", behaviorController.Anomaly)

	return AttemptRouter{Group: attemptRouter}
}
