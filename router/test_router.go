package router

import (
	"github.com/labstack/echo/v4"

	"github.com/veriskill/integrity-engine/controllers"
)

type TestRouter struct {
	*echo.Group
}

func NewTestRouter(
	apiV1Router APIV1Router,
	ruleSetController *controllers.RuleSetController,
) TestRouter {
	testRouter := apiV1Router.Group.Group("/tests/:testID")

	testRouter.PUT("/rules", ruleSetController.Put)
	testRouter.GET("/rules", ruleSetController.Get)

	return TestRouter{Group: testRouter}
}
