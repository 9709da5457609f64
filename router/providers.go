package router

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(NewAPIV1Router),
	fx.Provide(NewAttemptRouter),
	fx.Provide(NewTestRouter),
	fx.Provide(NewReviewRouter),
	fx.Provide(NewSubmissionRouter),
)
