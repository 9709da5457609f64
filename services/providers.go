package services

import (
	"github.com/veriskill/integrity-engine/shared"
	"go.uber.org/fx"
)

// Module provides all service-layer constructors as their interfaces
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewRuleSetService, fx.As(new(shared.RuleSetService)))),
	fx.Provide(fx.Annotate(NewScoringService, fx.As(new(shared.ScoringService)))),
	fx.Provide(fx.Annotate(NewViolationService, fx.As(new(shared.ViolationService)))),
	fx.Provide(fx.Annotate(NewAnomalyService, fx.As(new(shared.AnomalyService)))),
	fx.Provide(fx.Annotate(NewReviewService, fx.As(new(shared.ReviewService)))),
	fx.Provide(fx.Annotate(NewPlagiarismService, fx.As(new(shared.PlagiarismService)))),
)
