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

package repositories

import (
	"github.com/veriskill/integrity-engine/shared"
	"go.uber.org/fx"
)

// Module provides all repository constructors as their interfaces
var Module = fx.Options(
	fx.Provide(fx.Annotate(NewViolationEventRepository, fx.As(new(shared.ViolationEventRepository)))),
	fx.Provide(fx.Annotate(NewViolationScoreRepository, fx.As(new(shared.ViolationScoreRepository)))),
	fx.Provide(fx.Annotate(NewRuleSetRepository, fx.As(new(shared.RuleSetRepository)))),
	fx.Provide(fx.Annotate(NewDecisionRepository, fx.As(new(shared.DecisionRepository)))),
	fx.Provide(fx.Annotate(NewReviewEventRepository, fx.As(new(shared.ReviewEventRepository)))),
	fx.Provide(fx.Annotate(NewBehaviorSampleRepository, fx.As(new(shared.BehaviorSampleRepository)))),
	fx.Provide(fx.Annotate(NewAnomalyResultRepository, fx.As(new(shared.AnomalyResultRepository)))),
	fx.Provide(fx.Annotate(NewSubmissionRepository, fx.As(new(shared.SubmissionRepository)))),
	fx.Provide(fx.Annotate(NewPlagiarismRepository, fx.As(new(shared.PlagiarismAnalysisRepository)))),
)
