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

package shared

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/utils"
)

type ViolationEventRepository interface {
	utils.Repository[uuid.UUID, models.ViolationEvent, DB]
	ListByAttemptID(attemptID uuid.UUID) ([]models.ViolationEvent, error)
	ExistsByFingerprint(fingerprint string) (bool, error)
}

type ViolationScoreRepository interface {
	utils.Repository[uuid.UUID, models.ViolationScore, DB]
	ReadByAttemptID(attemptID uuid.UUID) (models.ViolationScore, error)
	LockByAttemptID(tx DB, attemptID uuid.UUID) (models.ViolationScore, error)
	CreateIfAbsent(tx DB, score *models.ViolationScore) error
}

type RuleSetRepository interface {
	utils.Repository[uuid.UUID, models.TestViolationRuleSet, DB]
	ReadByTestID(testID uuid.UUID) (models.TestViolationRuleSet, error)
	UpsertForTest(ruleSet *models.TestViolationRuleSet) error
}

type DecisionRepository interface {
	utils.Repository[uuid.UUID, models.DisqualificationDecision, DB]
	CreatePendingIfAbsent(tx DB, decision *models.DisqualificationDecision) (bool, error)
	ListByAttemptID(attemptID uuid.UUID) ([]models.DisqualificationDecision, error)
	ListPending() ([]models.DisqualificationDecision, error)
	UpdateGuarded(tx DB, decision *models.DisqualificationDecision, expected dtos.ReviewStatus) (bool, error)
}

type ReviewEventRepository interface {
	utils.Repository[uuid.UUID, models.ReviewEvent, DB]
	ListByDecisionID(decisionID uuid.UUID) ([]models.ReviewEvent, error)
}

type BehaviorSampleRepository interface {
	utils.Repository[uuid.UUID, models.BehavioralMetricsSample, DB]
	ListByAttemptID(attemptID uuid.UUID) ([]models.BehavioralMetricsSample, error)
	ListAttemptsWithFreshSamples() ([]uuid.UUID, error)
}

type AnomalyResultRepository interface {
	utils.Repository[uuid.UUID, models.BehavioralAnomalyResult, DB]
	ReadByAttemptID(attemptID uuid.UUID) (models.BehavioralAnomalyResult, error)
	UpsertByAttemptID(result *models.BehavioralAnomalyResult) error
}

type SubmissionRepository interface {
	utils.Repository[uuid.UUID, models.Submission, DB]
	CreateIfAbsent(tx DB, submission *models.Submission) (bool, error)
	Corpus(problemID uuid.UUID) ([]models.Submission, error)
}

type PlagiarismAnalysisRepository interface {
	utils.Repository[uuid.UUID, models.PlagiarismAnalysis, DB]
	CreateQueuedIfAbsent(tx DB, analysis *models.PlagiarismAnalysis) (bool, error)
	ReadBySubmissionID(submissionID uuid.UUID) (models.PlagiarismAnalysis, error)
	ListQueued(limit int) ([]models.PlagiarismAnalysis, error)
	ClaimQueued(analysis *models.PlagiarismAnalysis) (bool, error)
	UpdateReviewGuarded(tx DB, analysis *models.PlagiarismAnalysis, expected dtos.ReviewStatus) (bool, error)
	ListFlaggedPendingReview() ([]models.PlagiarismAnalysis, error)
	RequeueStale(cutoff time.Time) (int64, error)
}

type RuleSetService interface {
	Upsert(ruleSet dtos.RuleSetDTO) error
	Get(testID uuid.UUID) (dtos.RuleSetDTO, error)
	// GetEffective returns the configured rule set for a test, or the default
	// rule set when none was configured.
	GetEffective(testID uuid.UUID) (models.TestViolationRuleSet, error)
}

// ScoringService applies pending threshold crossings to a row-locked score
// inside the caller's transaction.
type ScoringService interface {
	ApplyThresholds(tx DB, ruleSet models.TestViolationRuleSet, score *models.ViolationScore, anomaly *models.BehavioralAnomalyResult) error
}

type ViolationService interface {
	IngestEvent(ctx context.Context, attemptID uuid.UUID, event dtos.IngestViolationEventDTO) (dtos.IngestAckDTO, error)
	Summary(attemptID uuid.UUID) (dtos.ViolationSummaryDTO, error)
	CompleteAttempt(attemptID uuid.UUID) error
}

type AnomalyService interface {
	ReportMetrics(ctx context.Context, attemptID uuid.UUID, metrics dtos.BehavioralMetricsDTO) error
	Result(attemptID uuid.UUID) (dtos.AnomalyResultDTO, error)
	RecomputeDueAttempts(ctx context.Context) error
}

type ReviewService interface {
	Resolve(ctx context.Context, decisionID uuid.UUID, resolution dtos.ResolveReviewDTO) (dtos.DecisionDTO, error)
	ResolveAnalysis(ctx context.Context, submissionID uuid.UUID, resolution dtos.ResolveReviewDTO) (dtos.PlagiarismAnalysisDTO, error)
	History(decisionID uuid.UUID) ([]dtos.ReviewEventDTO, error)
	PendingReviews() (dtos.PendingReviewsDTO, error)
}

type PlagiarismService interface {
	RegisterSubmission(ctx context.Context, submission dtos.RegisterSubmissionDTO) error
	Analysis(submissionID uuid.UUID) (dtos.PlagiarismAnalysisDTO, error)
	Requeue(ctx context.Context, submissionID uuid.UUID) error
	ProcessQueue(ctx context.Context) error
	RequeueStale(ctx context.Context) (int64, error)
}
