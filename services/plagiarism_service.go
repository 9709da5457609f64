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

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/database"
	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/monitoring"
	"github.com/veriskill/integrity-engine/shared"
	"github.com/veriskill/integrity-engine/similarity"
	"github.com/veriskill/integrity-engine/transformer"
	"github.com/veriskill/integrity-engine/utils"
)

const (
	// analysisBatchSize bounds one queue drain; leftover work is picked up by
	// the next tick.
	analysisBatchSize = 32
	// analysisParallelism bounds concurrent analyses; the corpus comparison
	// is CPU bound.
	analysisParallelism = 4
	// analysisTimeBudget is the per-submission budget. Overrunning analyses
	// are abandoned and recorded as inconclusive.
	analysisTimeBudget = 30 * time.Second
	// staleRunningAfter is how long an analysis may sit in running before the
	// reaper assumes its worker died and requeues it.
	staleRunningAfter = 5 * time.Minute
)

// PlagiarismService registers finalized submissions and runs the similarity
// analyzer as queued background batch work, never on the submission path.
type PlagiarismService struct {
	submissionRepository shared.SubmissionRepository
	plagiarismRepository shared.PlagiarismAnalysisRepository
	broker               database.Broker
	config               similarity.Config
}

func NewPlagiarismService(
	submissionRepository shared.SubmissionRepository,
	plagiarismRepository shared.PlagiarismAnalysisRepository,
	broker database.Broker,
) *PlagiarismService {
	return &PlagiarismService{
		submissionRepository: submissionRepository,
		plagiarismRepository: plagiarismRepository,
		broker:               broker,
		config:               similarity.DefaultConfig(),
	}
}

// RegisterSubmission mirrors a finalized submission and queues its analysis.
// Registration is idempotent on the submission id.
func (s *PlagiarismService) RegisterSubmission(ctx context.Context, dto dtos.RegisterSubmissionDTO) error {
	if err := shared.V.Struct(dto); err != nil {
		return shared.NewValidationError("invalid submission: %s", err)
	}

	submission := models.SubmissionFromDTO(dto)
	err := s.submissionRepository.Transaction(func(tx shared.DB) error {
		if _, err := s.submissionRepository.CreateIfAbsent(tx, &submission); err != nil {
			return err
		}
		analysis := models.NewQueuedAnalysis(submission)
		_, err := s.plagiarismRepository.CreateQueuedIfAbsent(tx, &analysis)
		return err
	})
	if err != nil {
		return err
	}

	if err := s.broker.Publish(ctx, database.NewSimpleMessage(database.SubmissionFinalized, map[string]any{
		"submissionID": submission.ID.String(),
	})); err != nil {
		slog.Warn("could not publish submission notification", "err", err, "submissionID", submission.ID)
	}
	return nil
}

func (s *PlagiarismService) Analysis(submissionID uuid.UUID) (dtos.PlagiarismAnalysisDTO, error) {
	analysis, err := s.plagiarismRepository.ReadBySubmissionID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dtos.PlagiarismAnalysisDTO{}, shared.ErrNotAnalyzed
		}
		return dtos.PlagiarismAnalysisDTO{}, err
	}
	if analysis.State == dtos.AnalysisStateQueued || analysis.State == dtos.AnalysisStateRunning {
		return dtos.PlagiarismAnalysisDTO{}, shared.ErrNotAnalyzed
	}
	return transformer.PlagiarismAnalysisModelToDTO(analysis), nil
}

// Requeue puts an existing analysis back into the queue, e.g. after the
// corpus grew or an inconclusive run.
func (s *PlagiarismService) Requeue(ctx context.Context, submissionID uuid.UUID) error {
	analysis, err := s.plagiarismRepository.ReadBySubmissionID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return shared.ErrRecordNotFound
		}
		return err
	}
	analysis.State = dtos.AnalysisStateQueued
	analysis.StartedAt = nil
	if err := s.plagiarismRepository.Save(nil, &analysis); err != nil {
		return err
	}
	return s.broker.Publish(ctx, database.NewSimpleMessage(database.SubmissionFinalized, map[string]any{
		"submissionID": submissionID.String(),
	}))
}

// ProcessQueue drains one batch of queued analyses with bounded parallelism.
// A failing or overrunning submission never takes the batch down with it.
func (s *PlagiarismService) ProcessQueue(ctx context.Context) error {
	queued, err := s.plagiarismRepository.ListQueued(analysisBatchSize)
	if err != nil {
		return err
	}
	if len(queued) == 0 {
		return nil
	}

	sem := semaphore.NewWeighted(analysisParallelism)
	group, groupCtx := errgroup.WithContext(ctx)
	for i := range queued {
		analysis := queued[i]
		if err := sem.Acquire(groupCtx, 1); err != nil {
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			claimed, err := s.plagiarismRepository.ClaimQueued(&analysis)
			if err != nil {
				return err
			}
			if !claimed {
				return nil
			}
			if err := s.analyzeOne(groupCtx, &analysis); err != nil {
				slog.Error("plagiarism analysis failed", "err", err, "submissionID", analysis.SubmissionID)
			}
			return nil
		})
	}
	return group.Wait()
}

func (s *PlagiarismService) analyzeOne(ctx context.Context, analysis *models.PlagiarismAnalysis) error {
	start := time.Now()
	defer func() {
		monitoring.PlagiarismAnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	target, err := s.submissionRepository.Read(analysis.SubmissionID)
	if err != nil {
		return s.markInconclusive(analysis, "submission source unavailable")
	}
	corpus, err := s.submissionRepository.Corpus(analysis.ProblemID)
	if err != nil {
		return err
	}

	budgetCtx, cancel := context.WithTimeout(ctx, analysisTimeBudget)
	defer cancel()

	reportCh := make(chan similarity.Report, 1)
	go func() {
		reportCh <- similarity.Analyze(submissionToDocument(target), submissionsToDocuments(corpus), s.config)
	}()

	select {
	case <-budgetCtx.Done():
		// abandoned, the goroutine result is discarded when it arrives
		return s.markInconclusive(analysis, "analysis exceeded time budget")
	case report := <-reportCh:
		return s.persistReport(analysis, report)
	}
}

func (s *PlagiarismService) persistReport(analysis *models.PlagiarismAnalysis, report similarity.Report) error {
	analysis.LexicalSimilarity = report.Lexical
	analysis.StructuralSimilarity = report.Structural
	analysis.TemporalSuspicion = report.Temporal
	analysis.OverallScore = report.Overall
	analysis.Flagged = report.Flagged
	analysis.Severity = nil
	if report.Severity != nil {
		analysis.Severity = utils.Ptr(string(*report.Severity))
	}
	matches := make([]dtos.MatchedSubmissionDTO, len(report.Matches))
	for i, match := range report.Matches {
		matches[i] = dtos.MatchedSubmissionDTO{SubmissionID: match.SubmissionID, Score: match.Score}
	}
	analysis.SetMatchedSubmissions(matches)
	analysis.State = dtos.AnalysisStateDone
	analysis.AnalyzerVersion = similarity.AnalyzerVersion
	analysis.ComputedAt = utils.Ptr(time.Now().UTC())

	if err := s.plagiarismRepository.Save(nil, analysis); err != nil {
		return err
	}
	monitoring.PlagiarismAnalysesCompleted.WithLabelValues(string(dtos.AnalysisStateDone)).Inc()
	if report.Flagged {
		slog.Info("submission flagged for plagiarism", "submissionID", analysis.SubmissionID, "overall", report.Overall, "severity", analysis.Severity)
	}
	return nil
}

// markInconclusive records that no verdict was reached. Inconclusive is never
// treated as clean; the analysis stays eligible for requeueing.
func (s *PlagiarismService) markInconclusive(analysis *models.PlagiarismAnalysis, reason string) error {
	analysis.State = dtos.AnalysisStateInconclusive
	analysis.Notes = utils.Ptr(reason)
	analysis.ComputedAt = utils.Ptr(time.Now().UTC())
	if err := s.plagiarismRepository.Save(nil, analysis); err != nil {
		return err
	}
	monitoring.PlagiarismAnalysesCompleted.WithLabelValues(string(dtos.AnalysisStateInconclusive)).Inc()
	slog.Warn("plagiarism analysis inconclusive", "submissionID", analysis.SubmissionID, "reason", reason)
	return nil
}

// RequeueStale returns analyses stuck in running beyond the budget to the
// queue, covering workers that died mid-analysis.
func (s *PlagiarismService) RequeueStale(ctx context.Context) (int64, error) {
	requeued, err := s.plagiarismRepository.RequeueStale(time.Now().Add(-staleRunningAfter))
	if err != nil {
		return 0, err
	}
	if requeued > 0 {
		slog.Info("requeued stale plagiarism analyses", "count", requeued)
	}
	return requeued, nil
}

func submissionToDocument(submission models.Submission) similarity.Document {
	return similarity.Document{
		SubmissionID:         submission.ID,
		StudentID:            submission.StudentID,
		SourceText:           submission.SourceText,
		SubmittedAt:          submission.SubmittedAt,
		SolveDurationSeconds: submission.SolveDurationSeconds,
	}
}

func submissionsToDocuments(submissions []models.Submission) []similarity.Document {
	documents := make([]similarity.Document, len(submissions))
	for i, submission := range submissions {
		documents[i] = submissionToDocument(submission)
	}
	return documents
}
