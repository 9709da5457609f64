package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/veriskill/integrity-engine/database"

	"github.com/veriskill/integrity-engine/database/models"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
)

// In-memory repository stubs. Each embeds its interface, so only the methods
// a test path actually touches need an implementation; an unexpected call
// panics and fails the test loudly.

type violationEventRepositoryStub struct {
	shared.ViolationEventRepository
	mut    sync.Mutex
	events []models.ViolationEvent
}

func (s *violationEventRepositoryStub) Create(tx shared.DB, event *models.ViolationEvent) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	for _, existing := range s.events {
		if existing.Fingerprint == event.Fingerprint {
			// the raw driver error, exactly as the unique index raises it
			return &pgconn.PgError{
				Code:    "23505",
				Message: `duplicate key value violates unique constraint "idx_violation_events_fingerprint"`,
			}
		}
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.events = append(s.events, *event)
	return nil
}

func (s *violationEventRepositoryStub) ExistsByFingerprint(fingerprint string) (bool, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	for _, event := range s.events {
		if event.Fingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

func (s *violationEventRepositoryStub) ListByAttemptID(attemptID uuid.UUID) ([]models.ViolationEvent, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var events []models.ViolationEvent
	for _, event := range s.events {
		if event.AttemptID == attemptID {
			events = append(events, event)
		}
	}
	return events, nil
}

type violationScoreRepositoryStub struct {
	shared.ViolationScoreRepository
	mut    sync.Mutex
	scores map[uuid.UUID]models.ViolationScore
}

func newViolationScoreRepositoryStub() *violationScoreRepositoryStub {
	return &violationScoreRepositoryStub{scores: make(map[uuid.UUID]models.ViolationScore)}
}

func (s *violationScoreRepositoryStub) Transaction(fn func(tx shared.DB) error) error {
	return fn(nil)
}

func (s *violationScoreRepositoryStub) CreateIfAbsent(tx shared.DB, score *models.ViolationScore) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	if _, ok := s.scores[score.AttemptID]; ok {
		return nil
	}
	if score.ID == uuid.Nil {
		score.ID = uuid.New()
	}
	s.scores[score.AttemptID] = *score
	return nil
}

func (s *violationScoreRepositoryStub) LockByAttemptID(tx shared.DB, attemptID uuid.UUID) (models.ViolationScore, error) {
	return s.ReadByAttemptID(attemptID)
}

func (s *violationScoreRepositoryStub) ReadByAttemptID(attemptID uuid.UUID) (models.ViolationScore, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	score, ok := s.scores[attemptID]
	if !ok {
		return models.ViolationScore{}, gorm.ErrRecordNotFound
	}
	return score, nil
}

func (s *violationScoreRepositoryStub) Save(tx shared.DB, score *models.ViolationScore) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.scores[score.AttemptID] = *score
	return nil
}

type decisionRepositoryStub struct {
	shared.DecisionRepository
	mut       sync.Mutex
	decisions map[uuid.UUID]models.DisqualificationDecision

	// beforeUpdateGuarded simulates a concurrent writer between the read and
	// the guarded update
	beforeUpdateGuarded func()
}

func newDecisionRepositoryStub() *decisionRepositoryStub {
	return &decisionRepositoryStub{decisions: make(map[uuid.UUID]models.DisqualificationDecision)}
}

func (s *decisionRepositoryStub) Transaction(fn func(tx shared.DB) error) error {
	return fn(nil)
}

func (s *decisionRepositoryStub) CreatePendingIfAbsent(tx shared.DB, decision *models.DisqualificationDecision) (bool, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	for _, existing := range s.decisions {
		if existing.AttemptID == decision.AttemptID && existing.TriggeringRuleID == decision.TriggeringRuleID &&
			!existing.Status.Terminal() {
			return false, nil
		}
	}
	if decision.ID == uuid.Nil {
		decision.ID = uuid.New()
	}
	decision.CreatedAt = time.Now().UTC()
	s.decisions[decision.ID] = *decision
	return true, nil
}

func (s *decisionRepositoryStub) Read(id uuid.UUID) (models.DisqualificationDecision, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	decision, ok := s.decisions[id]
	if !ok {
		return models.DisqualificationDecision{}, gorm.ErrRecordNotFound
	}
	return decision, nil
}

func (s *decisionRepositoryStub) UpdateGuarded(tx shared.DB, decision *models.DisqualificationDecision, expected dtos.ReviewStatus) (bool, error) {
	if s.beforeUpdateGuarded != nil {
		s.beforeUpdateGuarded()
	}
	s.mut.Lock()
	defer s.mut.Unlock()
	current, ok := s.decisions[decision.ID]
	if !ok || current.Status != expected {
		return false, nil
	}
	s.decisions[decision.ID] = *decision
	return true, nil
}

func (s *decisionRepositoryStub) ListPending() ([]models.DisqualificationDecision, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var pending []models.DisqualificationDecision
	for _, decision := range s.decisions {
		if decision.Status == dtos.ReviewStatusPending {
			pending = append(pending, decision)
		}
	}
	return pending, nil
}

func (s *decisionRepositoryStub) ListByAttemptID(attemptID uuid.UUID) ([]models.DisqualificationDecision, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var decisions []models.DisqualificationDecision
	for _, decision := range s.decisions {
		if decision.AttemptID == attemptID {
			decisions = append(decisions, decision)
		}
	}
	return decisions, nil
}

type reviewEventRepositoryStub struct {
	shared.ReviewEventRepository
	mut    sync.Mutex
	events []models.ReviewEvent
}

func (s *reviewEventRepositoryStub) Create(tx shared.DB, event *models.ReviewEvent) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()
	s.events = append(s.events, *event)
	return nil
}

func (s *reviewEventRepositoryStub) ListByDecisionID(decisionID uuid.UUID) ([]models.ReviewEvent, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var events []models.ReviewEvent
	for _, event := range s.events {
		if event.DecisionID == decisionID {
			events = append(events, event)
		}
	}
	return events, nil
}

type anomalyResultRepositoryStub struct {
	shared.AnomalyResultRepository
	mut     sync.Mutex
	results map[uuid.UUID]models.BehavioralAnomalyResult
}

func newAnomalyResultRepositoryStub() *anomalyResultRepositoryStub {
	return &anomalyResultRepositoryStub{results: make(map[uuid.UUID]models.BehavioralAnomalyResult)}
}

func (s *anomalyResultRepositoryStub) ReadByAttemptID(attemptID uuid.UUID) (models.BehavioralAnomalyResult, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	result, ok := s.results[attemptID]
	if !ok {
		return models.BehavioralAnomalyResult{}, gorm.ErrRecordNotFound
	}
	return result, nil
}

func (s *anomalyResultRepositoryStub) UpsertByAttemptID(result *models.BehavioralAnomalyResult) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	if existing, ok := s.results[result.AttemptID]; ok {
		result.ID = existing.ID
	} else if result.ID == uuid.Nil {
		result.ID = uuid.New()
	}
	s.results[result.AttemptID] = *result
	return nil
}

type behaviorSampleRepositoryStub struct {
	shared.BehaviorSampleRepository
	mut     sync.Mutex
	samples []models.BehavioralMetricsSample
}

func (s *behaviorSampleRepositoryStub) Create(tx shared.DB, sample *models.BehavioralMetricsSample) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	s.samples = append(s.samples, *sample)
	return nil
}

func (s *behaviorSampleRepositoryStub) ListByAttemptID(attemptID uuid.UUID) ([]models.BehavioralMetricsSample, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var samples []models.BehavioralMetricsSample
	for _, sample := range s.samples {
		if sample.AttemptID == attemptID {
			samples = append(samples, sample)
		}
	}
	return samples, nil
}

func (s *behaviorSampleRepositoryStub) ListAttemptsWithFreshSamples() ([]uuid.UUID, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	seen := make(map[uuid.UUID]bool)
	var attemptIDs []uuid.UUID
	for _, sample := range s.samples {
		if !seen[sample.AttemptID] {
			seen[sample.AttemptID] = true
			attemptIDs = append(attemptIDs, sample.AttemptID)
		}
	}
	return attemptIDs, nil
}

type brokerStub struct {
	mut       sync.Mutex
	published []database.Message
}

func (s *brokerStub) Publish(ctx context.Context, message database.Message) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.published = append(s.published, message)
	return nil
}

func (s *brokerStub) Subscribe(topic database.Channel) (<-chan map[string]any, error) {
	return make(chan map[string]any), nil
}

type ruleSetRepositoryStub struct {
	shared.RuleSetRepository
	mut      sync.Mutex
	ruleSets map[uuid.UUID]models.TestViolationRuleSet
}

func newRuleSetRepositoryStub() *ruleSetRepositoryStub {
	return &ruleSetRepositoryStub{ruleSets: make(map[uuid.UUID]models.TestViolationRuleSet)}
}

func (s *ruleSetRepositoryStub) ReadByTestID(testID uuid.UUID) (models.TestViolationRuleSet, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	ruleSet, ok := s.ruleSets[testID]
	if !ok {
		return models.TestViolationRuleSet{}, gorm.ErrRecordNotFound
	}
	return ruleSet, nil
}

func (s *ruleSetRepositoryStub) UpsertForTest(ruleSet *models.TestViolationRuleSet) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.ruleSets[ruleSet.TestID] = *ruleSet
	return nil
}

type plagiarismRepositoryStub struct {
	shared.PlagiarismAnalysisRepository
	mut      sync.Mutex
	analyses map[uuid.UUID]models.PlagiarismAnalysis

	// beforeUpdateReviewGuarded simulates a concurrent reviewer between the
	// read and the guarded update
	beforeUpdateReviewGuarded func()
}

func newPlagiarismRepositoryStub() *plagiarismRepositoryStub {
	return &plagiarismRepositoryStub{analyses: make(map[uuid.UUID]models.PlagiarismAnalysis)}
}

func (s *plagiarismRepositoryStub) CreateQueuedIfAbsent(tx shared.DB, analysis *models.PlagiarismAnalysis) (bool, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	if _, ok := s.analyses[analysis.SubmissionID]; ok {
		return false, nil
	}
	if analysis.ID == uuid.Nil {
		analysis.ID = uuid.New()
	}
	s.analyses[analysis.SubmissionID] = *analysis
	return true, nil
}

func (s *plagiarismRepositoryStub) ReadBySubmissionID(submissionID uuid.UUID) (models.PlagiarismAnalysis, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	analysis, ok := s.analyses[submissionID]
	if !ok {
		return models.PlagiarismAnalysis{}, gorm.ErrRecordNotFound
	}
	return analysis, nil
}

func (s *plagiarismRepositoryStub) ListQueued(limit int) ([]models.PlagiarismAnalysis, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var queued []models.PlagiarismAnalysis
	for _, analysis := range s.analyses {
		if analysis.State == dtos.AnalysisStateQueued && len(queued) < limit {
			queued = append(queued, analysis)
		}
	}
	return queued, nil
}

func (s *plagiarismRepositoryStub) ClaimQueued(analysis *models.PlagiarismAnalysis) (bool, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	current, ok := s.analyses[analysis.SubmissionID]
	if !ok || current.State != dtos.AnalysisStateQueued {
		return false, nil
	}
	now := time.Now().UTC()
	analysis.State = dtos.AnalysisStateRunning
	analysis.StartedAt = &now
	s.analyses[analysis.SubmissionID] = *analysis
	return true, nil
}

func (s *plagiarismRepositoryStub) Save(tx shared.DB, analysis *models.PlagiarismAnalysis) error {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.analyses[analysis.SubmissionID] = *analysis
	return nil
}

func (s *plagiarismRepositoryStub) UpdateReviewGuarded(tx shared.DB, analysis *models.PlagiarismAnalysis, expected dtos.ReviewStatus) (bool, error) {
	if s.beforeUpdateReviewGuarded != nil {
		s.beforeUpdateReviewGuarded()
	}
	s.mut.Lock()
	defer s.mut.Unlock()
	current, ok := s.analyses[analysis.SubmissionID]
	if !ok || current.ReviewStatus != expected {
		return false, nil
	}
	s.analyses[analysis.SubmissionID] = *analysis
	return true, nil
}

func (s *plagiarismRepositoryStub) ListFlaggedPendingReview() ([]models.PlagiarismAnalysis, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var flagged []models.PlagiarismAnalysis
	for _, analysis := range s.analyses {
		if analysis.Flagged && analysis.ReviewStatus == dtos.ReviewStatusPending {
			flagged = append(flagged, analysis)
		}
	}
	return flagged, nil
}

func (s *plagiarismRepositoryStub) RequeueStale(cutoff time.Time) (int64, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var requeued int64
	for id, analysis := range s.analyses {
		if analysis.State == dtos.AnalysisStateRunning && analysis.StartedAt != nil && analysis.StartedAt.Before(cutoff) {
			analysis.State = dtos.AnalysisStateQueued
			analysis.StartedAt = nil
			s.analyses[id] = analysis
			requeued++
		}
	}
	return requeued, nil
}

type submissionRepositoryStub struct {
	shared.SubmissionRepository
	mut         sync.Mutex
	submissions map[uuid.UUID]models.Submission
}

func newSubmissionRepositoryStub() *submissionRepositoryStub {
	return &submissionRepositoryStub{submissions: make(map[uuid.UUID]models.Submission)}
}

func (s *submissionRepositoryStub) Transaction(fn func(tx shared.DB) error) error {
	return fn(nil)
}

func (s *submissionRepositoryStub) CreateIfAbsent(tx shared.DB, submission *models.Submission) (bool, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	if _, ok := s.submissions[submission.ID]; ok {
		return false, nil
	}
	s.submissions[submission.ID] = *submission
	return true, nil
}

func (s *submissionRepositoryStub) Read(id uuid.UUID) (models.Submission, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	submission, ok := s.submissions[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (s *submissionRepositoryStub) Corpus(problemID uuid.UUID) ([]models.Submission, error) {
	s.mut.Lock()
	defer s.mut.Unlock()
	var corpus []models.Submission
	for _, submission := range s.submissions {
		if submission.ProblemID == problemID {
			corpus = append(corpus, submission)
		}
	}
	return corpus, nil
}
