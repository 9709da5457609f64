package controllers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriskill/integrity-engine/controllers"
	"github.com/veriskill/integrity-engine/dtos"
	"github.com/veriskill/integrity-engine/shared"
)

type reviewServiceStub struct {
	decision dtos.DecisionDTO
	analysis dtos.PlagiarismAnalysisDTO
	pending  dtos.PendingReviewsDTO
	history  []dtos.ReviewEventDTO
	err      error

	resolvedID  uuid.UUID
	resolvedDTO dtos.ResolveReviewDTO
}

func (s *reviewServiceStub) Resolve(ctx context.Context, decisionID uuid.UUID, dto dtos.ResolveReviewDTO) (dtos.DecisionDTO, error) {
	s.resolvedID = decisionID
	s.resolvedDTO = dto
	return s.decision, s.err
}

func (s *reviewServiceStub) ResolveAnalysis(ctx context.Context, submissionID uuid.UUID, dto dtos.ResolveReviewDTO) (dtos.PlagiarismAnalysisDTO, error) {
	s.resolvedID = submissionID
	s.resolvedDTO = dto
	return s.analysis, s.err
}

func (s *reviewServiceStub) History(decisionID uuid.UUID) ([]dtos.ReviewEventDTO, error) {
	return s.history, s.err
}

func (s *reviewServiceStub) PendingReviews() (dtos.PendingReviewsDTO, error) {
	return s.pending, s.err
}

func newResolveContext(t *testing.T, decisionID, payload string) (shared.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("decisionID")
	c.SetParamValues(decisionID)
	return c, rec
}

func TestReviewControllerResolve(t *testing.T) {
	t.Run("should resolve a decision and return its new state", func(t *testing.T) {
		decisionID := uuid.New()
		service := &reviewServiceStub{decision: dtos.DecisionDTO{ID: decisionID, Status: dtos.ReviewStatusApproved}}
		controller := controllers.NewReviewController(service)
		c, rec := newResolveContext(t, decisionID.String(), `{"reviewerId":"reviewer-1","status":"approved"}`)

		require.NoError(t, controller.Resolve(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, decisionID, service.resolvedID)
		assert.Equal(t, "reviewer-1", service.resolvedDTO.ReviewerID)
		assert.Contains(t, rec.Body.String(), `"status":"approved"`)
	})

	t.Run("should map a lost race to 409", func(t *testing.T) {
		service := &reviewServiceStub{err: shared.ErrReviewConflict}
		controller := controllers.NewReviewController(service)
		c, _ := newResolveContext(t, uuid.NewString(), `{"reviewerId":"reviewer-1","status":"approved"}`)

		err := controller.Resolve(c)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusConflict, httpError.Code)
	})

	t.Run("should map an invalid transition to 409", func(t *testing.T) {
		service := &reviewServiceStub{err: shared.ErrInvalidTransition}
		controller := controllers.NewReviewController(service)
		c, _ := newResolveContext(t, uuid.NewString(), `{"reviewerId":"reviewer-1","status":"appealed"}`)

		err := controller.Resolve(c)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusConflict, httpError.Code)
	})
}

func TestReviewControllerResolveAnalysis(t *testing.T) {
	newContext := func(submissionID, payload string) (shared.Context, *httptest.ResponseRecorder) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("submissionID")
		c.SetParamValues(submissionID)
		return c, rec
	}

	t.Run("should settle a plagiarism review and return the analysis", func(t *testing.T) {
		submissionID := uuid.New()
		service := &reviewServiceStub{analysis: dtos.PlagiarismAnalysisDTO{
			SubmissionID: submissionID,
			ReviewStatus: dtos.ReviewStatusRejected,
		}}
		controller := controllers.NewReviewController(service)
		c, rec := newContext(submissionID.String(), `{"reviewerId":"reviewer-1","status":"rejected"}`)

		require.NoError(t, controller.ResolveAnalysis(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, submissionID, service.resolvedID)
		assert.Equal(t, "reviewer-1", service.resolvedDTO.ReviewerID)
		assert.Contains(t, rec.Body.String(), `"reviewStatus":"rejected"`)
	})

	t.Run("should map a lost race to 409", func(t *testing.T) {
		service := &reviewServiceStub{err: shared.ErrReviewConflict}
		controller := controllers.NewReviewController(service)
		c, _ := newContext(uuid.NewString(), `{"reviewerId":"reviewer-1","status":"approved"}`)

		err := controller.ResolveAnalysis(c)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusConflict, httpError.Code)
	})

	t.Run("should reject a malformed submission id", func(t *testing.T) {
		controller := controllers.NewReviewController(&reviewServiceStub{})
		c, _ := newContext("not-a-uuid", `{"reviewerId":"reviewer-1","status":"approved"}`)

		err := controller.ResolveAnalysis(c)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusBadRequest, httpError.Code)
	})
}

func TestReviewControllerPending(t *testing.T) {
	t.Run("should serve the reviewer work queue", func(t *testing.T) {
		service := &reviewServiceStub{pending: dtos.PendingReviewsDTO{
			Decisions: []dtos.DecisionDTO{{ID: uuid.New(), Status: dtos.ReviewStatusPending}},
		}}
		controller := controllers.NewReviewController(service)

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		require.NoError(t, controller.Pending(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"pending"`)
	})

	t.Run("should narrow the queue to plagiarism analyses when scoped", func(t *testing.T) {
		service := &reviewServiceStub{pending: dtos.PendingReviewsDTO{
			Decisions: []dtos.DecisionDTO{{ID: uuid.New(), Status: dtos.ReviewStatusPending}},
		}}
		controller := controllers.NewReviewController(service)

		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?scope=plagiarism", nil), rec)

		require.NoError(t, controller.Pending(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"decisions":null`)
	})

	t.Run("should reject an unknown scope", func(t *testing.T) {
		controller := controllers.NewReviewController(&reviewServiceStub{})

		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?scope=everything", nil), httptest.NewRecorder())

		err := controller.Pending(c)

		var httpError *echo.HTTPError
		require.ErrorAs(t, err, &httpError)
		assert.Equal(t, http.StatusBadRequest, httpError.Code)
	})
}
