package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/planner-api/internal/dto"
	"github.com/studytrack/planner-api/internal/middleware"
	"github.com/studytrack/planner-api/internal/models"
	appErrors "github.com/studytrack/planner-api/pkg/errors"
)

type plannerServiceMock struct {
	previewResp *dto.PreviewPlanResponse
	previewErr  error
	commitResp  *dto.CommitPlanResponse
	commitErr   error
	exportErr   error
}

func (m *plannerServiceMock) Preview(ctx context.Context, studentID string, req dto.PreviewPlanRequest) (*dto.PreviewPlanResponse, error) {
	if m.previewErr != nil {
		return nil, m.previewErr
	}
	return m.previewResp, nil
}

func (m *plannerServiceMock) Commit(ctx context.Context, studentID string, req dto.CommitPlanRequest) (*dto.CommitPlanResponse, error) {
	if m.commitErr != nil {
		return nil, m.commitErr
	}
	return m.commitResp, nil
}

func (m *plannerServiceMock) Export(ctx context.Context, studentID string, query dto.ExportPlanQuery) (string, string, []byte, error) {
	if m.exportErr != nil {
		return "", "", nil, m.exportErr
	}
	return "study-plan.csv", "text/csv", []byte("header\n"), nil
}

func newPlannerTestContext(t *testing.T, method, target string, body []byte, authed bool) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if authed {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{StudentID: "student-1"})
	}
	return c, w
}

func TestPlannerHandlerPreviewSuccess(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	mock := &plannerServiceMock{previewResp: &dto.PreviewPlanResponse{
		ProposalID: "prop-1",
		Scheduled: []dto.ScheduledItemView{
			{Title: "Research", StartAt: start, EndAt: start.Add(2 * time.Hour)},
		},
		ScheduledCount: 1,
	}}
	handler := &PlannerHandler{service: mock}

	body, _ := json.Marshal(dto.PreviewPlanRequest{
		AssignmentTitle: "History essay",
		Items:           []dto.PlanItemRequest{{Title: "Research"}},
	})
	c, w := newPlannerTestContext(t, http.MethodPost, "/planner/preview", body, true)

	handler.Preview(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prop-1")
}

func TestPlannerHandlerPreviewRequiresAuth(t *testing.T) {
	handler := &PlannerHandler{service: &plannerServiceMock{}}
	c, w := newPlannerTestContext(t, http.MethodPost, "/planner/preview", []byte(`{}`), false)

	handler.Preview(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlannerHandlerPreviewRejectsMalformedBody(t *testing.T) {
	handler := &PlannerHandler{service: &plannerServiceMock{}}
	c, w := newPlannerTestContext(t, http.MethodPost, "/planner/preview", []byte(`not json`), true)

	handler.Preview(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlannerHandlerCommitSuccess(t *testing.T) {
	mock := &plannerServiceMock{commitResp: &dto.CommitPlanResponse{
		TaskID:          "task-1",
		CreatedSubtasks: 2,
		CreatedEvents:   2,
		Message:         "plan saved",
	}}
	handler := &PlannerHandler{service: mock}

	body, _ := json.Marshal(dto.CommitPlanRequest{ProposalID: "prop-1"})
	c, w := newPlannerTestContext(t, http.MethodPost, "/planner/commit", body, true)

	handler.Commit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "task-1")
}

func TestPlannerHandlerCommitExpiredProposal(t *testing.T) {
	mock := &plannerServiceMock{commitErr: appErrors.Clone(appErrors.ErrProposalExpired, "")}
	handler := &PlannerHandler{service: mock}

	body, _ := json.Marshal(dto.CommitPlanRequest{ProposalID: "prop-stale"})
	c, w := newPlannerTestContext(t, http.MethodPost, "/planner/commit", body, true)

	handler.Commit(c)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestPlannerHandlerExportSetsDisposition(t *testing.T) {
	handler := &PlannerHandler{service: &plannerServiceMock{}}
	c, w := newPlannerTestContext(t, http.MethodGet, "/planner/export?proposalId=prop-1", nil, true)

	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="study-plan.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}
