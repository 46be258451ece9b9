package rag_http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cloudsec-orchestrator/internal/adapter/rag_http"
	"cloudsec-orchestrator/internal/domain"
	"cloudsec-orchestrator/internal/usecase"
)

type mockPipeline struct {
	mock.Mock
}

func (m *mockPipeline) Execute(ctx context.Context, input usecase.AskInput) (*usecase.AskResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AskResult), args.Error(1)
}

func (m *mockPipeline) Stream(ctx context.Context, input usecase.AskInput) <-chan domain.DeliberationEvent {
	args := m.Called(ctx, input)
	return args.Get(0).(<-chan domain.DeliberationEvent)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(pipeline usecase.AnswerPipeline) *echo.Echo {
	e := echo.New()
	handler := rag_http.NewHandler(pipeline, discardLogger())
	handler.RegisterRoutes(e)
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func eventStream(events ...domain.DeliberationEvent) <-chan domain.DeliberationEvent {
	ch := make(chan domain.DeliberationEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestHealth(t *testing.T) {
	e := newTestServer(new(mockPipeline))

	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestAsk_ReturnsAnswerAndSources(t *testing.T) {
	pipeline := new(mockPipeline)
	pipeline.On("Execute", mock.Anything, usecase.AskInput{
		Query:    "How do I restrict S3 access?",
		Provider: domain.ProviderAWS,
		TopK:     3,
	}).Return(&usecase.AskResult{
		Answer: "Use a bucket policy with least privilege.",
		Sources: []domain.ChunkMetadata{
			{SourceURL: "https://docs.example.com/s3", Title: "S3 Guide", Provider: domain.ProviderAWS},
		},
	}, nil)

	e := newTestServer(pipeline)
	rec := postJSON(e, "/v1/ask", `{"query":"How do I restrict S3 access?","provider":"aws","top_k":3}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Answer  string `json:"answer"`
		Sources []struct {
			SourceURL string `json:"source_url"`
			Title     string `json:"title"`
			Provider  string `json:"provider"`
		} `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Use a bucket policy with least privilege.", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "S3 Guide", resp.Sources[0].Title)
	assert.Equal(t, "aws", resp.Sources[0].Provider)
	pipeline.AssertExpectations(t)
}

func TestAsk_SmallTalkSkipsPipeline(t *testing.T) {
	pipeline := new(mockPipeline)
	e := newTestServer(pipeline)

	rec := postJSON(e, "/v1/ask", `{"query":"Hello!"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cloud Security Assistant")
	pipeline.AssertNotCalled(t, "Execute")
}

func TestAsk_PipelineFailure(t *testing.T) {
	pipeline := new(mockPipeline)
	pipeline.On("Execute", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	e := newTestServer(pipeline)
	rec := postJSON(e, "/v1/ask", `{"query":"How do I restrict access?"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestAskStream_WritesOneEventPerLine(t *testing.T) {
	pipeline := new(mockPipeline)
	pipeline.On("Stream", mock.Anything, mock.Anything).Return(eventStream(
		domain.DeliberationEvent{Phase: domain.PhaseMetadata, Sources: []domain.ChunkMetadata{{Title: "Doc"}}},
		domain.DeliberationEvent{Phase: domain.PhaseAnalyst, Status: domain.StatusThinking},
		domain.DeliberationEvent{Phase: domain.PhaseAnalyst, Delta: "token"},
		domain.DeliberationEvent{Phase: domain.PhaseArbiter, Status: domain.StatusCompleted, Content: "final"},
	))

	e := newTestServer(pipeline)
	rec := postJSON(e, "/v1/ask/stream", `{"query":"How do I restrict access?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get(echo.HeaderContentType))

	var lines []domain.DeliberationEvent
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		var ev domain.DeliberationEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		lines = append(lines, ev)
	}

	require.Len(t, lines, 4)
	assert.Equal(t, domain.PhaseMetadata, lines[0].Phase)
	assert.Equal(t, "token", lines[2].Delta)
	assert.Equal(t, domain.StatusCompleted, lines[3].Status)
	assert.Equal(t, "final", lines[3].Content)
}

func TestAskStream_SmallTalk(t *testing.T) {
	pipeline := new(mockPipeline)
	e := newTestServer(pipeline)

	rec := postJSON(e, "/v1/ask/stream", `{"query":"good morning"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var ev domain.DeliberationEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, domain.PhaseSmallTalk, ev.Phase)
	assert.Equal(t, domain.StatusCompleted, ev.Status)
	assert.NotEmpty(t, ev.Content)
	pipeline.AssertNotCalled(t, "Stream")
}

func TestRequestValidator_RejectsMissingQuery(t *testing.T) {
	e := newTestServer(new(mockPipeline))
	validator, err := rag_http.NewRequestValidator()
	require.NoError(t, err)
	e.Use(validator)

	rec := postJSON(e, "/v1/ask", `{"provider":"aws"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestValidator_RejectsUnknownProvider(t *testing.T) {
	e := newTestServer(new(mockPipeline))
	validator, err := rag_http.NewRequestValidator()
	require.NoError(t, err)
	e.Use(validator)

	rec := postJSON(e, "/v1/ask", `{"query":"How do I restrict access?","provider":"oracle"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestValidator_PassesValidRequest(t *testing.T) {
	pipeline := new(mockPipeline)
	pipeline.On("Execute", mock.Anything, mock.Anything).Return(&usecase.AskResult{Answer: "ok"}, nil)

	e := newTestServer(pipeline)
	validator, err := rag_http.NewRequestValidator()
	require.NoError(t, err)
	e.Use(validator)

	rec := postJSON(e, "/v1/ask", `{"query":"How do I restrict access?","provider":"aws"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
