package rag_http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"cloudsec-orchestrator/internal/domain"
	"cloudsec-orchestrator/internal/usecase"
)

type askRequest struct {
	Query          string `json:"query"`
	Provider       string `json:"provider"`
	TopK           int    `json:"top_k"`
	GenerateReport bool   `json:"generate_report"`
}

type sourceResponse struct {
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
	Provider  string `json:"provider"`
}

type askResponse struct {
	Answer  string           `json:"answer"`
	Sources []sourceResponse `json:"sources"`
}

type Handler struct {
	pipeline usecase.AnswerPipeline
	logger   *slog.Logger
}

func NewHandler(pipeline usecase.AnswerPipeline, logger *slog.Logger) *Handler {
	return &Handler{pipeline: pipeline, logger: logger}
}

// RegisterRoutes attaches the public endpoints to the echo instance.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/v1/health", h.Health)
	e.POST("/v1/ask", h.Ask)
	e.POST("/v1/ask/stream", h.AskStream)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Ask runs the full pipeline and returns the final answer in one response.
func (h *Handler) Ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if isSmallTalk(req.Query) {
		return c.JSON(http.StatusOK, askResponse{
			Answer:  smallTalkReply,
			Sources: []sourceResponse{},
		})
	}

	provider, ok := domain.ParseProvider(req.Provider)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown provider"})
	}

	result, err := h.pipeline.Execute(c.Request().Context(), usecase.AskInput{
		Query:    req.Query,
		Provider: provider,
		TopK:     req.TopK,
	})
	if err != nil {
		h.logger.Error("ask_failed", slog.String("error", err.Error()))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to process query"})
	}

	sources := make([]sourceResponse, 0, len(result.Sources))
	for _, s := range result.Sources {
		sources = append(sources, sourceResponse{
			SourceURL: s.SourceURL,
			Title:     s.Title,
			Provider:  string(s.Provider),
		})
	}

	return c.JSON(http.StatusOK, askResponse{
		Answer:  result.Answer,
		Sources: sources,
	})
}

// AskStream runs the pipeline and writes each deliberation event as one JSON
// line, flushing after every event so clients see tokens as they arrive.
// Writing stops as soon as the client disconnects.
func (h *Handler) AskStream(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	provider, ok := domain.ParseProvider(req.Provider)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown provider"})
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(resp)

	if isSmallTalk(req.Query) {
		_ = enc.Encode(domain.DeliberationEvent{
			Phase:   domain.PhaseSmallTalk,
			Status:  domain.StatusCompleted,
			Content: smallTalkReply,
		})
		resp.Flush()
		return nil
	}

	ctx := c.Request().Context()
	events := h.pipeline.Stream(ctx, usecase.AskInput{
		Query:    req.Query,
		Provider: provider,
		TopK:     req.TopK,
	})

	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			h.logger.Debug("stream_client_gone", slog.String("error", err.Error()))
			break
		}
		resp.Flush()
	}
	return nil
}
