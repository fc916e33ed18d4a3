package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/kiln/internal/config"
	"github.com/davidbz/kiln/internal/domain"
	"github.com/davidbz/kiln/internal/engine/echo"
	"github.com/davidbz/kiln/internal/feedback"
	"github.com/davidbz/kiln/internal/generator"
	kilnhttp "github.com/davidbz/kiln/internal/http"
	"github.com/davidbz/kiln/internal/http/middleware"
)

const validToken = "Bearer sk-abc"

type testServer struct {
	routes http.Handler
	engine *echo.Engine
}

func newTestServer(t *testing.T, completionTypes ...domain.CompletionType) *testServer {
	t.Helper()

	if len(completionTypes) == 0 {
		completionTypes = domain.CompletionTypes()
	}

	ctx, cancel := context.WithCancel(context.Background())

	engine := echo.NewEngine("llama-7b")
	registry, err := generator.BuildRegistry(ctx, engine, completionTypes)
	require.NoError(t, err)

	cache, err := domain.NewResponseCache(16)
	require.NoError(t, err)

	queueCfg := &domain.QueueConfig{Capacity: 8}
	queue, err := domain.NewAdmissionQueue(queueCfg, cache, registry)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = queue.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	guard := domain.NewAuthGuard("sk-")
	service := domain.NewCompletionService(guard, cache, queue, registry, queueCfg)

	feedbackService, err := feedback.NewService(feedback.NewMemoryStore())
	require.NoError(t, err)

	handler := kilnhttp.NewHandler(service, feedbackService, registry, engine)
	set := middleware.BuildMiddlewareSet(&config.CORSConfig{AllowedOrigins: []string{"*"}}, nil, guard)
	server := kilnhttp.NewServer(&config.ServerConfig{Host: "127.0.0.1", Port: 8000}, handler, set)

	routes, err := server.Routes(ctx)
	require.NoError(t, err)

	return &testServer{routes: routes, engine: engine}
}

func (s *testServer) do(t *testing.T, method, path, authorization, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rec := httptest.NewRecorder()
	s.routes.ServeHTTP(rec, req)
	return rec
}

const chatBody = `{"model":"llama-7b","messages":[{"role":"user","content":"Hi"}]}`

func TestChatCompletion_EndToEndWithCachedRepeat(t *testing.T) {
	server := newTestServer(t)

	first := server.do(t, http.MethodPost, "/v1/chat/completions", validToken, chatBody)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())

	var firstResp domain.ChatCompletionResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
	require.False(t, firstResp.Cached)
	require.Equal(t, "chat.completion", firstResp.Object)
	require.Equal(t, "llama-7b", firstResp.Model)
	require.Len(t, firstResp.Choices, 1)
	require.Equal(t, "assistant", firstResp.Choices[0].Message.Role)
	require.Equal(t, "user: Hi assistant:", firstResp.Choices[0].Message.Content)
	require.Equal(t, "stop", firstResp.Choices[0].FinishReason)
	require.Equal(t, 5, firstResp.Usage.PromptTokens)
	require.Equal(t, 3, firstResp.Usage.CompletionTokens)
	require.Equal(t, 8, firstResp.Usage.TotalTokens)

	// Sampling fields do not change the fingerprint; the legacy path shares the cache.
	repeat := `{"model":"llama-7b","messages":[{"role":"user","content":"Hi"}],"temperature":0.1}`
	second := server.do(t, http.MethodPost, "/chat/completion", "Bearer sk-other", repeat)
	require.Equal(t, http.StatusOK, second.Code, second.Body.String())

	var secondResp domain.ChatCompletionResponse
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
	require.True(t, secondResp.Cached)
	require.Equal(t, firstResp.ID, secondResp.ID)
	require.Equal(t, firstResp.Choices, secondResp.Choices)

	require.EqualValues(t, 1, server.engine.Calls())
}

func TestCodeCompletion_KeepsPrompt(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/api/generate", validToken,
		`{"inputs":"def f(): return 1","parameters":{"max_new_tokens":2}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp domain.CodingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, http.StatusOK, resp.Status)
	require.Equal(t, "def f(): return 1 def f():", resp.GeneratedText)
	require.False(t, resp.Cached)

	again := server.do(t, http.MethodPost, "/code/completion", validToken,
		`{"inputs":"def f(): return 1","parameters":{"max_new_tokens":2}}`)
	require.Equal(t, http.StatusOK, again.Code)
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &resp))
	require.True(t, resp.Cached)
}

func TestCompletion_Errors(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name          string
		path          string
		authorization string
		body          string
		wantStatus    int
		wantDetail    string
	}{
		{
			name:          "wrong scheme",
			path:          "/v1/chat/completions",
			authorization: "Basic sk-abc",
			body:          chatBody,
			wantStatus:    http.StatusUnauthorized,
			wantDetail:    "Invalid bearer token",
		},
		{
			name:          "wrong prefix",
			path:          "/api/generate",
			authorization: "Bearer wrong-abc",
			body:          `{"inputs":"x"}`,
			wantStatus:    http.StatusUnauthorized,
			wantDetail:    "Invalid bearer token",
		},
		{
			name:          "malformed json",
			path:          "/v1/chat/completions",
			authorization: validToken,
			body:          `{"model":`,
			wantStatus:    http.StatusUnprocessableEntity,
		},
		{
			name:          "missing model",
			path:          "/v1/chat/completions",
			authorization: validToken,
			body:          `{"messages":[]}`,
			wantStatus:    http.StatusUnprocessableEntity,
		},
		{
			name:          "missing inputs",
			path:          "/api/generate",
			authorization: validToken,
			body:          `{}`,
			wantStatus:    http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := server.do(t, http.MethodPost, tt.path, tt.authorization, tt.body)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotEmpty(t, body["detail"])
			if tt.wantDetail != "" {
				require.Equal(t, tt.wantDetail, body["detail"])
			}
		})
	}

	require.Zero(t, server.engine.Calls())
}

func TestCompletion_InactiveTypeIsNotRouted(t *testing.T) {
	server := newTestServer(t, domain.CompletionTypeCode)

	rec := server.do(t, http.MethodPost, "/v1/chat/completions", validToken, chatBody)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = server.do(t, http.MethodPost, "/api/generate", validToken, `{"inputs":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCompletion_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/v1/chat/completions", validToken, "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestFeedback(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodPost, "/feedback/", validToken,
		`{"client_name":"vscode","client_version":"1.2.0","success":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = server.do(t, http.MethodPost, "/feedback/", validToken,
		`{"client_name":"vscode","client_version":"1.2.0","success":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = server.do(t, http.MethodGet, "/feedback/", validToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"vscode__1.2.0__True":1,"vscode__1.2.0__False":1}`, rec.Body.String())

	rec = server.do(t, http.MethodGet, "/feedback/", "Bearer nope", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"detail":"Invalid bearer token"}`, rec.Body.String())

	rec = server.do(t, http.MethodPost, "/feedback/", validToken, `{"client_name":"vscode"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	rec := server.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status          string       `json:"status"`
		Model           string       `json:"model"`
		CompletionTypes []string     `json:"completion_types"`
		Stats           domain.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "healthy", body.Status)
	require.Equal(t, "llama-7b", body.Model)
	require.Equal(t, []string{"chat", "code"}, body.CompletionTypes)
	require.Equal(t, 8, body.Stats.QueueCapacity)
}
