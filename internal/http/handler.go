package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/davidbz/kiln/internal/domain"
	"github.com/davidbz/kiln/internal/feedback"
	"github.com/davidbz/kiln/internal/observability"
)

const maxBodyBytes = 8 << 20

// validatedPayload is a request payload that can check its own schema.
type validatedPayload interface {
	domain.RequestPayload
	Validate() error
}

// completionRoute binds a completion type to its paths and payload schema.
type completionRoute struct {
	completionType domain.CompletionType
	paths          []string
	newPayload     func() validatedPayload
}

//nolint:gochecknoglobals // static route table
var completionRoutes = []completionRoute{
	{
		completionType: domain.CompletionTypeChat,
		paths:          []string{"/v1/chat/completions", "/chat/completion"},
		newPayload:     func() validatedPayload { return &domain.ChatCompletionRequest{} },
	},
	{
		completionType: domain.CompletionTypeCode,
		paths:          []string{"/api/generate", "/code/completion"},
		newPayload:     func() validatedPayload { return &domain.CodingRequest{} },
	},
}

// Handler handles HTTP requests.
type Handler struct {
	completions *domain.CompletionService
	feedback    *feedback.Service
	generators  domain.GeneratorRegistry
	modelName   string
}

// NewHandler creates a new HTTP handler (DI constructor).
func NewHandler(
	completions *domain.CompletionService,
	feedbackService *feedback.Service,
	generators domain.GeneratorRegistry,
	engine domain.Engine,
) *Handler {
	return &Handler{
		completions: completions,
		feedback:    feedbackService,
		generators:  generators,
		modelName:   engine.ModelName(),
	}
}

// HandleCompletion returns the handler serving one completion route.
func (h *Handler) HandleCompletion(route completionRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithCompletionType(r.Context(), string(route.completionType))
		ctx = observability.WithModel(ctx, h.modelName)
		logger := observability.FromContext(ctx)

		payload := route.newPayload()
		if err := decodeJSON(w, r, payload); err != nil {
			logger.Info("rejected completion payload", observability.Error(err))
			writeError(w, r, err)
			return
		}
		if err := payload.Validate(); err != nil {
			logger.Info("rejected completion payload", observability.Error(err))
			writeError(w, r, err)
			return
		}

		response, err := h.completions.Handle(ctx, r.Header.Get("Authorization"), payload)
		if err != nil {
			writeError(w, r.WithContext(ctx), err)
			return
		}

		logger.Info("completion served",
			observability.String("response_id", response.ResponseID()),
			observability.Bool("cached", response.IsCached()))

		writeJSON(w, r, http.StatusOK, response)
	}
}

// HandleGetFeedback returns every feedback counter.
func (h *Handler) HandleGetFeedback(w http.ResponseWriter, r *http.Request) {
	counts, err := h.feedback.Counts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, counts)
}

// HandlePostFeedback counts one feedback report.
func (h *Handler) HandlePostFeedback(w http.ResponseWriter, r *http.Request) {
	var fb feedback.Feedback
	if err := decodeJSON(w, r, &fb); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.feedback.Record(r.Context(), &fb); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, nil)
}

// healthResponse reports liveness and occupancy.
type healthResponse struct {
	Status          string                  `json:"status"`
	Model           string                  `json:"model"`
	CompletionTypes []domain.CompletionType `json:"completion_types"`
	Stats           domain.Stats            `json:"stats"`
}

// HandleHealth handles health check requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	types, err := h.generators.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, healthResponse{
		Status:          "healthy",
		Model:           h.modelName,
		CompletionTypes: types,
		Stats:           h.completions.Stats(),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body: %w", domain.ErrValidation, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes and client-safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized, domain.ErrAuthentication.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, domain.ErrUnsupportedType):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrAdmission):
		return http.StatusTooManyRequests, domain.ErrAdmission.Error()
	case errors.Is(err, domain.ErrRequestTimeout):
		return http.StatusGatewayTimeout, domain.ErrRequestTimeout.Error()
	case errors.Is(err, domain.ErrWorkerStopped):
		return http.StatusServiceUnavailable, domain.ErrWorkerStopped.Error()
	case errors.Is(err, domain.ErrGeneration):
		return http.StatusInternalServerError, domain.GenerationErrorMessage
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)

	logger := observability.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", observability.Int("status", status), observability.Error(err))
	} else {
		logger.Info("request rejected", observability.Int("status", status), observability.Error(err))
	}

	writeJSON(w, r, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Already written status, can't change it, just log.
		observability.FromContext(r.Context()).Error("failed to encode response", observability.Error(err))
	}
}
