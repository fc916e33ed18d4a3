package generator

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/davidbz/kiln/internal/domain"
)

const codeIDPrefix = "codecmpl-"

// CodeGenerator serves HuggingFace-style code completions. The prompt is
// passed through untouched and kept in the reply.
type CodeGenerator struct {
	engine domain.Engine
}

// NewCodeGenerator creates a code generator.
func NewCodeGenerator(engine domain.Engine) *CodeGenerator {
	return &CodeGenerator{engine: engine}
}

// CompletionType implements domain.Generator.
func (g *CodeGenerator) CompletionType() domain.CompletionType {
	return domain.CompletionTypeCode
}

// Generate implements domain.Generator.
func (g *CodeGenerator) Generate(ctx context.Context, payload domain.RequestPayload) (domain.APIResponse, error) {
	req, ok := payload.(*domain.CodingRequest)
	if !ok {
		return nil, fmt.Errorf("%w: code generator cannot serve %T", domain.ErrValidation, payload)
	}

	params, criteria := g.GenerationConfig(req)

	generation, err := invoke(ctx, "code", func() (*domain.Generation, error) {
		return g.engine.Generate(ctx, req.Inputs, params, domain.GenerateOptions{
			StoppingCriteria:      criteria,
			RemovePromptFromReply: false,
		})
	})
	if err != nil {
		return nil, err
	}

	return g.BuildDefaultResponse(generation.Text, http.StatusOK), nil
}

// BuildDefaultResponse implements domain.Generator.
func (g *CodeGenerator) BuildDefaultResponse(message string, status int) domain.APIResponse {
	return &domain.CodingResponse{
		ID:            codeIDPrefix + uuid.New().String(),
		Status:        status,
		GeneratedText: message,
		Cached:        false,
	}
}

// GenerationConfig splits coding parameters into scalar engine parameters and
// stopping criteria. A non-empty stop list becomes stopping criteria and is
// removed from the scalars; a null or empty one stays in the scalars as is.
func (g *CodeGenerator) GenerationConfig(req *domain.CodingRequest) (domain.GenerationParams, *domain.StoppingCriteria) {
	coding := domain.DefaultCodingParameters()
	if req.Parameters != nil {
		coding = *req.Parameters
	}

	params := domain.GenerationParams{
		"max_new_tokens": optional(coding.MaxNewTokens),
		"temperature":    optional(coding.Temperature),
		"do_sample":      optional(coding.DoSample),
		"top_p":          optional(coding.TopP),
	}

	if len(coding.Stop) > 0 {
		return params, g.engine.StoppingCriteria(coding.Stop)
	}

	if coding.Stop == nil {
		params["stop"] = nil
	} else {
		params["stop"] = coding.Stop
	}

	return params, nil
}
