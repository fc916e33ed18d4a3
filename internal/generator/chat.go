package generator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/davidbz/kiln/internal/domain"
)

const (
	messagePrefix = "### "

	// The LLaMA tokenizer used by vicuna models splits "\n###" into "\n", "##", "#".
	vicunaMarker   = "vicuna"
	vicunaStopword = "\n##"

	chatIDPrefix     = "chatcmpl-"
	chatObject       = "chat.completion"
	assistantRole    = "assistant"
	finishReasonStop = "stop"
)

// ChatGenerator serves OpenAI-style chat completions.
type ChatGenerator struct {
	engine domain.Engine
}

// NewChatGenerator creates a chat generator and registers the stopword that
// ends an assistant turn for the engine's model family.
func NewChatGenerator(engine domain.Engine) *ChatGenerator {
	if strings.Contains(engine.ModelName(), vicunaMarker) {
		engine.AddStopwords(vicunaStopword)
	} else {
		engine.AddStopwords(strings.TrimSpace(messagePrefix))
	}

	return &ChatGenerator{engine: engine}
}

// CompletionType implements domain.Generator.
func (g *ChatGenerator) CompletionType() domain.CompletionType {
	return domain.CompletionTypeChat
}

// Generate implements domain.Generator.
func (g *ChatGenerator) Generate(ctx context.Context, payload domain.RequestPayload) (domain.APIResponse, error) {
	req, ok := payload.(*domain.ChatCompletionRequest)
	if !ok {
		return nil, fmt.Errorf("%w: chat generator cannot serve %T", domain.ErrValidation, payload)
	}

	prompt := BuildChatPrompt(req.Messages)
	params := ChatGenerationParams(req)

	generation, err := invoke(ctx, "chat", func() (*domain.Generation, error) {
		return g.engine.Generate(ctx, prompt, params, domain.GenerateOptions{
			StoppingCriteria:      nil,
			RemovePromptFromReply: true,
		})
	})
	if err != nil {
		return nil, err
	}

	answer := strings.TrimLeftFunc(generation.Text, unicode.IsSpace)
	usage := domain.NewUsage(generation.PromptTokens, generation.CompletionTokens)

	return &domain.ChatCompletionResponse{
		ID:      chatIDPrefix + uuid.New().String(),
		Object:  chatObject,
		Created: time.Now().Unix(),
		Model:   g.engine.ModelName(),
		Choices: []domain.ChatCompletionChoice{
			{
				Index:        0,
				Message:      domain.ChatMessage{Role: assistantRole, Content: answer, Name: nil},
				FinishReason: finishReasonStop,
			},
		},
		Usage:  usage,
		Cached: false,
	}, nil
}

// BuildDefaultResponse implements domain.Generator. The status doubles as
// identifier and the message is carried in the model field.
func (g *ChatGenerator) BuildDefaultResponse(message string, status int) domain.APIResponse {
	return &domain.ChatCompletionResponse{
		ID:      strconv.Itoa(status),
		Object:  chatObject,
		Created: time.Now().Unix(),
		Model:   message,
		Choices: []domain.ChatCompletionChoice{},
		Usage:   domain.NewUsage(0, 0),
		Cached:  false,
	}
}

// BuildChatPrompt renders messages as "### role: content" lines followed by
// the assistant continuation marker.
func BuildChatPrompt(messages []domain.ChatMessage) string {
	lines := make([]string, 0, len(messages)+1)
	for _, msg := range messages {
		lines = append(lines, messagePrefix+msg.Role+": "+msg.Content)
	}
	lines = append(lines, messagePrefix+assistantRole+":")

	return strings.Join(lines, "\n")
}

// ChatGenerationParams maps chat sampling fields onto engine parameter names.
func ChatGenerationParams(req *domain.ChatCompletionRequest) domain.GenerationParams {
	return domain.GenerationParams{
		"temperature":    optional(req.Temperature),
		"top_p":          optional(req.TopP),
		"max_new_tokens": optional(req.MaxTokens),
	}
}
