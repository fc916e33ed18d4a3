package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// CompletionType selects payload schema, response schema and generator.
type CompletionType string

const (
	CompletionTypeChat CompletionType = "chat"
	CompletionTypeCode CompletionType = "code"
)

// CompletionTypes lists every supported completion type.
func CompletionTypes() []CompletionType {
	return []CompletionType{CompletionTypeChat, CompletionTypeCode}
}

// ParseCompletionType resolves a configured completion type name.
func ParseCompletionType(value string) (CompletionType, error) {
	switch CompletionType(strings.ToLower(strings.TrimSpace(value))) {
	case CompletionTypeChat:
		return CompletionTypeChat, nil
	case CompletionTypeCode:
		return CompletionTypeCode, nil
	default:
		return "", fmt.Errorf("%w: unknown completion type %q", ErrConfiguration, value)
	}
}

// Fingerprint identifies requests that share one generation.
type Fingerprint string

// shortDigestLen is the number of hex digits kept by Fingerprint.Short.
const shortDigestLen = 16

// Short returns "<type>:<digest>" for logs. Code fingerprints embed the raw
// inputs, which must not reach the log sink.
func (f Fingerprint) Short() string {
	sum := sha256.Sum256([]byte(f))
	digest := hex.EncodeToString(sum[:])[:shortDigestLen]

	if completionType, _, found := strings.Cut(string(f), ":"); found {
		return completionType + ":" + digest
	}
	return digest
}

// RequestPayload is a completion request of any completion type.
type RequestPayload interface {
	// Key derives the fingerprint from generation-affecting fields.
	Key() Fingerprint

	// CompletionType reports which generator serves the payload.
	CompletionType() CompletionType
}

// APIResponse is a completion response of any completion type.
type APIResponse interface {
	// ResponseID returns the response identifier.
	ResponseID() string

	// IsCached reports whether the response was served from the cache.
	IsCached() bool

	// WithCached returns a copy of the response carrying the given cached flag.
	WithCached(cached bool) APIResponse
}

// Default sampling values, matching the OpenAI and HuggingFace conventions.
const (
	DefaultChatMaxTokens    = 16
	DefaultTemperature      = 1.0
	DefaultTopP             = 1.0
	DefaultCodeMaxNewTokens = 50
	DefaultCodeDoSample     = false
)

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Name    *string `json:"name,omitempty"`
}

// ChatCompletionRequest is the OpenAI chat completion payload.
//
// Sampling fields are pointers so an explicit null can be told apart from an
// absent field, which receives the default.
type ChatCompletionRequest struct {
	Model            string             `json:"model"`
	Messages         []ChatMessage      `json:"messages"`
	MaxTokens        *int               `json:"max_tokens"`
	Temperature      *float64           `json:"temperature"`
	TopP             *float64           `json:"top_p"`
	Stop             []string           `json:"stop,omitempty"`
	User             *string            `json:"user,omitempty"`
	N                *float64           `json:"n,omitempty"`
	Stream           bool               `json:"stream,omitempty"`
	PresencePenalty  *float64           `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64           `json:"frequency_penalty,omitempty"`
	LogitBias        map[string]float64 `json:"logit_bias,omitempty"`
}

// UnmarshalJSON applies defaults for absent sampling fields.
func (r *ChatCompletionRequest) UnmarshalJSON(data []byte) error {
	type plain ChatCompletionRequest

	maxTokens := DefaultChatMaxTokens
	temperature := DefaultTemperature
	topP := DefaultTopP

	decoded := plain{
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		TopP:        &topP,
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*r = ChatCompletionRequest(decoded)
	return nil
}

// Validate checks the fields the generator depends on.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return fmt.Errorf("%w: model is required", ErrValidation)
	}
	for i, msg := range r.Messages {
		if msg.Role == "" {
			return fmt.Errorf("%w: messages[%d].role is required", ErrValidation, i)
		}
	}
	return nil
}

// CompletionType implements RequestPayload.
func (r *ChatCompletionRequest) CompletionType() CompletionType {
	return CompletionTypeChat
}

// CodingParameters are the HuggingFace text-generation parameters.
type CodingParameters struct {
	MaxNewTokens *int     `json:"max_new_tokens"`
	Temperature  *float64 `json:"temperature"`
	DoSample     *bool    `json:"do_sample"`
	TopP         *float64 `json:"top_p"`
	Stop         []string `json:"stop"`
}

// DefaultCodingParameters returns the parameters used when a request carries none.
func DefaultCodingParameters() CodingParameters {
	maxNewTokens := DefaultCodeMaxNewTokens
	temperature := DefaultTemperature
	doSample := DefaultCodeDoSample
	topP := DefaultTopP

	return CodingParameters{
		MaxNewTokens: &maxNewTokens,
		Temperature:  &temperature,
		DoSample:     &doSample,
		TopP:         &topP,
		Stop:         nil,
	}
}

// UnmarshalJSON applies defaults for absent fields.
func (p *CodingParameters) UnmarshalJSON(data []byte) error {
	type plain CodingParameters

	decoded := plain(DefaultCodingParameters())
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*p = CodingParameters(decoded)
	return nil
}

// CodingRequest is the HuggingFace-style code completion payload.
type CodingRequest struct {
	Inputs     string            `json:"inputs"`
	Parameters *CodingParameters `json:"parameters,omitempty"`
}

// Validate checks the fields the generator depends on.
func (r *CodingRequest) Validate() error {
	if r.Inputs == "" {
		return fmt.Errorf("%w: inputs is required", ErrValidation)
	}
	return nil
}

// CompletionType implements RequestPayload.
func (r *CodingRequest) CompletionType() CompletionType {
	return CompletionTypeCode
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage builds a Usage whose total is the sum of both counts.
func NewUsage(promptTokens, completionTokens int) Usage {
	return Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}

// ChatCompletionChoice is a single generated chat message.
type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// ChatCompletionResponse is the OpenAI chat completion response.
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   Usage                  `json:"usage"`
	Cached  bool                   `json:"cached"`
}

// ResponseID implements APIResponse.
func (r *ChatCompletionResponse) ResponseID() string { return r.ID }

// IsCached implements APIResponse.
func (r *ChatCompletionResponse) IsCached() bool { return r.Cached }

// WithCached implements APIResponse.
func (r *ChatCompletionResponse) WithCached(cached bool) APIResponse {
	clone := *r
	clone.Choices = append([]ChatCompletionChoice(nil), r.Choices...)
	clone.Cached = cached
	return &clone
}

// CodingResponse is the code completion response.
type CodingResponse struct {
	ID            string `json:"id"`
	Status        int    `json:"status"`
	GeneratedText string `json:"generated_text"`
	Cached        bool   `json:"cached"`
}

// ResponseID implements APIResponse.
func (r *CodingResponse) ResponseID() string { return r.ID }

// IsCached implements APIResponse.
func (r *CodingResponse) IsCached() bool { return r.Cached }

// WithCached implements APIResponse.
func (r *CodingResponse) WithCached(cached bool) APIResponse {
	clone := *r
	clone.Cached = cached
	return &clone
}
