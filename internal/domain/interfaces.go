package domain

import "context"

// GenerationParams are the scalar sampling parameters handed to the engine.
// A nil value means the client explicitly sent null.
type GenerationParams map[string]any

// StoppingCriteria halts generation when any sequence is produced.
type StoppingCriteria struct {
	Sequences []string
}

// GenerateOptions tune a single engine call.
type GenerateOptions struct {
	StoppingCriteria      *StoppingCriteria
	RemovePromptFromReply bool
}

// Generation is the raw engine result.
type Generation struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Engine is the single loaded language model. It is not safe for concurrent
// generation; only the admission worker calls Generate.
type Engine interface {
	// ModelName returns the model identifier.
	ModelName() string

	// Generate runs one synchronous generation.
	Generate(ctx context.Context, prompt string, params GenerationParams, opts GenerateOptions) (*Generation, error)

	// AddStopwords registers sequences that end every generation.
	AddStopwords(words ...string)

	// StoppingCriteria builds engine stopping criteria for one generation.
	StoppingCriteria(words []string) *StoppingCriteria
}

// Generator turns a typed payload into an engine call and back.
type Generator interface {
	// CompletionType reports the payload type the generator serves.
	CompletionType() CompletionType

	// Generate produces a fresh response. Failures are ErrGeneration.
	Generate(ctx context.Context, payload RequestPayload) (APIResponse, error)

	// BuildDefaultResponse builds a response carrying only a message and status.
	BuildDefaultResponse(message string, status int) APIResponse
}

// GeneratorRegistry resolves the generator for a completion type.
type GeneratorRegistry interface {
	// Register adds a generator.
	Register(ctx context.Context, generator Generator) error

	// Get retrieves the generator for a completion type.
	Get(ctx context.Context, completionType CompletionType) (Generator, error)

	// List returns the registered completion types.
	List(ctx context.Context) ([]CompletionType, error)
}
