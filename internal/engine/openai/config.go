package openai

// Config contains remote engine configuration.
// All fields map to OpenAI SDK options:
//   - APIKey: Maps to option.WithAPIKey()
//   - BaseURL: Maps to option.WithBaseURL()
//   - Timeout: Maps to option.WithRequestTimeout() (in seconds)
//   - MaxRetries: Maps to option.WithMaxRetries()
//
// Model names the model on the remote server. When empty the served model
// name is used.
type Config struct {
	BaseURL    string `env:"ENGINE_BASE_URL"`
	APIKey     string `env:"ENGINE_API_KEY"`
	Model      string `env:"ENGINE_MODEL"`
	Timeout    int    `env:"ENGINE_TIMEOUT"     envDefault:"300"`
	MaxRetries int    `env:"ENGINE_MAX_RETRIES" envDefault:"0"`
}

// Enabled reports whether a remote server is configured.
func (c Config) Enabled() bool {
	return c.BaseURL != ""
}
