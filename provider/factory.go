package provider

import (
	"strings"

	"github.com/ZaguanLabs/vertrans"
)

// Backend names accepted by FactoryConfig.
const (
	BackendDeepL  = "deepl"
	BackendOpenAI = "openai"
)

// FactoryConfig selects and tunes the providers built from settings.
type FactoryConfig struct {
	Backend string // "deepl" (default) or "openai"

	// OpenAI settings. The API key stored in the translation settings is
	// used when OpenAIKey is empty.
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	RequestsPerMinute   int                   // Shared request budget (default 60)
	CharactersPerMinute int                   // Shared character budget (0 = unlimited)
	Retry               *vertrans.RetryConfig // Retry policy (default: vertrans.DefaultRetryConfig)
}

// NewFactory returns a ProviderFactory that builds a retrying, rate limited
// provider from the current settings on every call. All providers it builds
// share one rate limiter.
func NewFactory(cfg FactoryConfig) vertrans.ProviderFactory {
	limiter := vertrans.NewRateLimiter(vertrans.RateLimitConfig{
		RequestsPerMinute:   cfg.RequestsPerMinute,
		CharactersPerMinute: cfg.CharactersPerMinute,
	})
	retry := vertrans.DefaultRetryConfig()
	if cfg.Retry != nil {
		retry = *cfg.Retry
	}

	return func(settings vertrans.Settings) (vertrans.Provider, error) {
		var base vertrans.Provider

		switch strings.ToLower(cfg.Backend) {
		case "", BackendDeepL:
			if strings.TrimSpace(settings.APIKey) == "" {
				return nil, &vertrans.ConfigurationError{Message: "translation API key not configured"}
			}
			base = NewDeepL(DeepLConfig{APIKey: settings.APIKey, BaseURL: settings.APIURL})
		case BackendOpenAI:
			key := cfg.OpenAIKey
			if key == "" {
				key = settings.APIKey
			}
			if strings.TrimSpace(key) == "" {
				return nil, &vertrans.ConfigurationError{Message: "OpenAI API key not configured"}
			}
			base = NewOpenAIProvider(OpenAIConfig{APIKey: key, Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL})
		default:
			return nil, &vertrans.ConfigurationError{Message: "unknown provider backend " + cfg.Backend}
		}

		// Every attempt, retries included, draws from the shared budget
		return vertrans.NewRetryableProvider(vertrans.NewRateLimitedProviderWithLimiter(base, limiter), retry), nil
	}
}
