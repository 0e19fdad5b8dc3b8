package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/ZaguanLabs/vertrans"
	"github.com/bounoable/deepl"
)

// DeepLFreeURL is the API endpoint for DeepL free-tier keys.
const DeepLFreeURL = "https://api-free.deepl.com/v2"

// DeepLClient is an interface for *deepl.Client.
type DeepLClient interface {
	Translate(
		ctx context.Context,
		text string,
		targetLang deepl.Language,
		opts ...deepl.TranslateOption,
	) (string, deepl.Language, error)
}

// DeepLConfig holds configuration for the DeepL provider.
type DeepLConfig struct {
	APIKey  string // DeepL authentication key
	BaseURL string // API endpoint (default: free endpoint for ":fx" keys, pro otherwise)
}

// DeepLProvider implements Provider using the DeepL API.
//
// Formatting is preserved and sentences are only split on punctuation, so
// markup and line breaks of rich-text fields survive translation.
type DeepLProvider struct {
	client DeepLClient
}

// NewDeepL creates a new DeepL provider.
func NewDeepL(cfg DeepLConfig) *DeepLProvider {
	client := deepl.New(cfg.APIKey)

	baseURL := cfg.BaseURL
	if baseURL == "" && strings.HasSuffix(cfg.APIKey, ":fx") {
		baseURL = DeepLFreeURL
	}
	if baseURL != "" {
		deepl.BaseURL(apiBase(baseURL))(client)
	}

	return NewDeepLWithClient(client)
}

// apiBase accepts endpoints with or without the version path, as stored in
// the settings ("https://api-free.deepl.com").
func apiBase(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if !strings.HasSuffix(u, "/v2") {
		u += "/v2"
	}
	return u
}

// NewDeepLWithClient creates a DeepL provider around an existing client.
func NewDeepLWithClient(client DeepLClient) *DeepLProvider {
	return &DeepLProvider{client: client}
}

// Translate translates a single field value.
func (p *DeepLProvider) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", nil
	}

	opts := []deepl.TranslateOption{
		deepl.PreserveFormatting(true),
		deepl.SplitSentences(deepl.SplitNoNewlines),
	}
	if req.SourceLang != "" {
		opts = append(opts, deepl.SourceLang(deepl.Language(vertrans.ProviderLang(req.SourceLang))))
	}

	translated, _, err := p.client.Translate(ctx, req.Text, deepl.Language(vertrans.ProviderLang(req.TargetLang)), opts...)
	if err != nil {
		perr := &vertrans.ProviderError{
			Message:   "DeepL API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
		// 456 is an exhausted character quota and is not retried
		var apiErr deepl.Error
		if errors.As(err, &apiErr) {
			perr.StatusCode = apiErr.Code
			perr.Retryable = vertrans.RetryableStatus(apiErr.Code)
		}
		return "", perr
	}
	return translated, nil
}

// Verify DeepLProvider implements Provider
var _ Provider = (*DeepLProvider)(nil)
