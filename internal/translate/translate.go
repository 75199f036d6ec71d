// Package translate turns transcript text into another language. The
// default backend is the public Google endpoint; OpenAI-compatible and
// Gemini backends are available for keyed setups.
package translate

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/iamwavecut/tubetool/internal/config"
)

const (
	BackendGoogle = "google"
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

// Translator translates a single piece of text into the target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// New builds the translator selected by cfg.Backend. target is an ISO
// language code such as "pt".
func New(ctx context.Context, cfg config.Translator, target string) (Translator, error) {
	switch strings.ToLower(cfg.Backend) {
	case BackendGoogle, "":
		return NewGoogle(target), nil
	case BackendOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("openai translator requires LLM_API_KEY")
		}
		return NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, target), nil
	case BackendGemini:
		if cfg.APIKey == "" {
			return nil, errors.New("gemini translator requires LLM_API_KEY")
		}
		return NewGemini(ctx, cfg.APIKey, cfg.Model, target)
	default:
		return nil, errors.Errorf("unknown translator backend %q", cfg.Backend)
	}
}
