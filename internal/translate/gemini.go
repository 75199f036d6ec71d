package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.5-flash-lite"

// Gemini translates through Google's generative API.
type Gemini struct {
	model *genai.GenerativeModel
}

func NewGemini(ctx context.Context, apiKey, model, target string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	m := client.GenerativeModel(model)
	m.SetTemperature(0.2)
	m.SetMaxOutputTokens(8192)
	m.ResponseMIMEType = "text/plain"
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(translationPrompt(target))},
	}
	return &Gemini{model: m}, nil
}

func (g *Gemini) Translate(ctx context.Context, text string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", errors.Wrap(err, "generate content")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no completion candidates")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		fmt.Fprintf(&b, "%v", part)
	}
	return strings.TrimSpace(b.String()), nil
}
