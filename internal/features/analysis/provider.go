package analysis

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Provider — абстракция над языковой моделью. В продакшене это Gemini,
// в тестах подставляется заглушка.
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini — провайдер на базе Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini создаёт клиент Gemini. model — имя модели, например "gemini-2.5-pro".
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("создание клиента Gemini: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("запрос к Gemini: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("пустой ответ модели %s", g.model)
	}
	return text, nil
}
