package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const answerTimeout = 30 * time.Second

var ErrEmptyResponse = errors.New("model returned no content")

// GeminiAnswerer answers questions from context passages with a Gemini model
type GeminiAnswerer struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiAnswerer(ctx context.Context, apiKey, modelName string) (*GeminiAnswerer, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	model.SetTopP(0.9)

	return &GeminiAnswerer{
		client: client,
		model:  model,
	}, nil
}

// Answer asks the model to answer question using only contexts
func (g *GeminiAnswerer) Answer(ctx context.Context, question string, contexts []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(question, contexts)))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			answer.WriteString(string(text))
		}
	}
	if answer.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(answer.String()), nil
}

func (g *GeminiAnswerer) Close() error {
	return g.client.Close()
}

// BuildPrompt lays out the context passages followed by the question
func BuildPrompt(question string, contexts []string) string {
	var b strings.Builder
	b.WriteString("Use the following pieces of context to answer the query at the end.\n")
	b.WriteString("If you don't know the answer, just say that you don't know, don't try to make up an answer.\n")
	b.WriteString("Keep the answer short enough for a WhatsApp message.\n\n")

	for i, c := range contexts {
		fmt.Fprintf(&b, "Context %d:\n%s\n\n", i+1, c)
	}

	fmt.Fprintf(&b, "Query: %s\nHelpful Answer:", question)
	return b.String()
}
