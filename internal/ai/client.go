// Package ai implements the hosted-model components of the triage pipeline:
// report classification, text embeddings and embedding-based duplicate
// detection.
package ai

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// chatClient is the slice of the OpenAI client the classifier needs.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// embeddingClient is the slice of the OpenAI client the embedder needs.
type embeddingClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// NewOpenAIClient builds the shared OpenAI client from the environment.
// The key is read from OPENAI_API_KEY, or from the container secret path as a
// fallback.
func NewOpenAIClient() (*openai.Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err != nil {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set and secret not found at %s", secretPath)
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
	}
	return openai.NewClient(apiKey), nil
}
