package generator

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient は genai.Client を GenerativeClient に適合させるアダプターです。
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient は構築済みの genai.Client を包んで返します。
func NewGeminiClient(client *genai.Client) (*GeminiClient, error) {
	if client == nil {
		return nil, fmt.Errorf("client (genai.Client) is required")
	}
	return &GeminiClient{client: client}, nil
}

// GenerateContent は genai SDK の Models.GenerateContent へ委譲します。
func (c *GeminiClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.client.Models.GenerateContent(ctx, model, contents, config)
}

var _ GenerativeClient = (*GeminiClient)(nil)
