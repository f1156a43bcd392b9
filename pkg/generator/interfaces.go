package generator

import (
	"context"

	"google.golang.org/genai"
)

// GenerativeClient は Gemini API との通信を抽象化するインターフェースです。
type GenerativeClient interface {
	// GenerateContent は、指定されたモデルとコンテンツで生成リクエストを実行し、生のレスポンスを返します。
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}
