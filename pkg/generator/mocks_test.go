package generator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/genai"
)

// --- Mocks ---

type mockClient struct {
	calls        atomic.Int32
	generateFunc func(call int, ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	call := int(m.calls.Add(1))
	return m.generateFunc(call, ctx, model, contents, config)
}

// recordingSleeper は遅延を記録するだけで実際には眠りません。
type recordingSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *recordingSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// scaledSleeper は遅延を記録しつつ、1/100 に圧縮して実際に眠ります。
// スタッガーの起動順だけをテストで再現するために使います。
type scaledSleeper struct {
	recordingSleeper
}

func (s *scaledSleeper) sleep(ctx context.Context, d time.Duration) error {
	_ = s.recordingSleeper.sleep(ctx, d)
	time.Sleep(d / 100)
	return nil
}

// --- Response builders ---

func imageResponse(data []byte, mimeType string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			FinishReason: genai.FinishReasonStop,
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: text}},
			},
		}},
	}
}

func finishResponse(reason genai.FinishReason) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: reason}},
	}
}
