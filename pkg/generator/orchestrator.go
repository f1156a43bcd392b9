package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

// Orchestrator はコンパイル済みの生成指示と正規化済み画像から、
// N 並列の生成リクエストを発行して結果を揃えるコンポーネントです。
// クライアントと構成は生成時に明示的に注入します。
type Orchestrator struct {
	client         GenerativeClient
	model          string
	attemptTimeout time.Duration

	// テストから遅延を観測・短縮できるよう差し替え可能にしています。
	sleep func(ctx context.Context, d time.Duration) error
}

// New は依存関係を検証して Orchestrator を初期化します。
func New(client GenerativeClient, opts Options) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("client (GenerativeClient) is required")
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}

	return &Orchestrator{
		client:         client,
		model:          model,
		attemptTimeout: timeout,
		sleep:          sleepContext,
	}, nil
}

// Generate はリクエストされたバリエーション数ぶんの生成を並列実行します。
// 結果の並びはタスク番号順で固定され、完了順には依存しません。
// いずれかのタスクが回復不能に失敗した場合、部分結果は返さず
// そのタスクの分類済みエラーで呼び出し全体が失敗します。
func (o *Orchestrator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if req.Instruction == "" && len(req.Images) == 0 {
		return nil, fmt.Errorf("生成指示と画像の両方が空です")
	}

	variations := req.Variations
	if variations < 1 {
		variations = 1
	}

	contents, err := buildContents(req)
	if err != nil {
		return nil, err
	}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE"},
	}

	slog.InfoContext(ctx, "生成リクエストを開始します",
		"model", o.model, "variations", variations, "images", len(req.Images))

	// タスク番号で結果スロットを確保し、完了順に依存しない並びを保証します。
	results := make([]domain.ImagePayload, variations)
	errs := make([]error, variations)

	var wg sync.WaitGroup
	for i := 0; i < variations; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			results[index], errs[index] = o.runVariation(ctx, index, variations, contents, config)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &domain.GenerationResult{Images: results}, nil
}

// runVariation は 1 バリエーションぶんの試行ループです。
// スタッガーは初回試行のみを遅らせ、タスクの直列化はしません。
func (o *Orchestrator) runVariation(ctx context.Context, index, total int, contents []*genai.Content, config *genai.GenerateContentConfig) (domain.ImagePayload, error) {
	if index > 0 && total > 1 {
		if err := o.sleep(ctx, time.Duration(index)*staggerInterval); err != nil {
			return domain.ImagePayload{}, ClassifyTransportError(err)
		}
	}

	attempt := 0
	for {
		resp, err := o.callOnce(ctx, contents, config)
		if err != nil {
			classified := ClassifyTransportError(err)
			attempt++
			if classified.Retryable() && attempt <= maxRetries {
				delay := backoffBase << (attempt - 1)
				slog.WarnContext(ctx, "再試行可能な失敗を検知しました",
					"variation", index, "attempt", attempt, "delay", delay, "kind", classified.Kind)
				if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
					return domain.ImagePayload{}, classified
				}
				continue
			}
			// 再試行上限に達した場合も、最後に分類したエラーをそのまま返します。
			return domain.ImagePayload{}, classified
		}

		// 整形式だが不成功の応答は何度送っても変わらないため再試行しません。
		payload, classified := ClassifyResponse(resp)
		if classified != nil {
			return domain.ImagePayload{}, classified
		}
		return payload, nil
	}
}

func (o *Orchestrator) callOnce(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout)
	defer cancel()
	return o.client.GenerateContent(attemptCtx, o.model, contents, config)
}

// buildContents は画像パーツ群とテキストパーツを API の期待する順に並べます。
// 画像を先頭に置き、役割はラベルではなく位置で伝えます。
func buildContents(req domain.GenerationRequest) ([]*genai.Content, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for i, img := range req.Images {
		raw, err := img.RawBytes()
		if err != nil {
			return nil, fmt.Errorf("画像パーツ %d の変換に失敗しました: %w", i, err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MediaType,
				Data:     raw,
			},
		})
	}
	if req.Instruction != "" {
		parts = append(parts, genai.NewPartFromText(req.Instruction))
	}

	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

// sleepContext はコンテキストを尊重する遅延です。
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
