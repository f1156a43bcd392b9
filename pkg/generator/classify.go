package generator

import (
	"encoding/base64"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

// SDK に定数のない終了理由。無画像の静かな拒否でよく返ってきます。
const finishReasonNoImage = genai.FinishReason("NO_IMAGE")

// テキスト応答に安全ポリシー起因の拒否が含まれるかを見る語彙です。
var safetyVocabulary = []string{"child", "minor", "kid", "safe", "policy", "guidelines"}

// ClassifyResponse は整形式のレスポンスを解析し、画像ペイロードまたは
// 分類済みエラーに写します。I/O は行いません。判定順序は固定です：
// 候補なし → パーツなし（終了理由で分岐）→ 画像パーツ → テキストパーツ → 空応答。
func ClassifyResponse(resp *genai.GenerateContentResponse) (domain.ImagePayload, *domain.PipelineError) {
	if resp == nil || len(resp.Candidates) == 0 {
		return domain.ImagePayload{}, domain.NewPipelineError(domain.KindNoResult, "候補が返されませんでした")
	}

	// 現在の仕様では最初の候補のみを利用します。
	candidate := resp.Candidates[0]
	reason := candidate.FinishReason
	hasParts := candidate.Content != nil && len(candidate.Content.Parts) > 0

	if !hasParts {
		switch {
		case reason == genai.FinishReasonSafety:
			return domain.ImagePayload{}, &domain.PipelineError{
				Kind:          domain.KindSafetyBlocked,
				Message:       "安全ポリシーによりブロックされました",
				SafetyRelated: true,
			}
		case reason == finishReasonNoImage || reason == genai.FinishReasonOther || reason == genai.FinishReasonRecitation:
			// 明示的な SAFETY ではないものの、児童保護系の静かな拒否で頻出する組です。
			return domain.ImagePayload{}, &domain.PipelineError{
				Kind:          domain.KindPolicyRefusal,
				Message:       string(reason),
				SafetyRelated: true,
			}
		case reason != "" && reason != genai.FinishReasonStop && reason != genai.FinishReasonUnspecified:
			return domain.ImagePayload{}, domain.NewPipelineError(domain.KindIncompleteGeneration, string(reason))
		}
		return domain.ImagePayload{}, domain.NewPipelineError(domain.KindEmptyResponse, "コンテンツが空でした")
	}

	for _, part := range candidate.Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return domain.ImagePayload{
				EncodedData: base64.StdEncoding.EncodeToString(part.InlineData.Data),
				MediaType:   part.InlineData.MIMEType,
			}, nil
		}
		if part.Text != "" {
			// 画像の代わりにテキストが返るのは、モデルが拒否理由を散文で説明しているケースです。
			return domain.ImagePayload{}, &domain.PipelineError{
				Kind:          domain.KindTextualRefusal,
				Message:       part.Text,
				SafetyRelated: containsSafetyVocabulary(part.Text),
			}
		}
	}

	return domain.ImagePayload{}, domain.NewPipelineError(domain.KindEmptyResponse, "画像データが見つかりませんでした")
}

// ClassifyTransportError は通信レベルの失敗を分類します。
// ここで KindRateLimited / KindServerOverloaded に分類されたものだけが
// 再試行の対象になります。
func ClassifyTransportError(err error) *domain.PipelineError {
	message := err.Error()
	code := 0
	status := ""

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
		status = apiErr.Status
	}

	switch {
	case code == 429 ||
		status == "RESOURCE_EXHAUSTED" ||
		strings.Contains(message, "429") ||
		strings.Contains(message, "quota") ||
		strings.Contains(message, "RESOURCE_EXHAUSTED"):
		return domain.WrapPipelineError(domain.KindRateLimited, "レートリミットに達しました", err)
	case code == 503 ||
		status == "UNAVAILABLE" ||
		strings.Contains(message, "503"):
		return domain.WrapPipelineError(domain.KindServerOverloaded, "サーバーが過負荷状態です", err)
	case strings.Contains(message, "API key not valid") ||
		strings.Contains(message, "API_KEY_INVALID"):
		return domain.WrapPipelineError(domain.KindInvalidCredentials, "APIキーが無効です", err)
	}
	return domain.WrapPipelineError(domain.KindTransport, "生成リクエストに失敗しました", err)
}

func containsSafetyVocabulary(text string) bool {
	lowered := strings.ToLower(text)
	for _, word := range safetyVocabulary {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
