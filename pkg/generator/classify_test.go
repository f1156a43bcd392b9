package generator

import (
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

func TestClassifyResponse(t *testing.T) {
	t.Run("候補ゼロはNoResultとして扱うこと", func(t *testing.T) {
		for _, resp := range []*genai.GenerateContentResponse{
			nil,
			{},
			{Candidates: []*genai.Candidate{}},
		} {
			_, classified := ClassifyResponse(resp)
			require.NotNil(t, classified)
			assert.Equal(t, domain.KindNoResult, classified.Kind)
		}
	})

	t.Run("パーツなし+SAFETYはSafetyBlockedになること", func(t *testing.T) {
		_, classified := ClassifyResponse(finishResponse(genai.FinishReasonSafety))

		require.NotNil(t, classified)
		assert.Equal(t, domain.KindSafetyBlocked, classified.Kind)
		assert.True(t, classified.SafetyRelated)
	})

	t.Run("NO_IMAGE/OTHER/RECITATIONは静かな拒否としてPolicyRefusalになること", func(t *testing.T) {
		for _, reason := range []genai.FinishReason{
			finishReasonNoImage,
			genai.FinishReasonOther,
			genai.FinishReasonRecitation,
		} {
			_, classified := ClassifyResponse(finishResponse(reason))
			require.NotNil(t, classified, string(reason))
			assert.Equal(t, domain.KindPolicyRefusal, classified.Kind, string(reason))
			assert.True(t, classified.SafetyRelated, string(reason))
		}
	})

	t.Run("その他の異常終了はIncompleteGenerationになること", func(t *testing.T) {
		_, classified := ClassifyResponse(finishResponse(genai.FinishReasonMaxTokens))

		require.NotNil(t, classified)
		assert.Equal(t, domain.KindIncompleteGeneration, classified.Kind)
		assert.Contains(t, classified.Message, string(genai.FinishReasonMaxTokens))
	})

	t.Run("正常終了なのにパーツが空ならEmptyResponseになること", func(t *testing.T) {
		_, classified := ClassifyResponse(finishResponse(genai.FinishReasonStop))

		require.NotNil(t, classified)
		assert.Equal(t, domain.KindEmptyResponse, classified.Kind)
	})

	t.Run("インライン画像パーツが結果になること", func(t *testing.T) {
		raw := []byte("fake-image")
		payload, classified := ClassifyResponse(imageResponse(raw, "image/png"))

		require.Nil(t, classified)
		assert.Equal(t, "image/png", payload.MediaType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(raw), payload.EncodedData)
	})

	t.Run("テキストパーツは拒否説明としてTextualRefusalになること", func(t *testing.T) {
		_, classified := ClassifyResponse(textResponse("この服装の画像は生成できません"))

		require.NotNil(t, classified)
		assert.Equal(t, domain.KindTextualRefusal, classified.Kind)
		assert.False(t, classified.SafetyRelated)
		assert.Contains(t, classified.Message, "生成できません")
	})

	t.Run("安全関連の語彙を含むテキスト拒否にはフラグが立つこと", func(t *testing.T) {
		_, classified := ClassifyResponse(textResponse("I cannot generate images that may depict a minor per our safety policy."))

		require.NotNil(t, classified)
		assert.Equal(t, domain.KindTextualRefusal, classified.Kind)
		assert.True(t, classified.SafetyRelated)
	})
}

func TestClassifyTransportError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"APIErrorの429", genai.APIError{Code: 429, Message: "Resource has been exhausted"}, domain.KindRateLimited},
		{"メッセージ中の429", errors.New("Error 429, Message: rate limit"), domain.KindRateLimited},
		{"quota表記", errors.New("quota exceeded for model"), domain.KindRateLimited},
		{"RESOURCE_EXHAUSTED表記", errors.New("Status: RESOURCE_EXHAUSTED"), domain.KindRateLimited},
		{"APIErrorの503", genai.APIError{Code: 503, Status: "UNAVAILABLE"}, domain.KindServerOverloaded},
		{"メッセージ中の503", errors.New("got 503 from upstream"), domain.KindServerOverloaded},
		{"無効なAPIキー", errors.New("API key not valid. Please pass a valid API key."), domain.KindInvalidCredentials},
		{"その他の通信失敗", errors.New("connection reset by peer"), domain.KindTransport},
		{"ラップ済みのAPIError", fmt.Errorf("generate: %w", genai.APIError{Code: 429}), domain.KindRateLimited},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classified := ClassifyTransportError(tc.err)
			require.NotNil(t, classified)
			assert.Equal(t, tc.want, classified.Kind)
			assert.Equal(t, tc.err, classified.Err, "原因エラーを保持すること")
		})
	}
}
