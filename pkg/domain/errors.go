package domain

import "fmt"

// ErrorKind は生成パイプラインの失敗を分類した種別です。
type ErrorKind string

const (
	// 画像正規化系
	KindDecode ErrorKind = "decode_error"
	KindFetch  ErrorKind = "fetch_error"
	KindFormat ErrorKind = "format_error"

	// 通信系（このうち再試行可能なのは RateLimited と ServerOverloaded のみ）
	KindRateLimited        ErrorKind = "rate_limited"
	KindServerOverloaded   ErrorKind = "server_overloaded"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindTransport          ErrorKind = "transport_error"

	// 応答内容系
	KindSafetyBlocked        ErrorKind = "safety_blocked"
	KindPolicyRefusal        ErrorKind = "policy_refusal"
	KindTextualRefusal       ErrorKind = "textual_refusal"
	KindNoResult             ErrorKind = "no_result"
	KindEmptyResponse        ErrorKind = "empty_response"
	KindIncompleteGeneration ErrorKind = "incomplete_generation"
)

// PipelineError は分類済みの失敗です。Kind で機械的に分岐でき、
// UserMessage でそのまま提示できる打ち手つきの文言を取り出せます。
type PipelineError struct {
	Kind          ErrorKind
	Message       string
	SafetyRelated bool
	Err           error
}

// NewPipelineError は分類済みエラーを生成します。
func NewPipelineError(kind ErrorKind, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message}
}

// WrapPipelineError は原因エラーを保持したまま分類します。
func WrapPipelineError(kind ErrorKind, message string, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: message, Err: err}
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Retryable はバックオフ付き再試行で回復を試みてよい失敗かを返します。
// 壊れた画像や安全ポリシー拒否は何度送っても結果が変わらないため対象外です。
func (e *PipelineError) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindServerOverloaded
}

// IsSafety は安全ポリシー起因（またはその疑いが強い）失敗かを返します。
func (e *PipelineError) IsSafety() bool {
	switch e.Kind {
	case KindSafetyBlocked, KindPolicyRefusal:
		return true
	case KindTextualRefusal:
		return e.SafetyRelated
	}
	return false
}

// ageHint は安全系の拒否に対する定番の打ち手です。このドメインでは
// 年齢属性が拒否の支配的トリガーであるため、18 歳への調整を促します。
const ageHint = "提示：请将“模特年龄”调整为 18 岁后重试。"

// UserMessage は利用者にそのまま提示できる説明文を返します。
func (e *PipelineError) UserMessage() string {
	switch e.Kind {
	case KindDecode:
		return "无法解码所选图片，请更换文件后重试。"
	case KindFetch:
		return "图片下载失败，请检查链接是否有效。"
	case KindFormat:
		return "图片数据格式不正确。"
	case KindRateLimited:
		return "API 调用配额已耗尽 (429)。系统已尝试自动重试但未成功。请稍后（约1分钟）再试。"
	case KindServerOverloaded:
		return "Gemini 服务暂时过载 (503)。系统已尝试自动重试但未成功，请稍后再试。"
	case KindInvalidCredentials:
		return "无效的 API 密钥。请检查您的配置。"
	case KindSafetyBlocked:
		return "图片生成因安全策略被拦截。" + ageHint
	case KindPolicyRefusal:
		return "AI 拒绝了生成请求。这通常是因为请求触发了儿童安全保护机制。" + ageHint
	case KindTextualRefusal:
		msg := "生成失败: AI 反馈 - " + e.Message
		if e.SafetyRelated {
			msg += "\n\n(模型检测到可能涉及未成年人或敏感内容。" + ageHint + ")"
		}
		return msg
	case KindNoResult:
		return "未收到生成结果。可能是因为提示词或图片触发了安全拦截。"
	case KindEmptyResponse:
		return "API 返回了空的内容。这通常是由于安全策略拦截导致的。" + ageHint
	case KindIncompleteGeneration:
		return "生成未能完成，原因: " + e.Message
	}
	return "无法从 Gemini API 生成图片。这可能是由于网络问题、配额限制或安全策略拦截。" + ageHint
}
