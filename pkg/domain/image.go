package domain

import (
	"encoding/base64"
	"fmt"
)

// ImagePayload は送受信用にエンコード済みの画像データです。
// EncodedData は base64 文字列、MediaType は "image/jpeg" 等の MIME 型です。
type ImagePayload struct {
	EncodedData string
	MediaType   string
}

// IsZero はペイロードが未設定かどうかを返します。
func (p ImagePayload) IsZero() bool {
	return p.EncodedData == "" && p.MediaType == ""
}

// DataURI は data URI 形式 (data:<mime>;base64,<payload>) に整形します。
func (p ImagePayload) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MediaType, p.EncodedData)
}

// RawBytes は base64 をデコードした生バイト列を返します。
func (p ImagePayload) RawBytes() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(p.EncodedData)
	if err != nil {
		return nil, fmt.Errorf("画像ペイロードのデコードに失敗しました: %w", err)
	}
	return data, nil
}

// GenerationRequest は 1 回のオーケストレーター呼び出しの入力です。
// Images の順序は意味を持ちます。API は位置で役割を推定するため、
// 参照モデル画像、背景画像、服飾画像の順に並べます。
type GenerationRequest struct {
	Instruction string
	Images      []ImagePayload
	Variations  int
}

// GenerationResult は要求したバリエーション数ぶんの生成画像です。
// 並び順はタスク番号順で、完了順には依存しません。
type GenerationResult struct {
	Images []ImagePayload
}

// DataURIs は各生成画像を data URI に変換して返します。
func (r *GenerationResult) DataURIs() []string {
	uris := make([]string, len(r.Images))
	for i, img := range r.Images {
		uris[i] = img.DataURI()
	}
	return uris
}
