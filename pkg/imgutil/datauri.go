package imgutil

import (
	"regexp"
	"strings"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

// data URI のヘッダから MIME 型を抜き出すパターン（data:<mime>;base64）。
var mediaTypePattern = regexp.MustCompile(`:(.*?);`)

// ParseDataURI は data URI をヘッダとペイロードに分解して返します。
// ラスタ内容のデコードは行わない純粋なパースで、縮小処理が不要な
// （または割に合わない）ケースのフォールバックとして使います。
func ParseDataURI(uri string) (domain.ImagePayload, error) {
	segments := strings.Split(uri, ",")
	if len(segments) != 2 {
		return domain.ImagePayload{}, domain.NewPipelineError(domain.KindFormat, "data URIにペイロード部がありません")
	}

	match := mediaTypePattern.FindStringSubmatch(segments[0])
	if len(match) < 2 || match[1] == "" {
		return domain.ImagePayload{}, domain.NewPipelineError(domain.KindFormat, "data URIからMIME型を抽出できませんでした")
	}

	return domain.ImagePayload{
		EncodedData: segments[1],
		MediaType:   match[1],
	}, nil
}
