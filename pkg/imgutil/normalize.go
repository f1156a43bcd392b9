package imgutil

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

const (
	// MaxDimension は長辺の上限です。1 リクエストに複数画像（参照・背景・服飾）を
	// 同梱しても API のペイロード上限に収まるよう 512px に抑えています。
	MaxDimension = 512
	// JPEGQuality はペイロードサイズと参照精度の折衷値です。
	JPEGQuality = 70
)

// NormalizeBytes は任意の画像バイト列を送信可能なペイロードに正規化します。
// 長辺が MaxDimension を超える場合は縦横比を保ったまま縮小し、
// JPEG (quality 70) に再エンコードします。PNG と WEBP は圧縮特性を
// 尊重して可逆のまま保持します（WEBP はエンコーダが無いため縮小時は
// PNG に変換します）。上限内に収まっている画像はバイト列を変更しません。
func NormalizeBytes(data []byte) (domain.ImagePayload, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.ImagePayload{}, domain.WrapPipelineError(domain.KindDecode, "画像としてデコードできませんでした", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if width <= MaxDimension && height <= MaxDimension {
		switch format {
		case "jpeg", "png", "webp":
			// 再エンコードによる画質劣化を避け、そのまま通します。
			return domain.ImagePayload{
				EncodedData: base64.StdEncoding.EncodeToString(data),
				MediaType:   "image/" + format,
			}, nil
		}
		// GIF 等は契約上の MediaType 集合に収めるため JPEG に変換します。
		return encodePayload(img, format)
	}

	scale := float64(MaxDimension) / float64(max(width, height))
	scaledW := int(math.Round(float64(width) * scale))
	scaledH := int(math.Round(float64(height) * scale))

	scaled := image.NewRGBA(image.Rect(0, 0, scaledW, scaledH))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, bounds, draw.Over, nil)

	return encodePayload(scaled, format)
}

// encodePayload は再エンコード先の形式を決めてペイロード化します。
func encodePayload(img image.Image, sourceFormat string) (domain.ImagePayload, error) {
	buf := new(bytes.Buffer)
	mediaType := "image/jpeg"

	switch sourceFormat {
	case "png", "webp":
		if err := png.Encode(buf, img); err != nil {
			return domain.ImagePayload{}, domain.WrapPipelineError(domain.KindDecode, "PNG再エンコードに失敗しました", err)
		}
		mediaType = "image/png"
	default:
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return domain.ImagePayload{}, domain.WrapPipelineError(domain.KindDecode, "JPEG再エンコードに失敗しました", err)
		}
	}

	return domain.ImagePayload{
		EncodedData: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MediaType:   mediaType,
	}, nil
}
