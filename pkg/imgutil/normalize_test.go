package imgutil

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

// テスト用のダミー画像を生成するヘルパー
func encodeDummyImage(t *testing.T, format string, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}

	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "png":
		err = png.Encode(buf, img)
	case "jpeg":
		err = jpeg.Encode(buf, img, nil)
	case "gif":
		err = gif.Encode(buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	if err != nil {
		t.Fatalf("failed to encode dummy image: %v", err)
	}
	return buf.Bytes()
}

func decodePayload(t *testing.T, payload domain.ImagePayload) image.Image {
	t.Helper()
	raw, err := payload.RawBytes()
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestNormalizeBytes_Resize(t *testing.T) {
	t.Run("長辺が512を超える場合は長辺がちょうど512になること", func(t *testing.T) {
		input := encodeDummyImage(t, "jpeg", 1024, 640)

		payload, err := NormalizeBytes(input)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", payload.MediaType)

		got := decodePayload(t, payload)
		assert.Equal(t, 512, got.Bounds().Dx())
		assert.Equal(t, 320, got.Bounds().Dy())
	})

	t.Run("縦横比が丸め1px以内で保たれること", func(t *testing.T) {
		input := encodeDummyImage(t, "jpeg", 1000, 600)

		payload, err := NormalizeBytes(input)
		require.NoError(t, err)

		got := decodePayload(t, payload)
		// 600 * (512/1000) = 307.2 → 307
		assert.Equal(t, 512, got.Bounds().Dx())
		assert.InDelta(t, 307, got.Bounds().Dy(), 1)
	})

	t.Run("縦長画像でも長辺基準で縮小されること", func(t *testing.T) {
		input := encodeDummyImage(t, "png", 256, 1024)

		payload, err := NormalizeBytes(input)
		require.NoError(t, err)

		got := decodePayload(t, payload)
		assert.Equal(t, 128, got.Bounds().Dx())
		assert.Equal(t, 512, got.Bounds().Dy())
	})
}

func TestNormalizeBytes_Passthrough(t *testing.T) {
	t.Run("上限内のJPEGはバイト列が変更されないこと", func(t *testing.T) {
		input := encodeDummyImage(t, "jpeg", 300, 200)

		payload, err := NormalizeBytes(input)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", payload.MediaType)

		raw, err := payload.RawBytes()
		require.NoError(t, err)
		assert.Equal(t, input, raw)
	})

	t.Run("上限内のPNGは形式が保持されること", func(t *testing.T) {
		input := encodeDummyImage(t, "png", 100, 100)

		payload, err := NormalizeBytes(input)
		require.NoError(t, err)
		assert.Equal(t, "image/png", payload.MediaType)
	})
}

func TestNormalizeBytes_FormatConversion(t *testing.T) {
	t.Run("縮小が必要なPNGはPNGのまま再エンコードされること", func(t *testing.T) {
		input := encodeDummyImage(t, "png", 700, 700)

		payload, err := NormalizeBytes(input)
		require.NoError(t, err)
		assert.Equal(t, "image/png", payload.MediaType)
	})

	t.Run("GIFは契約上のMediaType集合に収めるためJPEGになること", func(t *testing.T) {
		input := encodeDummyImage(t, "gif", 100, 100)

		payload, err := NormalizeBytes(input)
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", payload.MediaType)
	})
}

func TestNormalizeBytes_DecodeError(t *testing.T) {
	_, err := NormalizeBytes([]byte("this is not an image"))

	var perr *domain.PipelineError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.KindDecode, perr.Kind)
}
