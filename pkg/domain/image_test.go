package domain

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImagePayload(t *testing.T) {
	raw := []byte("fake-image-binary")
	payload := ImagePayload{
		EncodedData: base64.StdEncoding.EncodeToString(raw),
		MediaType:   "image/jpeg",
	}

	t.Run("DataURIが正しい形式になること", func(t *testing.T) {
		uri := payload.DataURI()
		assert.Equal(t, "data:image/jpeg;base64,"+payload.EncodedData, uri)
	})

	t.Run("RawBytesで元のバイト列が復元できること", func(t *testing.T) {
		got, err := payload.RawBytes()
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("不正なbase64はエラーになること", func(t *testing.T) {
		broken := ImagePayload{EncodedData: "!!not-base64!!", MediaType: "image/png"}
		_, err := broken.RawBytes()
		assert.Error(t, err)
	})

	t.Run("IsZeroは未設定ペイロードだけを検知すること", func(t *testing.T) {
		assert.True(t, ImagePayload{}.IsZero())
		assert.False(t, payload.IsZero())
	})
}

func TestGenerationResult_DataURIs(t *testing.T) {
	result := GenerationResult{Images: []ImagePayload{
		{EncodedData: "aaaa", MediaType: "image/png"},
		{EncodedData: "bbbb", MediaType: "image/jpeg"},
	}}

	uris := result.DataURIs()
	assert.Equal(t, []string{
		"data:image/png;base64,aaaa",
		"data:image/jpeg;base64,bbbb",
	}, uris)
}

func TestAttributeSet_Clone(t *testing.T) {
	attrs := DefaultAttributeSet()
	attrs.FacialFeatures = []string{"酒窝"}

	cloned := attrs.Clone()
	cloned.FacialFeatures[0] = "雀斑"

	assert.Equal(t, "酒窝", attrs.FacialFeatures[0], "Cloneはスライスを共有してはいけない")
}
