package imgutil

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

// HTTPClient は、URLからデータを取得するためのインターフェースです。
// この窓口が必要とするのは取得だけなので、httpkit のフルインターフェース
// ではなく最小のメソッド集合を要求します。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// httpkit クライアントはそのまま注入できます。
var _ HTTPClient = (httpkit.ClientInterface)(nil)

// Normalizer はリモート参照を含む画像ソースの正規化窓口です。
type Normalizer struct {
	httpClient HTTPClient
	reader     remoteio.InputReader
}

// NewNormalizer は依存関係を注入して Normalizer を初期化します。
// reader は nil を許容します（その場合 gs:// ソースは扱えません）。
func NewNormalizer(httpClient HTTPClient, reader remoteio.InputReader) (*Normalizer, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Normalizer{
		httpClient: httpClient,
		reader:     reader,
	}, nil
}

// FromBytes はローカル画像バイト列を正規化します。
func (n *Normalizer) FromBytes(data []byte) (domain.ImagePayload, error) {
	return NormalizeBytes(data)
}

// FromURL はリモート参照から画像を取得して正規化します。
// 取得失敗は KindFetch、デコード失敗は KindDecode として分類されます。
func (n *Normalizer) FromURL(ctx context.Context, rawURL string) (domain.ImagePayload, error) {
	data, err := n.fetchImageData(ctx, rawURL)
	if err != nil {
		return domain.ImagePayload{}, domain.WrapPipelineError(domain.KindFetch, "画像の取得に失敗しました", err)
	}
	return NormalizeBytes(data)
}

func (n *Normalizer) fetchImageData(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "gs://") {
		if n.reader == nil {
			return nil, fmt.Errorf("gs:// ソースを扱う reader が設定されていません")
		}
		rc, err := n.reader.Open(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	if safe, err := isSafeURL(rawURL); err != nil || !safe {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}
	return n.httpClient.FetchBytes(ctx, rawURL)
}

// isSafeURL は SSRF (Server-Side Request Forgery) 対策として URL を検証します。
// 許可されたスキーム (http, https) かつ、プライベートIPやループバックアドレスを
// ターゲットにしていないことを確認します。
func isSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	host := parsedURL.Hostname()
	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolved, err := net.LookupIP(host)
		if err != nil {
			return false, fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", host, err)
		}
		ips = resolved
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
