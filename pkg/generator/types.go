package generator

import "time"

const (
	// DefaultModel は画像生成に使うモデルです。
	DefaultModel = "gemini-2.5-flash-image"

	// DefaultAttemptTimeout はネットワーク試行 1 回あたりの壁時計上限です。
	// 再試行上限だけでは接続が固まったタスクを止められないため設けています。
	DefaultAttemptTimeout = 60 * time.Second

	// staggerInterval は複数バリエーション時にタスク起動をずらす間隔です。
	// 0ms, 800ms, 1600ms... と初回試行だけを遅らせ、直後の瞬間的な
	// レートリミットを避けます。
	staggerInterval = 800 * time.Millisecond

	// maxRetries は初回試行の後に許す再試行回数です。
	maxRetries = 3

	// backoffBase は指数バックオフの初期値です（2s, 4s, 8s）。
	backoffBase = 2 * time.Second
)

// Options はオーケストレーターの構成です。ゼロ値のフィールドには
// 既定値が充てられます。
type Options struct {
	Model          string
	AttemptTimeout time.Duration
}
