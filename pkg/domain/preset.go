package domain

import "time"

// SavedModelPreset は「同じモデル」を再利用するための名前付きスナップショットです。
// ID は作成時に採番され、以後変更されません。
type SavedModelPreset struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ThumbnailURI string       `json:"thumbnail_uri"`
	Attributes   AttributeSet `json:"attributes"`
	CreatedAt    time.Time    `json:"created_at"`
}
