package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shouni/fashion-model-kit/pkg/domain"
)

const (
	keyPresets = "savedModels"
	keyRecent  = "recentGenerations"

	// RecentCapacity は直近生成履歴の保持件数です。
	// 履歴は構築時点でこの件数に収まり、容量超過の検知は防衛的な
	// フォールバックとしてのみ働きます。
	RecentCapacity = 3
)

// Cache は生成結果の直近履歴とモデルプリセットを所有する永続キャッシュです。
// バックエンドストアへの書き込みはこのコンポーネントだけが行い、
// ミューテックスで単一ライター規律を保証します。
type Cache struct {
	mu sync.Mutex
	kv KVStore

	capacity int
}

// NewCache はバックエンドストアを注入して Cache を初期化します。
func NewCache(kv KVStore) (*Cache, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv (KVStore) is required")
	}
	return &Cache{kv: kv, capacity: RecentCapacity}, nil
}

// RecordGeneration は新しい生成結果を履歴の先頭に追加して永続化します。
// 容量超過で書き込みが拒否された場合は最古のエントリから 1 件ずつ
// 落として再試行し、空になっても書けないときは警告を残して飲み込みます。
// 履歴の喪失は致命的ではありません。
func (c *Cache) RecordGeneration(uris []string) error {
	if len(uris) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	recent, err := c.loadRecentLocked()
	if err != nil {
		// 壊れた履歴は読み捨てて新規に作り直します。
		slog.Warn("直近履歴の読み込みに失敗したため初期化します", "error", err)
		recent = nil
	}

	recent = append(append([]string(nil), uris...), recent...)
	if len(recent) > c.capacity {
		recent = recent[:c.capacity]
	}

	for {
		data, err := json.Marshal(recent)
		if err != nil {
			return fmt.Errorf("直近履歴のシリアライズに失敗しました: %w", err)
		}
		err = c.kv.Set(keyRecent, string(data))
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return fmt.Errorf("直近履歴の保存に失敗しました: %w", err)
		}
		if len(recent) == 0 {
			slog.Warn("容量超過のため直近履歴を保存できませんでした", "error", err)
			return nil
		}
		// 最古（末尾）を 1 件落として再試行します。
		recent = recent[:len(recent)-1]
	}
}

// ListRecent は直近履歴を新しい順で返します。
func (c *Cache) ListRecent() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadRecentLocked()
}

func (c *Cache) loadRecentLocked() ([]string, error) {
	raw, ok, err := c.kv.Get(keyRecent)
	if err != nil {
		return nil, fmt.Errorf("直近履歴の読み込みに失敗しました: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var recent []string
	if err := json.Unmarshal([]byte(raw), &recent); err != nil {
		return nil, fmt.Errorf("直近履歴の解析に失敗しました: %w", err)
	}
	return recent, nil
}

// NewPreset は初回の生成成功時に作るプリセットを組み立てます。
// ID は作成時に採番され、以後不変です。
func NewPreset(name string, attrs domain.AttributeSet, thumbnailURI string) domain.SavedModelPreset {
	return domain.SavedModelPreset{
		ID:           uuid.NewString(),
		Name:         name,
		ThumbnailURI: thumbnailURI,
		Attributes:   attrs.Clone(),
		CreatedAt:    time.Now().UTC(),
	}
}

// UpsertPreset は同一 ID のプリセットを置き換え、無ければ追加します。
func (c *Cache) UpsertPreset(preset domain.SavedModelPreset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	presets, err := c.loadPresetsLocked()
	if err != nil {
		return err
	}

	replaced := false
	for i, p := range presets {
		if p.ID == preset.ID {
			presets[i] = preset
			replaced = true
			break
		}
	}
	if !replaced {
		presets = append(presets, preset)
	}
	return c.savePresetsLocked(presets)
}

// DeletePreset は ID でプリセットを削除します。
// 見つからない場合は何もしません（全域な操作に保つための設計です）。
func (c *Cache) DeletePreset(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	presets, err := c.loadPresetsLocked()
	if err != nil {
		return err
	}

	kept := presets[:0]
	for _, p := range presets {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(presets) {
		return nil
	}
	return c.savePresetsLocked(kept)
}

// RenamePreset は ID で引いたプリセットの表示名を変更します。
// 見つからない場合は何もしません。
func (c *Cache) RenamePreset(id, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	presets, err := c.loadPresetsLocked()
	if err != nil {
		return err
	}

	for i, p := range presets {
		if p.ID == id {
			presets[i].Name = name
			return c.savePresetsLocked(presets)
		}
	}
	return nil
}

// ListPresets は保存済みプリセットを登録順で返します。
func (c *Cache) ListPresets() ([]domain.SavedModelPreset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadPresetsLocked()
}

// FindPreset は ID でプリセットを検索します。
func (c *Cache) FindPreset(id string) (domain.SavedModelPreset, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	presets, err := c.loadPresetsLocked()
	if err != nil {
		return domain.SavedModelPreset{}, false, err
	}
	for _, p := range presets {
		if p.ID == id {
			return p, true, nil
		}
	}
	return domain.SavedModelPreset{}, false, nil
}

func (c *Cache) loadPresetsLocked() ([]domain.SavedModelPreset, error) {
	raw, ok, err := c.kv.Get(keyPresets)
	if err != nil {
		return nil, fmt.Errorf("プリセットの読み込みに失敗しました: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var presets []domain.SavedModelPreset
	if err := json.Unmarshal([]byte(raw), &presets); err != nil {
		return nil, fmt.Errorf("プリセットの解析に失敗しました: %w", err)
	}
	return presets, nil
}

func (c *Cache) savePresetsLocked(presets []domain.SavedModelPreset) error {
	data, err := json.Marshal(presets)
	if err != nil {
		return fmt.Errorf("プリセットのシリアライズに失敗しました: %w", err)
	}
	if err := c.kv.Set(keyPresets, string(data)); err != nil {
		return fmt.Errorf("プリセットの保存に失敗しました: %w", err)
	}
	return nil
}
