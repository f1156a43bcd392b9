package store

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded は書き込みが容量上限を超える場合に返されます。
var ErrQuotaExceeded = errors.New("store: quota exceeded")

// KVStore は文字列キー・文字列値の永続ストアを抽象化するインターフェースです。
// 容量に上限があり、超過する書き込みは ErrQuotaExceeded で拒否されます。
// トランザクションやクエリ言語は持ちません。
type KVStore interface {
	// Get は値と存在有無を返します。キーが無いことはエラーではありません。
	Get(key string) (string, bool, error)
	// Set は値を保存します。容量超過時は ErrQuotaExceeded を返します。
	Set(key, value string) error
	// Delete はキーを削除します。キーが無い場合は何もしません。
	Delete(key string) error
}

// MemoryStore は容量上限付きのインメモリ実装です。
// テストや一時利用向けです。
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]string
	budget int
}

// NewMemoryStore は byteBudget を上限とするストアを返します。
// byteBudget が 0 以下の場合は無制限です。
func NewMemoryStore(byteBudget int) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]string),
		budget: byteBudget,
	}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budget > 0 {
		usage := 0
		for k, v := range s.data {
			if k == key {
				continue
			}
			usage += len(v)
		}
		if usage+len(value) > s.budget {
			return ErrQuotaExceeded
		}
	}
	s.data[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var _ KVStore = (*MemoryStore)(nil)
