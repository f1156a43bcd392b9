package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileStore はローカルファイルシステム上の容量上限付き KV ストアです。
// キーごとに 1 ファイルを書き、ディレクトリ全体のバイト数で上限を判定します。
type FileStore struct {
	basePath string
	budget   int64
}

// NewFileStore は basePath 配下に byteBudget を上限とするストアを用意します。
// byteBudget が 0 以下の場合は無制限です。
func NewFileStore(basePath string, byteBudget int64) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("store: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, budget: byteBudget}, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	path, err := s.keyPath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: read %q: %w", key, err)
	}
	return string(data), true, nil
}

func (s *FileStore) Set(key, value string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}

	if s.budget > 0 {
		usage, err := s.usageExcluding(path)
		if err != nil {
			return err
		}
		if usage+int64(len(value)) > s.budget {
			return ErrQuotaExceeded
		}
	}

	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("store: write %q: %w", key, err)
	}
	return nil
}

func (s *FileStore) Delete(key string) error {
	path, err := s.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: delete %q: %w", key, err)
	}
	return nil
}

// usageExcluding は上書き対象ファイルを除いた現在の使用量を数えます。
func (s *FileStore) usageExcluding(excludePath string) (int64, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return 0, fmt.Errorf("store: scan base path: %w", err)
	}
	var usage int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.basePath, entry.Name())
		if path == excludePath {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		usage += info.Size()
	}
	return usage, nil
}

// keyPath はキーを正規化してストア直下のパスに解決します。
// ディレクトリトラバーサルを防ぎます。
func (s *FileStore) keyPath(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("store: key is required")
	}
	cleaned := filepath.Clean(strings.ReplaceAll(key, "\\", "/"))
	if cleaned == "." || strings.Contains(cleaned, "/") || strings.HasPrefix(cleaned, "..") {
		return "", fmt.Errorf("store: invalid key: %q", key)
	}
	return filepath.Join(s.basePath, cleaned+".json"), nil
}

var _ KVStore = (*FileStore)(nil)
