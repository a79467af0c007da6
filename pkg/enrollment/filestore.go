package enrollment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const vectorExt = ".vec"

// FileStore 目录式注册表：每个名字一个向量文件 <dir>/<name>.vec。
// 写入先落临时文件再原子重命名，半写状态不会污染既有记录；
// 单条记录可独立删除，互不影响。
type FileStore struct {
	dir       string
	dimension int
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewFileStore 创建目录式注册表，目录不存在时自动创建
func NewFileStore(dir string, dimension int) (*FileStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrStorage)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create store dir: %v", ErrStorage, err)
	}
	return &FileStore{
		dir:       dir,
		dimension: dimension,
		logger:    zap.L().Named("enrollment.file"),
	}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+vectorExt)
}

// Put 写入或覆盖记录，写临时文件 + 原子重命名
func (s *FileStore) Put(ctx context.Context, name string, embedding []float64) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, store dimension %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := s.path(name) + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, EncodeVector(embedding), 0o600); err != nil {
		return nil, fmt.Errorf("%w: write record: %v", ErrStorage, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("%w: commit record: %v", ErrStorage, err)
	}

	s.logger.Info("enrollment stored",
		zap.String("name", name),
		zap.Int("dimension", len(embedding)))

	rec := &Record{Name: name, CreatedAt: time.Now()}
	rec.Embedding = append(rec.Embedding, embedding...)
	return rec, nil
}

// Get 读取单条记录
func (s *FileStore) Get(ctx context.Context, name string) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read record: %v", ErrStorage, err)
	}

	vec, err := DecodeVector(data)
	if err != nil {
		return nil, err
	}

	info, statErr := os.Stat(s.path(name))
	created := time.Now()
	if statErr == nil {
		created = info.ModTime()
	}
	return &Record{Name: name, Embedding: vec, CreatedAt: created}, nil
}

// All 枚举全部记录
func (s *FileStore) All(ctx context.Context) (map[string][]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list store dir: %v", ErrStorage, err)
	}

	out := make(map[string][]float64)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), vectorExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), vectorExt)
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w: read record %s: %v", ErrStorage, name, err)
		}
		vec, err := DecodeVector(data)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", name, err)
		}
		// 维度不符的陈旧记录不进快照，进了会让匹配阶段崩溃
		if len(vec) != s.dimension {
			s.logger.Warn("skipping record with stale dimension",
				zap.String("name", name),
				zap.Int("got", len(vec)),
				zap.Int("want", s.dimension))
			continue
		}
		out[name] = vec
	}
	return out, nil
}

// Delete 删除记录
func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: delete record: %v", ErrStorage, err)
	}

	s.logger.Info("enrollment deleted", zap.String("name", name))
	return nil
}

// List 返回全部已注册名字（升序）
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list store dir: %v", ErrStorage, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), vectorExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), vectorExt))
	}
	sort.Strings(names)
	return names, nil
}

// Count 返回记录数
func (s *FileStore) Count(ctx context.Context) (int, error) {
	names, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// Close 释放资源（目录式存储无持有资源）
func (s *FileStore) Close() error { return nil }
