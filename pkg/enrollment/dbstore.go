package enrollment

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/code-100-precent/LingVoice/internal/models"
)

// DBStore 数据库注册表后端（gorm）。按名唯一索引实现 upsert，
// 单条写入在一个事务内完成，不会留下半写记录。
type DBStore struct {
	db        *gorm.DB
	dimension int
	logger    *zap.Logger
}

// NewDBStore 创建数据库注册表后端
func NewDBStore(db *gorm.DB, dimension int) (*DBStore, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil database handle", ErrStorage)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", ErrStorage)
	}
	if err := db.AutoMigrate(&models.Enrollment{}); err != nil {
		return nil, fmt.Errorf("%w: migrate enrollments: %v", ErrStorage, err)
	}
	return &DBStore{
		db:        db,
		dimension: dimension,
		logger:    zap.L().Named("enrollment.db"),
	}, nil
}

// Put 写入或覆盖记录
func (s *DBStore) Put(ctx context.Context, name string, embedding []float64) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, store dimension %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	row := models.Enrollment{
		Name:      name,
		Embedding: EncodeVector(embedding),
		Dimension: len(embedding),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "dimension", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("%w: upsert enrollment: %v", ErrStorage, err)
	}

	s.logger.Info("enrollment stored",
		zap.String("name", name),
		zap.Int("dimension", len(embedding)))

	rec := &Record{Name: name, CreatedAt: row.CreatedAt}
	rec.Embedding = append(rec.Embedding, embedding...)
	return rec, nil
}

// Get 读取单条记录
func (s *DBStore) Get(ctx context.Context, name string) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var row models.Enrollment
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query enrollment: %v", ErrStorage, err)
	}

	vec, err := DecodeVector(row.Embedding)
	if err != nil {
		return nil, err
	}
	return &Record{Name: row.Name, Embedding: vec, CreatedAt: row.CreatedAt}, nil
}

// All 枚举全部记录
func (s *DBStore) All(ctx context.Context) (map[string][]float64, error) {
	var rows []models.Enrollment
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: list enrollments: %v", ErrStorage, err)
	}

	out := make(map[string][]float64, len(rows))
	for _, row := range rows {
		vec, err := DecodeVector(row.Embedding)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", row.Name, err)
		}
		// 维度不符的陈旧记录不进快照，进了会让匹配阶段崩溃
		if len(vec) != s.dimension {
			s.logger.Warn("skipping record with stale dimension",
				zap.String("name", row.Name),
				zap.Int("got", len(vec)),
				zap.Int("want", s.dimension))
			continue
		}
		out[row.Name] = vec
	}
	return out, nil
}

// Delete 删除记录
func (s *DBStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&models.Enrollment{})
	if result.Error != nil {
		return fmt.Errorf("%w: delete enrollment: %v", ErrStorage, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("enrollment deleted", zap.String("name", name))
	return nil
}

// List 返回全部已注册名字（升序）
func (s *DBStore) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&models.Enrollment{}).Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("%w: list enrollments: %v", ErrStorage, err)
	}
	sort.Strings(names)
	return names, nil
}

// Count 返回记录数
func (s *DBStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Enrollment{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: count enrollments: %v", ErrStorage, err)
	}
	return int(count), nil
}

// Close 释放资源（连接由上层管理）
func (s *DBStore) Close() error { return nil }
