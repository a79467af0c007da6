package enrollment

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const (
	// BackendFile 目录式文件后端
	BackendFile = "file"
	// BackendDatabase 数据库后端
	BackendDatabase = "database"
)

// Config 注册表配置
type Config struct {
	// Backend 后端类型："file" 或 "database"
	Backend string `env:"ENROLLMENT_BACKEND"`
	// Dir 文件后端的存储目录
	Dir string `env:"ENROLLMENT_DIR"`
	// Dimension 部署内恒定的嵌入向量维度
	Dimension int `env:"ENROLLMENT_DIMENSION"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Backend:   BackendFile,
		Dir:       "data/embed",
		Dimension: 1024,
	}
}

// NewStore 按配置创建注册表后端。数据库后端需要已打开的 gorm 句柄。
func NewStore(cfg *Config, db *gorm.DB) (Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case BackendFile, "":
		return NewFileStore(cfg.Dir, cfg.Dimension)
	case BackendDatabase:
		return NewDBStore(db, cfg.Dimension)
	default:
		return nil, fmt.Errorf("unknown enrollment backend: %s", cfg.Backend)
	}
}
